package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profile is the resolved, role-bearing identity record shown to the UI.
// It is distinct from the raw account/session the Store owns: constructed
// fresh on every resolution, replaced wholesale on session change, never
// mutated in place.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Role          Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	Email         string     `bun:"email" json:"email,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Clone returns a copy so controller state can be handed out without
// aliasing the stored record.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Account is the credential record behind LocalStore. Hosted backends keep
// the equivalent table on their side.
type Account struct {
	bun.BaseModel    `bun:"table:accounts,alias:acc"`
	ID               uuid.UUID      `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Email            string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash     string         `bun:"password_hash,notnull" json:"-"`
	Metadata         map[string]any `bun:"metadata" json:"metadata,omitempty"`
	EmailConfirmedAt *time.Time     `bun:"email_confirmed_at,nullzero" json:"email_confirmed_at,omitempty"`
	CreatedAt        *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// AuditAction is a closed catalogue of platform actions the audit log knows.
type AuditAction = string

const (
	AuditLogin             AuditAction = "auth.login"
	AuditLogout            AuditAction = "auth.logout"
	AuditRegister          AuditAction = "auth.register"
	AuditProfileUpdated    AuditAction = "profile.updated"
	AuditDonationCreated   AuditAction = "donation.created"
	AuditDonationClaimed   AuditAction = "donation.claimed"
	AuditJobPosted         AuditAction = "job.posted"
	AuditWorkshopScheduled AuditAction = "workshop.scheduled"
)

// AuditEntry is a single audit-log row. Write-only from the core's
// perspective; delivery failures are swallowed by the Recorder.
type AuditEntry struct {
	bun.BaseModel `bun:"table:audit_log,alias:aud"`
	ID            uuid.UUID      `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Action        AuditAction    `bun:"action,notnull" json:"action,omitempty"`
	ActorID       string         `bun:"actor_id" json:"actor_id,omitempty"`
	EntityType    string         `bun:"entity_type" json:"entity_type,omitempty"`
	EntityID      string         `bun:"entity_id" json:"entity_id,omitempty"`
	Description   string         `bun:"description" json:"description,omitempty"`
	Metadata      map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
