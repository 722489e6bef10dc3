package session

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfileStore is the slice of the profile table the resolver and the
// controller consume. GetByID reports a missing row through
// repository.IsRecordNotFound so callers can tell "not provisioned yet"
// apart from a transport failure.
type ProfileStore interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*Profile, error)
	Upsert(ctx context.Context, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error)
}

// Profiles is the full profile-table repository.
type Profiles interface {
	repository.Repository[*Profile]

	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*Profile, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*Profile, error)
	Upsert(ctx context.Context, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error)
	UpsertTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error)
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ ProfileStore                    = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

// NewProfilesRepository builds the bun-backed Profiles repository.
func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

func (a *profiles) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*Profile, error) {
	return a.GetByIDTx(ctx, a.db, id, criteria...)
}

func (a *profiles) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*Profile, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id})
	}

	record := &Profile{}
	q := tx.NewSelect().
		Model(record).
		Column("id", "user_role", "name", "phone_number", "email", "created_at")

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("?TableAlias.id = ?", trimmed).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": trimmed})
		}
		return nil, err
	}

	return record, nil
}

func (a *profiles) Upsert(ctx context.Context, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error) {
	return a.UpsertTx(ctx, a.db, record, criteria...)
}

// UpsertTx updates the row matching the record's id, creating it when no row
// exists. A record with an empty Role updates the remaining fields only, so
// externally managed roles stay untouched.
func (a *profiles) UpsertTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error) {
	existing, err := a.GetByIDTx(ctx, tx, record.ID.String())
	if err == nil {
		if record.Role == "" {
			record.Role = existing.Role
		}
		criteria = append(criteria, repository.UpdateByID(record.ID.String()))
		return a.Repository.UpdateTx(ctx, tx, record, criteria...)
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	if record.Role == "" {
		record.Role = RoleDonor
	}

	return a.Repository.CreateTx(ctx, tx, record)
}
