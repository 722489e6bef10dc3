package session

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories the package owns.
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Profiles() Profiles
	Accounts() Accounts
	Audits() repository.Repository[*AuditEntry]
}

// NewAuditRepository builds the bun-backed audit-log repository.
func NewAuditRepository(db *bun.DB) repository.Repository[*AuditEntry] {
	handlers := repository.ModelHandlers[*AuditEntry]{
		NewRecord: func() *AuditEntry {
			return &AuditEntry{}
		},
		GetID: func(record *AuditEntry) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *AuditEntry, id uuid.UUID) {
			record.ID = id
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db       *bun.DB
	profiles Profiles
	accounts Accounts
	audits   repository.Repository[*AuditEntry]
}

// NewRepositoryManager wires all repositories over a single bun DB.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:       db,
		profiles: NewProfilesRepository(db),
		accounts: NewAccountsRepository(db),
		audits:   NewAuditRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.profiles == nil {
		return errors.New("repository profiles should be initialized")
	}

	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.audits == nil {
		return errors.New("repository audits should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Profiles() Profiles {
	return m.profiles
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) Audits() repository.Repository[*AuditEntry] {
	return m.audits
}
