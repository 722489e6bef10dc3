package session

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// DefaultRetryDelay is how long the resolver waits before its single retry
// of a failed profile query.
var DefaultRetryDelay = 300 * time.Millisecond

// Resolver turns an authenticated session into a Profile.
//
// A query error gets exactly one retry after a short delay; a second error
// propagates as a resolution failure. A query that succeeds but finds no row
// falls back to session metadata immediately, without retrying. The two
// paths stay separate on purpose: an error is a backend hiccup, an empty
// result means the profile has not been provisioned yet.
type Resolver struct {
	profiles   ProfileStore
	retryDelay time.Duration
	sleep      sleeper
	logger     Logger
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithResolverRetryDelay overrides the delay before the single retry.
func WithResolverRetryDelay(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d >= 0 {
			r.retryDelay = d
		}
	}
}

// WithResolverSleep injects a sleep function (useful for tests).
func WithResolverSleep(s sleeper) ResolverOption {
	return func(r *Resolver) {
		if s != nil {
			r.sleep = s
		}
	}
}

// WithResolverLogger overrides the logger.
func WithResolverLogger(l Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver over the given profile repository.
func NewResolver(profiles ProfileStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		profiles:   profiles,
		retryDelay: DefaultRetryDelay,
		sleep:      defaultSleep,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Resolve produces the Profile for the session's subject. It returns a
// resolution failure only when the query errors twice; it never returns
// both a profile and an error.
func (r *Resolver) Resolve(ctx context.Context, sess *Session) (*Profile, error) {
	if sess == nil || sess.Subject == "" {
		return nil, ErrProfileResolution.WithMetadata(map[string]any{
			"reason": "session has no subject",
		})
	}

	record, err := r.profiles.GetByID(ctx, sess.Subject)
	if err == nil {
		return record, nil
	}

	if repository.IsRecordNotFound(err) {
		// Provisioning lag, not a failure. Build from session metadata.
		return r.fallbackProfile(sess), nil
	}

	r.logger.Warn("profile query failed, retrying once: %v", err)

	if err := r.sleep(ctx, r.retryDelay); err != nil {
		return nil, goerrors.Wrap(err, ErrProfileResolution.Category, ErrProfileResolution.Message).
			WithTextCode(ErrProfileResolution.TextCode)
	}

	record, err = r.profiles.GetByID(ctx, sess.Subject)
	if err == nil {
		return record, nil
	}

	if repository.IsRecordNotFound(err) {
		return r.fallbackProfile(sess), nil
	}

	return nil, goerrors.Wrap(err, ErrProfileResolution.Category, ErrProfileResolution.Message).
		WithTextCode(ErrProfileResolution.TextCode).
		WithMetadata(map[string]any{"subject": sess.Subject})
}

// fallbackProfile builds a Profile from session-attached metadata for
// subjects whose profile row does not exist yet.
func (r *Resolver) fallbackProfile(sess *Session) *Profile {
	role, ok := sess.MetadataRole()
	if !ok {
		role = RoleDonor
	}

	name := sess.MetadataString("name")
	if name == "" {
		name = sess.Email
	}

	id, err := sess.SubjectUUID()
	if err != nil {
		r.logger.Debug("session subject is not a UUID: %s", sess.Subject)
		id = uuid.Nil
	}

	now := time.Now()

	return &Profile{
		ID:        id,
		Role:      role,
		Name:      name,
		Phone:     sess.MetadataString("phone"),
		Email:     sess.Email,
		CreatedAt: &now,
	}
}
