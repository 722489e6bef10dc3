package session

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// LocalStore is a self-hosted Store backed by a bun accounts table. It
// hashes credentials with bcrypt, mints HS256 access tokens, and fans out
// auth-state notifications to subscribers. Deployments on a hosted backend
// swap it for a client of that service; both sides of the Store interface
// behave the same.
type LocalStore struct {
	accounts AccountStore
	tokens   *TokenService
	logger   Logger
	now      func() time.Time

	// requireConfirmation makes SignUp return without a session, modeling
	// the email-confirmation-required flow.
	requireConfirmation bool

	mu       sync.Mutex
	session  *Session
	handlers map[int]AuthStateHandler
	nextSub  int
}

// LocalStoreOption customizes a LocalStore.
type LocalStoreOption func(*LocalStore)

// WithLocalStoreLogger overrides the logger.
func WithLocalStoreLogger(l Logger) LocalStoreOption {
	return func(s *LocalStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEmailConfirmation makes sign-up withhold the session until the account
// confirms its email out of band.
func WithEmailConfirmation() LocalStoreOption {
	return func(s *LocalStore) {
		s.requireConfirmation = true
	}
}

// WithLocalStoreClock injects a clock (useful for tests).
func WithLocalStoreClock(clock func() time.Time) LocalStoreOption {
	return func(s *LocalStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewLocalStore creates a LocalStore over the given accounts repository and
// token service.
func NewLocalStore(accounts AccountStore, tokens *TokenService, opts ...LocalStoreOption) *LocalStore {
	s := &LocalStore{
		accounts: accounts,
		tokens:   tokens,
		logger:   defLogger{},
		now:      time.Now,
		handlers: map[int]AuthStateHandler{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// GetSession returns the current session, or nil when signed out or the
// token has expired.
func (s *LocalStore) GetSession(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess == nil {
		return nil, nil
	}

	if sess.Expired(s.now()) {
		s.mu.Lock()
		s.session = nil
		s.mu.Unlock()
		return nil, nil
	}

	return sess, nil
}

// SignInWithPassword verifies credentials and establishes a session.
func (s *LocalStore) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, err
	}

	sess, err := s.establish(account)
	if err != nil {
		return nil, err
	}

	s.emit(AuthEventSignedIn, sess)

	return sess, nil
}

// SignUp creates an account, attaching the given metadata. With email
// confirmation enabled the result carries the new user id but no session;
// otherwise the account is signed in immediately.
func (s *LocalStore) SignUp(ctx context.Context, email, password string, metadata map[string]any) (SignUpResult, error) {
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return SignUpResult{}, ErrAccountExists
	} else if !repository.IsRecordNotFound(err) {
		return SignUpResult{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return SignUpResult{}, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	account := &Account{
		ID:           accountID(email),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Metadata:     metadata,
	}

	if !s.requireConfirmation {
		now := s.now()
		account.EmailConfirmedAt = &now
	}

	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		return SignUpResult{}, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	result := SignUpResult{UserID: created.ID.String()}

	if s.requireConfirmation {
		return result, nil
	}

	sess, err := s.establish(created)
	if err != nil {
		return SignUpResult{}, err
	}

	result.Session = sess
	s.emit(AuthEventSignedIn, sess)

	return result, nil
}

// SignOut clears the session. It always succeeds locally.
func (s *LocalStore) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	s.emit(AuthEventSignedOut, nil)

	return nil
}

// OnAuthStateChange registers a handler invoked on every session change.
func (s *LocalStore) OnAuthStateChange(handler AuthStateHandler) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.handlers[id] = handler

	return storeSubscription{store: s, id: id}
}

// RefreshToken re-mints the current session's token, extending expiry and
// emitting a TOKEN_REFRESHED notification.
func (s *LocalStore) RefreshToken(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess == nil {
		return nil, ErrSessionExpired
	}

	token, err := s.tokens.Mint(sess.Subject, sess.Email, sess.Metadata)
	if err != nil {
		return nil, err
	}

	refreshed, err := SessionFromToken(s.tokens, token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.session = refreshed
	s.mu.Unlock()

	s.emit(AuthEventTokenRefreshed, refreshed)

	return refreshed, nil
}

func (s *LocalStore) establish(account *Account) (*Session, error) {
	token, err := s.tokens.Mint(account.ID.String(), account.Email, account.Metadata)
	if err != nil {
		return nil, err
	}

	sess, err := SessionFromToken(s.tokens, token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	return sess, nil
}

func (s *LocalStore) emit(event AuthEvent, sess *Session) {
	s.mu.Lock()
	handlers := make([]AuthStateHandler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(event, sess)
	}
}

// accountID derives a deterministic UUID from the email so repeat sign-ups
// and cross-environment fixtures agree on ids.
func accountID(email string) uuid.UUID {
	if id, err := hashid.NewUUID(strings.ToLower(strings.TrimSpace(email))); err == nil {
		return id
	}
	return uuid.New()
}

type storeSubscription struct {
	store *LocalStore
	id    int
}

func (s storeSubscription) Unsubscribe() {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	delete(s.store.handlers, s.id)
}

var _ Store = (*LocalStore)(nil)
