package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	session "github.com/sahaaya/go-session"
)

func testTokenService(t *testing.T) *session.TokenService {
	t.Helper()
	return session.NewTokenService(testSigningKey, time.Hour, "sahaaya", noopLogger{})
}

func testAccount(t *testing.T, email, password string) *session.Account {
	t.Helper()

	hash, err := session.HashPassword(password)
	require.NoError(t, err)

	return &session.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Metadata:     map[string]any{"role": "donor", "name": "Priya"},
	}
}

func TestLocalStoreSignInWithPassword(t *testing.T) {
	account := testAccount(t, "priya@example.org", "secret-pass")

	accounts := &MockAccountStore{}
	accounts.On("GetByEmail", mock.Anything, "priya@example.org").Return(account, nil)

	store := session.NewLocalStore(accounts, testTokenService(t),
		session.WithLocalStoreLogger(noopLogger{}),
	)

	var events []session.AuthEvent
	store.OnAuthStateChange(func(event session.AuthEvent, sess *session.Session) {
		events = append(events, event)
	})

	sess, err := store.SignInWithPassword(context.Background(), "priya@example.org", "secret-pass")
	require.NoError(t, err)
	require.NotNil(t, sess)

	assert.Equal(t, account.ID.String(), sess.Subject)
	assert.Equal(t, "priya@example.org", sess.Email)
	assert.NotEmpty(t, sess.AccessToken)
	assert.Equal(t, "donor", sess.MetadataString("role"))

	assert.Equal(t, []session.AuthEvent{session.AuthEventSignedIn}, events)

	current, err := store.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess, current)
}

func TestLocalStoreSignInWrongPassword(t *testing.T) {
	account := testAccount(t, "priya@example.org", "secret-pass")

	accounts := &MockAccountStore{}
	accounts.On("GetByEmail", mock.Anything, "priya@example.org").Return(account, nil)

	store := session.NewLocalStore(accounts, testTokenService(t),
		session.WithLocalStoreLogger(noopLogger{}),
	)

	_, err := store.SignInWithPassword(context.Background(), "priya@example.org", "wrong")
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)
}

func TestLocalStoreSignInUnknownAccount(t *testing.T) {
	accounts := &MockAccountStore{}
	accounts.On("GetByEmail", mock.Anything, "ghost@example.org").
		Return(nil, repository.NewRecordNotFound())

	store := session.NewLocalStore(accounts, testTokenService(t),
		session.WithLocalStoreLogger(noopLogger{}),
	)

	_, err := store.SignInWithPassword(context.Background(), "ghost@example.org", "secret-pass")
	assert.ErrorIs(t, err, session.ErrInvalidCredentials,
		"unknown account and bad password are indistinguishable")
}

func TestLocalStoreSignUp(t *testing.T) {
	accounts := &MockAccountStore{}
	accounts.On("GetByEmail", mock.Anything, "Anand@Example.org").
		Return(nil, repository.NewRecordNotFound())
	accounts.On("Create", mock.Anything, mock.MatchedBy(func(a *session.Account) bool {
		return a.Email == "anand@example.org" &&
			a.PasswordHash != "" &&
			a.PasswordHash != "secret-pass" &&
			a.EmailConfirmedAt != nil
	})).Return(&session.Account{
		ID:       uuid.New(),
		Email:    "anand@example.org",
		Metadata: map[string]any{"role": "business"},
	}, nil).Once()

	store := session.NewLocalStore(accounts, testTokenService(t),
		session.WithLocalStoreLogger(noopLogger{}),
	)

	res, err := store.SignUp(context.Background(), "Anand@Example.org", "secret-pass",
		map[string]any{"role": "business"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.UserID)
	require.NotNil(t, res.Session)
	assert.Equal(t, res.UserID, res.Session.Subject)
	assert.Equal(t, "business", res.Session.MetadataString("role"))

	accounts.AssertExpectations(t)
}

func TestLocalStoreSignUpDuplicate(t *testing.T) {
	existing := testAccount(t, "priya@example.org", "secret-pass")

	accounts := &MockAccountStore{}
	accounts.On("GetByEmail", mock.Anything, "priya@example.org").Return(existing, nil)

	store := session.NewLocalStore(accounts, testTokenService(t),
		session.WithLocalStoreLogger(noopLogger{}),
	)

	_, err := store.SignUp(context.Background(), "priya@example.org", "secret-pass", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrAccountExists)
	accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLocalStoreSignUpPendingConfirmation(t *testing.T) {
	id := uuid.New()

	accounts := &MockAccountStore{}
	accounts.On("GetByEmail", mock.Anything, "anand@example.org").
		Return(nil, repository.NewRecordNotFound())
	accounts.On("Create", mock.Anything, mock.MatchedBy(func(a *session.Account) bool {
		return a.EmailConfirmedAt == nil
	})).Return(&session.Account{ID: id, Email: "anand@example.org"}, nil).Once()

	store := session.NewLocalStore(accounts, testTokenService(t),
		session.WithLocalStoreLogger(noopLogger{}),
		session.WithEmailConfirmation(),
	)

	res, err := store.SignUp(context.Background(), "anand@example.org", "secret-pass", nil)
	require.NoError(t, err)

	assert.Equal(t, id.String(), res.UserID)
	assert.Nil(t, res.Session, "no session until the email is confirmed")

	current, err := store.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestLocalStoreSignOut(t *testing.T) {
	account := testAccount(t, "priya@example.org", "secret-pass")

	accounts := &MockAccountStore{}
	accounts.On("GetByEmail", mock.Anything, "priya@example.org").Return(account, nil)

	store := session.NewLocalStore(accounts, testTokenService(t),
		session.WithLocalStoreLogger(noopLogger{}),
	)

	_, err := store.SignInWithPassword(context.Background(), "priya@example.org", "secret-pass")
	require.NoError(t, err)

	var events []session.AuthEvent
	store.OnAuthStateChange(func(event session.AuthEvent, sess *session.Session) {
		events = append(events, event)
		assert.Nil(t, sess)
	})

	require.NoError(t, store.SignOut(context.Background()))

	current, err := store.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Equal(t, []session.AuthEvent{session.AuthEventSignedOut}, events)
}

func TestLocalStoreExpiredSessionIsCleared(t *testing.T) {
	account := testAccount(t, "priya@example.org", "secret-pass")

	accounts := &MockAccountStore{}
	accounts.On("GetByEmail", mock.Anything, "priya@example.org").Return(account, nil)

	now := time.Now()
	store := session.NewLocalStore(accounts, testTokenService(t),
		session.WithLocalStoreLogger(noopLogger{}),
		session.WithLocalStoreClock(func() time.Time { return now }),
	)

	_, err := store.SignInWithPassword(context.Background(), "priya@example.org", "secret-pass")
	require.NoError(t, err)

	// Move the clock past the token lifetime.
	now = now.Add(2 * time.Hour)

	current, err := store.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestLocalStoreRefreshToken(t *testing.T) {
	account := testAccount(t, "priya@example.org", "secret-pass")

	accounts := &MockAccountStore{}
	accounts.On("GetByEmail", mock.Anything, "priya@example.org").Return(account, nil)

	store := session.NewLocalStore(accounts, testTokenService(t),
		session.WithLocalStoreLogger(noopLogger{}),
	)

	first, err := store.SignInWithPassword(context.Background(), "priya@example.org", "secret-pass")
	require.NoError(t, err)

	var events []session.AuthEvent
	store.OnAuthStateChange(func(event session.AuthEvent, sess *session.Session) {
		events = append(events, event)
	})

	refreshed, err := store.RefreshToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Subject, refreshed.Subject)
	assert.Equal(t, []session.AuthEvent{session.AuthEventTokenRefreshed}, events)

	current, err := store.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, refreshed, current)
}

func TestLocalStoreRefreshTokenWithoutSession(t *testing.T) {
	store := session.NewLocalStore(&MockAccountStore{}, testTokenService(t),
		session.WithLocalStoreLogger(noopLogger{}),
	)

	_, err := store.RefreshToken(context.Background())
	assert.ErrorIs(t, err, session.ErrSessionExpired)
}

func TestLocalStoreUnsubscribeStopsNotifications(t *testing.T) {
	account := testAccount(t, "priya@example.org", "secret-pass")

	accounts := &MockAccountStore{}
	accounts.On("GetByEmail", mock.Anything, "priya@example.org").Return(account, nil)

	store := session.NewLocalStore(accounts, testTokenService(t),
		session.WithLocalStoreLogger(noopLogger{}),
	)

	calls := 0
	sub := store.OnAuthStateChange(func(event session.AuthEvent, sess *session.Session) {
		calls++
	})
	sub.Unsubscribe()

	_, err := store.SignInWithPassword(context.Background(), "priya@example.org", "secret-pass")
	require.NoError(t, err)

	assert.Zero(t, calls)
}

func TestLocalStoreLookupFailurePropagates(t *testing.T) {
	accounts := &MockAccountStore{}
	accounts.On("GetByEmail", mock.Anything, "priya@example.org").
		Return(nil, errors.New("connection reset"))

	store := session.NewLocalStore(accounts, testTokenService(t),
		session.WithLocalStoreLogger(noopLogger{}),
	)

	_, err := store.SignInWithPassword(context.Background(), "priya@example.org", "secret-pass")
	require.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrInvalidCredentials)
}
