package session_test

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/mock"

	session "github.com/sahaaya/go-session"
)

// MockStore implements session.Store
type MockStore struct {
	mock.Mock

	handlers []session.AuthStateHandler
}

func (m *MockStore) GetSession(ctx context.Context) (*session.Session, error) {
	args := m.Called(ctx)
	sess, _ := args.Get(0).(*session.Session)
	return sess, args.Error(1)
}

func (m *MockStore) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	args := m.Called(ctx, email, password)
	sess, _ := args.Get(0).(*session.Session)
	return sess, args.Error(1)
}

func (m *MockStore) SignUp(ctx context.Context, email, password string, metadata map[string]any) (session.SignUpResult, error) {
	args := m.Called(ctx, email, password, metadata)
	res, _ := args.Get(0).(session.SignUpResult)
	return res, args.Error(1)
}

func (m *MockStore) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) OnAuthStateChange(handler session.AuthStateHandler) session.Subscription {
	m.handlers = append(m.handlers, handler)
	return nopSubscription{}
}

// Fire delivers an auth-state notification to every registered handler.
func (m *MockStore) Fire(event session.AuthEvent, sess *session.Session) {
	for _, h := range m.handlers {
		h(event, sess)
	}
}

type nopSubscription struct{}

func (nopSubscription) Unsubscribe() {}

// MockProfileStore implements session.ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*session.Profile, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*session.Profile)
	return record, args.Error(1)
}

func (m *MockProfileStore) Upsert(ctx context.Context, record *session.Profile, criteria ...repository.UpdateCriteria) (*session.Profile, error) {
	args := m.Called(ctx, record)
	out, _ := args.Get(0).(*session.Profile)
	return out, args.Error(1)
}

// MockAccountStore implements session.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) GetByEmail(ctx context.Context, email string) (*session.Account, error) {
	args := m.Called(ctx, email)
	record, _ := args.Get(0).(*session.Account)
	return record, args.Error(1)
}

func (m *MockAccountStore) Create(ctx context.Context, record *session.Account, criteria ...repository.InsertCriteria) (*session.Account, error) {
	args := m.Called(ctx, record)
	out, _ := args.Get(0).(*session.Account)
	return out, args.Error(1)
}

// MockAuditSink implements session.AuditSink
type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Record(ctx context.Context, entry *session.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// capturingSink collects audit entries without expectations.
type capturingSink struct {
	entries []*session.AuditEntry
}

func (c *capturingSink) Record(ctx context.Context, entry *session.AuditEntry) error {
	c.entries = append(c.entries, entry)
	return nil
}

// noopLogger silences package logging in tests.
type noopLogger struct{}

func (noopLogger) Debug(format string, args ...any) {}
func (noopLogger) Info(format string, args ...any)  {}
func (noopLogger) Warn(format string, args ...any)  {}
func (noopLogger) Error(format string, args ...any) {}
