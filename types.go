package session

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface the package needs. Hosts plug in
// their own implementation; the default writes to stdout.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AuthEvent identifies why an auth-state notification fired.
type AuthEvent string

const (
	AuthEventInitialSession AuthEvent = "INITIAL_SESSION"
	AuthEventSignedIn       AuthEvent = "SIGNED_IN"
	AuthEventSignedOut      AuthEvent = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// AuthStateHandler receives auth-state change notifications. The session is
// nil when the event left the store without an authenticated session.
type AuthStateHandler func(event AuthEvent, sess *Session)

// Subscription is a handle to an auth-state or theme subscription.
type Subscription interface {
	Unsubscribe()
}

// SignUpResult is what a Store returns from SignUp. Session is nil when the
// backend requires email confirmation before granting a session.
type SignUpResult struct {
	UserID  string
	Session *Session
}

// Store is the backend session service. It owns credentials and session
// lifetime; this package only observes sessions, it never persists them.
type Store interface {
	GetSession(ctx context.Context) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (SignUpResult, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(handler AuthStateHandler) Subscription
}

// StateReader is the controller state consumed by route guards and views.
type StateReader interface {
	CurrentUser() (*Profile, bool)
	IsLoading() bool
}

// TokenValidator validates a raw access token and extracts session claims
// without tying callers to a signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (*SessionClaims, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

// sleeper lets tests replace fixed settling delays with a recording stub.
type sleeper func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
