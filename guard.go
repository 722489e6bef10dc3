package session

import (
	"net/http"

	"github.com/goliatone/go-router"
)

// GuardOutcome is one of the guard's terminal render states.
type GuardOutcome int

const (
	// GuardLoading renders a neutral placeholder, no redirect.
	GuardLoading GuardOutcome = iota
	// GuardRedirectLogin sends unauthenticated visitors to the login entry.
	GuardRedirectLogin
	// GuardRedirectFallback sends authenticated-but-unauthorized visitors to
	// the guard's fallback target.
	GuardRedirectFallback
	// GuardAllow renders the protected content.
	GuardAllow
)

// DefaultLoginPath is where unauthenticated visitors are redirected.
var DefaultLoginPath = "/login"

// DefaultFallbackPath is where unauthorized visitors land unless the guard
// overrides it.
var DefaultFallbackPath = "/"

// Evaluate is the guard decision as a pure function of controller state and
// the allowed role set. Loading always wins; an absent user always means
// login, regardless of allowed roles.
func Evaluate(loading bool, user *Profile, allowed []Role) GuardOutcome {
	if loading {
		return GuardLoading
	}

	if user == nil {
		return GuardRedirectLogin
	}

	if !roleAllowed(user.Role, allowed) {
		return GuardRedirectFallback
	}

	return GuardAllow
}

// Guard gates routes on the controller's resolved state.
type Guard struct {
	state        StateReader
	allowed      []Role
	loginPath    string
	fallbackPath string
	logger       Logger
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

// WithLoginPath overrides the login redirect target.
func WithLoginPath(path string) GuardOption {
	return func(g *Guard) {
		if path != "" {
			g.loginPath = path
		}
	}
}

// WithFallbackPath overrides the unauthorized redirect target.
func WithFallbackPath(path string) GuardOption {
	return func(g *Guard) {
		if path != "" {
			g.fallbackPath = path
		}
	}
}

// WithGuardLogger overrides the logger.
func WithGuardLogger(l Logger) GuardOption {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGuard creates a guard allowing the given roles.
func NewGuard(state StateReader, allowed []Role, opts ...GuardOption) *Guard {
	g := &Guard{
		state:        state,
		allowed:      allowed,
		loginPath:    DefaultLoginPath,
		fallbackPath: DefaultFallbackPath,
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// SuperAdminGuard gates a route to the reserved super-admin tier only.
// Authorized admins lacking the tier drop back to the admin landing page.
func SuperAdminGuard(state StateReader, opts ...GuardOption) *Guard {
	return NewGuard(state, []Role{RoleSuperAdmin}, presetOpts("/admin", opts)...)
}

// AdminTierGuard gates a route to the three escalating admin tiers.
// Unauthorized visitors land on their dashboard.
func AdminTierGuard(state StateReader, opts ...GuardOption) *Guard {
	return NewGuard(state, AdminRoles(), presetOpts("/dashboard", opts)...)
}

// CommunityHeadGuard gates a route to community heads. Unauthorized
// visitors land on home.
func CommunityHeadGuard(state StateReader, opts ...GuardOption) *Guard {
	return NewGuard(state, []Role{RoleCommunityHead}, presetOpts("/", opts)...)
}

// presetOpts seeds a preset's own fallback ahead of caller options so
// callers can still override it.
func presetOpts(fallback string, opts []GuardOption) []GuardOption {
	return append([]GuardOption{WithFallbackPath(fallback)}, opts...)
}

// Decide evaluates the guard against the current controller state and
// returns the outcome plus the redirect target when one applies.
func (g *Guard) Decide() (GuardOutcome, string) {
	user, _ := g.state.CurrentUser()
	outcome := Evaluate(g.state.IsLoading(), user, g.allowed)

	switch outcome {
	case GuardRedirectLogin:
		return outcome, g.loginPath
	case GuardRedirectFallback:
		return outcome, g.fallbackPath
	default:
		return outcome, ""
	}
}

// Middleware adapts the guard to go-router. The loading state answers 204
// so clients can retry; redirects use 302.
func (g *Guard) Middleware() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			outcome, target := g.Decide()

			switch outcome {
			case GuardLoading:
				return ctx.NoContent(http.StatusNoContent)
			case GuardRedirectLogin, GuardRedirectFallback:
				g.logger.Debug("guard redirect to %s", target)
				return ctx.Redirect(target, http.StatusFound)
			default:
				return next(ctx)
			}
		}
	}
}
