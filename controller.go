package session

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// ReservedSuperAdminEmail is the single fixed identity whose role assignment
// happens through a backend side effect. Login and registration for it wait
// a settling delay before refreshing so the role has time to land.
var ReservedSuperAdminEmail = "superadmin@sahaaya.org"

// DefaultSettleDelay is the wait applied after the reserved super-admin
// identity authenticates. A fixed sleep is a known fragility: if the backend
// side effect takes longer, the first refresh reads a stale role. Rather
// than fail hard, the next auth-state notification corrects it.
var DefaultSettleDelay = 500 * time.Millisecond

// Controller owns currentUser/isLoading state and orchestrates the Store and
// Resolver. All state mutation is mutex-guarded; overlapping refreshes run
// to completion with last-write-wins semantics, which is an accepted benign
// race under rapid session churn.
type Controller struct {
	store    Store
	resolver *Resolver
	profiles ProfileStore
	audit    *Recorder
	logger   Logger
	debug    bool

	reservedEmail string
	settleDelay   time.Duration
	sleep         sleeper

	themes *ThemeFeed

	mu      sync.Mutex
	current *Profile
	loading bool
	loaded  bool

	sub Subscription
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithControllerLogger overrides the logger.
func WithControllerLogger(l Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithControllerDebug enables pretty-printed profile dumps on refresh.
func WithControllerDebug(debug bool) ControllerOption {
	return func(c *Controller) {
		c.debug = debug
	}
}

// WithControllerResolver replaces the default resolver.
func WithControllerResolver(r *Resolver) ControllerOption {
	return func(c *Controller) {
		if r != nil {
			c.resolver = r
		}
	}
}

// WithControllerRecorder attaches an audit recorder. Without one, auth
// actions are not audited.
func WithControllerRecorder(r *Recorder) ControllerOption {
	return func(c *Controller) {
		c.audit = r
	}
}

// WithReservedAdminEmail overrides the reserved super-admin identity.
func WithReservedAdminEmail(email string) ControllerOption {
	return func(c *Controller) {
		if email != "" {
			c.reservedEmail = email
		}
	}
}

// WithSettleDelay overrides the settling delay for the reserved identity.
func WithSettleDelay(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d >= 0 {
			c.settleDelay = d
		}
	}
}

// WithControllerSleep injects a sleep function (useful for tests).
func WithControllerSleep(s sleeper) ControllerOption {
	return func(c *Controller) {
		if s != nil {
			c.sleep = s
		}
	}
}

// NewController creates a Controller over the given store and profile
// repository. Call Start to run the initial refresh and subscribe to
// auth-state changes.
func NewController(store Store, profiles ProfileStore, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:         store,
		profiles:      profiles,
		logger:        defLogger{},
		reservedEmail: ReservedSuperAdminEmail,
		settleDelay:   DefaultSettleDelay,
		sleep:         defaultSleep,
		themes:        NewThemeFeed(),
		loading:       true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.resolver == nil {
		c.resolver = NewResolver(profiles, WithResolverLogger(c.logger))
	}

	return c
}

// Start performs the initial refresh and subscribes to the store's
// auth-state notifications. Notifications may fire independently of explicit
// calls here (token refresh, cross-tab sign-out); each one triggers a
// refresh.
func (c *Controller) Start(ctx context.Context) {
	c.Refresh(ctx)

	c.sub = c.store.OnAuthStateChange(func(event AuthEvent, sess *Session) {
		c.logger.Debug("auth state change: %s", event)
		c.Refresh(context.Background())
	})
}

// Close unsubscribes from auth-state notifications.
func (c *Controller) Close() {
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
}

// CurrentUser returns the resolved profile, if any.
func (c *Controller) CurrentUser() (*Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, false
	}
	return c.current.Clone(), true
}

// IsLoading reports whether the initial resolution has not finished yet.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Themes exposes the observable role-derived theme.
func (c *Controller) Themes() *ThemeFeed {
	return c.themes
}

// Refresh fetches the current session and re-resolves the profile. All
// failures are absorbed: a failed resolution logs the error and fails
// closed to "no current user". The loading flag flips to false exactly once,
// after the first refresh completes.
func (c *Controller) Refresh(ctx context.Context) {
	defer c.finishLoading()

	sess, err := c.store.GetSession(ctx)
	if err != nil {
		c.logger.Error("session lookup failed: %v", err)
		c.setCurrent(nil)
		return
	}

	if sess == nil {
		c.setCurrent(nil)
		return
	}

	profile, err := c.resolver.Resolve(ctx, sess)
	if err != nil {
		c.logger.Error("profile resolution failed: %v", err)
		c.setCurrent(nil)
		return
	}

	if c.debug {
		c.logger.Debug("resolved profile:\n%s", print.MaybePrettyJSON(profile))
	}

	c.setCurrent(profile)
}

// Login signs in with email and password. On success the profile state is
// refreshed before returning; failures carry the backend's message when it
// has one.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	sess, err := c.store.SignInWithPassword(ctx, email, password)
	if err != nil {
		c.logger.Error("login failed for %s: %v", email, err)
		return authenticationError(err)
	}

	if err := c.settleIfReserved(ctx, email); err != nil {
		return authenticationError(err)
	}

	c.Refresh(ctx)

	c.record(AuditLogin, WithActor(subjectOf(sess)), WithDescription("user signed in"))

	return nil
}

// Register signs up a new account. When the backend grants a session
// immediately, a profile row is upserted for the new subject; when email
// confirmation is pending, Register returns without touching profiles or
// state; the profile write happens after confirmation, once a session
// exists.
func (c *Controller) Register(ctx context.Context, input RegisterInput) error {
	if err := input.Validate(); err != nil {
		return registrationError(err)
	}

	res, err := c.store.SignUp(ctx, input.Email, input.Password, input.metadata())
	if err != nil {
		c.logger.Error("registration failed for %s: %v", input.Email, err)
		return registrationError(err)
	}

	if res.UserID == "" {
		return ErrRegistrationFailed
	}

	if res.Session == nil {
		c.logger.Info("registration pending email confirmation: %s", input.Email)
		return nil
	}

	c.upsertProfile(ctx, res.UserID, input)

	if err := c.settleIfReserved(ctx, input.Email); err != nil {
		return registrationError(err)
	}

	c.Refresh(ctx)

	c.record(AuditRegister,
		WithActor(res.UserID),
		WithDescription("user registered"),
		WithAuditMetadata(map[string]any{"role": input.Role}),
	)

	return nil
}

// Logout signs out and unconditionally clears the current user, even when
// the backend reports a sign-out failure.
func (c *Controller) Logout(ctx context.Context) {
	actor := ""
	if current, ok := c.CurrentUser(); ok {
		actor = current.ID.String()
	}

	if err := c.store.SignOut(ctx); err != nil {
		c.logger.Warn("sign-out reported failure, clearing state anyway: %v", err)
	}

	c.setCurrent(nil)

	c.record(AuditLogout, WithActor(actor), WithDescription("user signed out"))
}

// upsertProfile writes the profile row for a freshly registered subject.
// The reserved identity's role is managed elsewhere, so its upsert omits the
// role field. Failures are logged but never fail the registration.
func (c *Controller) upsertProfile(ctx context.Context, userID string, input RegisterInput) {
	id, err := uuid.Parse(userID)
	if err != nil {
		c.logger.Warn("profile upsert skipped, subject is not a UUID: %s", userID)
		return
	}

	phone, _ := input.normalizedPhone()

	record := &Profile{
		ID:    id,
		Name:  input.Name,
		Phone: phone,
		Email: input.Email,
	}

	if !c.isReserved(input.Email) {
		record.Role = input.Role
	}

	if _, err := c.profiles.Upsert(ctx, record); err != nil {
		c.logger.Warn("profile upsert failed for %s: %v", userID, err)
	}
}

func (c *Controller) settleIfReserved(ctx context.Context, email string) error {
	if !c.isReserved(email) {
		return nil
	}

	c.logger.Debug("reserved identity, waiting %s for role assignment", c.settleDelay)

	if err := c.sleep(ctx, c.settleDelay); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "interrupted while settling reserved identity")
	}

	return nil
}

func (c *Controller) isReserved(email string) bool {
	return strings.EqualFold(strings.TrimSpace(email), c.reservedEmail)
}

// setCurrent replaces the current profile and projects the role change onto
// the theme feed. Later-completing writes win.
func (c *Controller) setCurrent(p *Profile) {
	c.mu.Lock()
	c.current = p
	c.mu.Unlock()

	theme := ThemeNone
	if p != nil {
		theme = ThemeForRole(p.Role)
	}
	c.themes.publish(theme)
}

func (c *Controller) finishLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.loaded = true
		c.loading = false
	}
}

func (c *Controller) record(action AuditAction, opts ...AuditOption) {
	if c.audit == nil {
		return
	}
	c.audit.Record(action, opts...)
}

func subjectOf(sess *Session) string {
	if sess == nil {
		return ""
	}
	return sess.Subject
}

var _ StateReader = (*Controller)(nil)
