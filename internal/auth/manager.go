// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/volzer-tui/internal/analytics"
	"github.com/jeranaias/volzer-tui/internal/api"
	"github.com/jeranaias/volzer-tui/internal/events"
	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/security"
	"github.com/jeranaias/volzer-tui/internal/storage"
	"github.com/jeranaias/volzer-tui/internal/util"
	"github.com/jeranaias/volzer-tui/internal/validate"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// User-facing messages.
const (
	MsgLoginSuccess    = "✅ Connexion réussie!"
	MsgRegistered      = "🎉 Compte créé avec succès! Redirection..."
	MsgServerError     = "❌ Erreur de connexion au serveur"
	MsgSessionExpiring = "🕒 Votre session expire bientôt"
	MsgLogoutConfirm   = "Êtes-vous sûr de vouloir vous déconnecter ?"
)

// Routes.
const (
	RouteLogin     = "/login"
	RouteRegister  = "/register"
	RouteDashboard = "/dashboard"
	RouteNewUser   = "/login?new_user=true"
)

// Delays and timeouts.
const (
	DefaultRequestTimeout   = 10 * time.Second
	ErrorDismissDelay       = 5 * time.Second
	HighlightDuration       = 2 * time.Second
	LoginRedirectDelay      = time.Second
	RegisterRedirectDelay   = 2 * time.Second
	ExistingSessionRedirect = 500 * time.Millisecond
)

var (
	// ErrBusy is returned when a submission is already in flight.
	ErrBusy = errors.New("a request is already in progress")

	// ErrNotAuthenticated is returned when no valid session exists.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// RejectedError is a well-formed refusal from the backend.
type RejectedError struct {
	Message   string
	Remaining int
	Locked    bool
}

// Error implements the error interface.
func (e *RejectedError) Error() string { return e.Message }

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Backend is the part of api.Client the manager uses.
type Backend interface {
	Register(ctx context.Context, data model.RegistrationData) (*api.Response, error)
	Login(ctx context.Context, creds model.Credentials) (*api.Response, error)
	CheckAuth(ctx context.Context) (*api.Response, error)
	GetUser(ctx context.Context, id model.UserID) (*api.UserResponse, error)
	Logout(ctx context.Context) error
	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
	ClearCookies()
}

// Timer is a pending scheduled call. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler runs delayed work such as redirects and message dismissal.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules with time.AfterFunc.
type RealScheduler struct{}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Deps are the collaborators of a Manager. All are required.
type Deps struct {
	Store     storage.Adapter
	Lockout   *security.LockoutManager
	Analytics *analytics.Recorder
	Backend   Backend
	Bus       *events.Bus
}

// Option configures a Manager.
type Option func(*Manager)

// WithScheduler replaces the timer source, for tests.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) {
		if s != nil {
			m.sched = s
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRequestTimeout bounds each backend call.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager orchestrates login, registration and logout. It owns the
// single in-flight guard and publishes every UI change on the bus.
type Manager struct {
	store     storage.Adapter
	lockout   *security.LockoutManager
	analytics *analytics.Recorder
	backend   Backend
	bus       *events.Bus
	sched     Scheduler
	now       func() time.Time
	timeout   time.Duration
	logger    *slog.Logger

	mu         sync.Mutex
	processing bool
	route      string
	timers     map[uint64]Timer
	nextTimer  uint64
	closed     bool
}

// New creates a manager.
func New(deps Deps, opts ...Option) *Manager {
	m := &Manager{
		store:     deps.Store,
		lockout:   deps.Lockout,
		analytics: deps.Analytics,
		backend:   deps.Backend,
		bus:       deps.Bus,
		sched:     RealScheduler{},
		now:       time.Now,
		timeout:   DefaultRequestTimeout,
		logger:    slog.Default(),
		route:     RouteLogin,
		timers:    make(map[uint64]Timer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetRoute records the current screen, including any query string.
func (m *Manager) SetRoute(route string) {
	m.mu.Lock()
	m.route = route
	m.mu.Unlock()
}

// Route returns the current screen.
func (m *Manager) Route() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.route
}

// Processing reports whether a submission is in flight.
func (m *Manager) Processing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processing
}

// Close cancels pending redirects and dismissals.
func (m *Manager) Close() {
	m.mu.Lock()
	timers := m.timers
	m.timers = nil
	m.closed = true
	m.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
}

// begin takes the in-flight guard. It fails when a request is already
// running or the lockout is active; neither case has side effects beyond
// re-announcing the lockout.
func (m *Manager) begin() error {
	m.mu.Lock()
	if m.processing {
		m.mu.Unlock()
		return ErrBusy
	}
	m.mu.Unlock()

	if m.lockout.CheckLockout() {
		return security.ErrLocked
	}

	m.mu.Lock()
	if m.processing {
		m.mu.Unlock()
		return ErrBusy
	}
	m.processing = true
	m.mu.Unlock()

	m.bus.Publish(events.Processing{Active: true})
	return nil
}

func (m *Manager) end(loaderShown bool) {
	m.mu.Lock()
	m.processing = false
	m.mu.Unlock()
	m.bus.Publish(events.Processing{Active: false})
	if loaderShown {
		m.bus.Publish(events.Loader{Visible: false})
	}
}

// =============================================================================
// LOGIN
// =============================================================================

// HandleLogin submits credentials.
//
// It returns ErrBusy or security.ErrLocked without doing anything when a
// request is in flight or the lockout is active, a *validate.FieldError
// when the form is incomplete, a *RejectedError when the backend refuses
// the credentials, and an *api.TransportError when the backend could not
// be reached. On success the session is persisted and a redirect is
// scheduled.
func (m *Manager) HandleLogin(ctx context.Context, creds model.Credentials) error {
	if err := m.begin(); err != nil {
		return err
	}
	m.track(analytics.EventLoginAttempt, nil)

	creds = validate.NormalizeCredentials(creds)
	if err := validate.Login(creds); err != nil {
		m.ShowMessage(events.KindError, err.Error())
		m.end(false)
		return err
	}

	m.bus.Publish(events.Loader{Visible: true})
	defer m.end(true)

	reqCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.backend.Login(reqCtx, creds)
	if err == nil && resp.Success && resp.User == nil {
		err = &api.TransportError{Op: "POST " + api.PathLogin, Err: fmt.Errorf("%w: success without user", api.ErrMalformed)}
	}
	switch {
	case err != nil:
		m.logger.Error("login request failed", "error", err)
		m.ShowMessage(events.KindError, MsgServerError)
		m.track(analytics.EventLoginError, nil)
		return err
	case resp.Success:
		return m.loginSucceeded(*resp.User, creds.Remember)
	default:
		return m.loginFailed(creds)
	}
}

func (m *Manager) loginSucceeded(user model.UserRecord, remember bool) error {
	m.track(analytics.EventLoginSuccess, nil)
	m.ShowMessage(events.KindSuccess, MsgLoginSuccess)

	if err := m.saveSession(user, remember); err != nil {
		m.logger.Error("session not persisted", "error", err)
	}
	if err := m.lockout.Reset(); err != nil {
		m.logger.Warn("lockout reset failed", "error", err)
	}

	m.redirectAfter(LoginRedirectDelay, m.loginTarget())
	m.logger.Info("login succeeded", "user_id", user.ID)
	return nil
}

func (m *Manager) loginFailed(creds model.Credentials) error {
	st, err := m.lockout.RecordFailure()
	if err != nil {
		m.logger.Error("failure not recorded", "error", err)
	}
	m.track(analytics.EventLoginFailed, map[string]any{"email": creds.Email})
	m.logger.Info("login rejected", "email", util.MaskEmail(creds.Email), "attempts", st.FailedAttempts)

	rej := &RejectedError{Remaining: st.Remaining(), Locked: st.Remaining() == 0}
	if rej.Remaining > 0 {
		rej.Message = fmt.Sprintf("❌ Identifiants incorrects. %d tentatives restantes.", rej.Remaining)
	} else {
		rej.Message = fmt.Sprintf("🔒 Compte temporairement verrouillé. Réessayez dans %d minutes.",
			int(m.lockout.LockoutDuration().Minutes()))
	}
	m.ShowMessage(events.KindError, rej.Message)

	var empty []string
	if creds.Email == "" {
		empty = append(empty, validate.FieldEmail)
	}
	if creds.Password == "" {
		empty = append(empty, validate.FieldPassword)
	}
	if len(empty) > 0 {
		m.bus.Publish(events.FieldHighlight{Fields: empty, Duration: HighlightDuration})
	}
	return rej
}

// loginTarget is the redirect query parameter of the current route when
// it names a local route, else the dashboard.
func (m *Manager) loginTarget() string {
	u, err := url.Parse(m.Route())
	if err != nil {
		return RouteDashboard
	}
	to := u.Query().Get("redirect")
	if !strings.HasPrefix(to, "/") || strings.HasPrefix(to, "//") {
		return RouteDashboard
	}
	return to
}

func (m *Manager) saveSession(user model.UserRecord, remember bool) error {
	now := m.now()
	cookies := model.FromHTTPCookies(m.backend.Cookies())

	return m.store.Update(func(tx storage.Tx) error {
		if err := storage.Put(tx, storage.User, user, now); err != nil {
			return err
		}
		if err := storage.Put(tx, storage.LastUsedEmail, user.Email, now); err != nil {
			return err
		}
		if err := storage.Put(tx, storage.LoginTime, now.UTC(), now); err != nil {
			return err
		}
		if remember {
			if err := storage.Put(tx, storage.RememberMe, true, now); err != nil {
				return err
			}
		}
		if err := storage.Put(tx, storage.Preferences, model.DefaultPreferences(now), now); err != nil {
			return err
		}
		return storage.Put(tx, storage.SessionCookies, cookies, now)
	})
}

// =============================================================================
// REGISTRATION
// =============================================================================

// HandleRegistration submits a registration form. Errors follow
// HandleLogin, except that a backend refusal carries the backend's message.
func (m *Manager) HandleRegistration(ctx context.Context, form model.RegistrationForm) error {
	if err := m.begin(); err != nil {
		return err
	}
	m.track(analytics.EventRegisterAttempt, nil)

	data := validate.NormalizeRegistration(form)
	if err := validate.Registration(data); err != nil {
		m.ShowMessage(events.KindError, err.Error())
		var fe *validate.FieldError
		if errors.As(err, &fe) && fe.Field != "" {
			m.bus.Publish(events.FieldError{Field: fe.Field, Message: fe.Message})
		}
		m.end(false)
		return err
	}

	m.bus.Publish(events.Loader{Visible: true})
	defer m.end(true)

	reqCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.backend.Register(reqCtx, data)
	switch {
	case err != nil:
		m.logger.Error("register request failed", "error", err)
		m.ShowMessage(events.KindError, MsgServerError)
		m.track(analytics.EventRegisterError, nil)
		return err
	case resp.Success:
		m.track(analytics.EventRegisterSuccess, nil)
		m.ShowMessage(events.KindSuccess, MsgRegistered)
		if err := storage.Set(m.store, storage.Preferences, model.DefaultPreferences(m.now())); err != nil {
			m.logger.Warn("preferences not persisted", "error", err)
		}
		if err := m.lockout.Reset(); err != nil {
			m.logger.Warn("lockout reset failed", "error", err)
		}
		m.redirectAfter(RegisterRedirectDelay, RouteNewUser)
		return nil
	default:
		m.track(analytics.EventRegisterFailed, nil)
		m.ShowMessage(events.KindError, resp.Message)
		return &RejectedError{Message: resp.Message}
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Status is the locally persisted view of the session.
type Status struct {
	IsAuthenticated bool              `json:"is_authenticated"`
	User            *model.UserRecord `json:"user,omitempty"`
	LoginTime       *time.Time        `json:"login_time,omitempty"`
}

// AuthStatus reads the persisted session.
func (m *Manager) AuthStatus() (Status, error) {
	var st Status
	err := m.store.View(func(tx storage.Tx) error {
		u, ok, err := storage.Lookup(tx, storage.User)
		if err != nil {
			return err
		}
		if ok {
			st.IsAuthenticated = true
			st.User = &u
		}
		t, ok, err := storage.Lookup(tx, storage.LoginTime)
		if err != nil {
			return err
		}
		if ok {
			st.LoginTime = &t
		}
		return nil
	})
	return st, err
}

// CurrentUser returns the persisted user, if any.
func (m *Manager) CurrentUser() (model.UserRecord, bool) {
	u, err := storage.Get(m.store, storage.User)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Warn("session unreadable", "error", err)
		}
		return model.UserRecord{}, false
	}
	return u, true
}

// CheckExistingSession schedules a redirect to the dashboard when a user
// is already signed in and route is the login or registration screen.
func (m *Manager) CheckExistingSession(route string) bool {
	if _, ok := m.CurrentUser(); !ok {
		return false
	}
	path := route
	if u, err := url.Parse(route); err == nil {
		path = u.Path
	}
	if path != RouteLogin && path != RouteRegister {
		return false
	}
	m.logger.Info("existing session, redirecting", "from", path)
	m.redirectAfter(ExistingSessionRedirect, RouteDashboard)
	return true
}

// RestoreCookies loads the persisted backend cookies into the client.
func (m *Manager) RestoreCookies() {
	cookies, err := storage.Get(m.store, storage.SessionCookies)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Warn("session cookies unreadable", "error", err)
		}
		return
	}
	m.backend.SetCookies(model.HTTPCookies(cookies))
}

// Remembered returns the email to pre-fill and whether "remember me" was
// ticked on a previous login.
func (m *Manager) Remembered() (email string, remember bool) {
	_ = m.store.View(func(tx storage.Tx) error {
		remember, _, _ = storage.Lookup(tx, storage.RememberMe)
		if remember {
			email, _, _ = storage.Lookup(tx, storage.LastUsedEmail)
		}
		return nil
	})
	return email, remember
}

// Logout ends the session locally and on the backend. Backend errors are
// logged and otherwise ignored. Confirmation is the caller's job.
func (m *Manager) Logout(ctx context.Context) error {
	m.track(analytics.EventUserLogout, nil)

	reqCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.backend.Logout(reqCtx); err != nil {
		m.logger.Warn("backend logout failed", "error", err)
	}
	m.backend.ClearCookies()

	if err := storage.Remove(m.store, storage.User, storage.LoginTime, storage.SessionCookies); err != nil {
		return err
	}
	m.logger.Info("logged out")
	m.bus.Publish(events.Redirect{To: RouteLogin})
	return nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// ShowMessage publishes a message. Errors are dismissed after
// ErrorDismissDelay; other kinds stay until dismissed or replaced.
func (m *Manager) ShowMessage(kind events.MessageKind, text string) string {
	msg := events.Message{ID: uuid.NewString(), Kind: kind, Text: text}
	if kind == events.KindError {
		msg.AutoDismiss = ErrorDismissDelay
	}
	m.bus.Publish(msg)
	if msg.AutoDismiss > 0 {
		m.schedule(msg.AutoDismiss, func() { m.DismissMessage(msg.ID) })
	}
	return msg.ID
}

// DismissMessage removes a message.
func (m *Manager) DismissMessage(id string) {
	m.bus.Publish(events.MessageDismissed{ID: id})
}

func (m *Manager) redirectAfter(d time.Duration, to string) {
	m.schedule(d, func() {
		m.SetRoute(to)
		m.bus.Publish(events.Redirect{To: to})
	})
}

// schedule runs f after d. A fired timer removes itself from the pending
// set; Close stops whatever is left.
func (m *Manager) schedule(d time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.nextTimer++
	id := m.nextTimer
	m.timers[id] = m.sched.AfterFunc(d, func() {
		m.mu.Lock()
		delete(m.timers, id)
		m.mu.Unlock()
		f()
	})
}

func (m *Manager) track(name string, data map[string]any) {
	if m.analytics != nil {
		m.analytics.Track(name, data)
	}
}
