// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/volzer-tui/internal/analytics"
	"github.com/jeranaias/volzer-tui/internal/auth"
	"github.com/jeranaias/volzer-tui/internal/events"
	"github.com/jeranaias/volzer-tui/internal/offline"
	"github.com/jeranaias/volzer-tui/internal/security"
	"github.com/jeranaias/volzer-tui/internal/session"
	"github.com/jeranaias/volzer-tui/internal/storage"
	"github.com/jeranaias/volzer-tui/internal/ui/components"
	"github.com/jeranaias/volzer-tui/internal/ui/styles"
	"github.com/jeranaias/volzer-tui/internal/validate"
)

// MetricPageLoad is the performance metric recorded on first render.
const MetricPageLoad = "auth_page_load"

// sessionWarningID identifies the session warning on the message surface.
const sessionWarningID = "session-warning"

// Screen is the page currently shown.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenRegister
	ScreenDashboard
)

// =============================================================================
// MESSAGES
// =============================================================================

type submitDoneMsg struct {
	err error
}

type dashboardMsg struct {
	dash auth.Dashboard
	err  error
}

type logoutDoneMsg struct {
	err error
}

type pageLoadedMsg struct {
	at time.Time
}

// refreshMsg forces a render after a timed visual state expires.
type refreshMsg struct{}

func refreshAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return refreshMsg{} })
}

// =============================================================================
// MODEL
// =============================================================================

// Deps are the collaborators of the TUI. Session is optional.
type Deps struct {
	Auth      *auth.Manager
	Lockout   *security.LockoutManager
	Analytics *analytics.Recorder
	Bus       *events.Bus
	Theme     *styles.Theme
	Session   *session.Watcher

	// ShowConnectivity enables the connectivity section of the status bar.
	ShowConnectivity bool

	// Started is when the process started, for the page load metric.
	Started time.Time

	Now    func() time.Time
	Logger *slog.Logger
}

// Model is the root bubbletea model.
type Model struct {
	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc
	bridge *Bridge
	keys   KeyMap
	now    func() time.Time
	logger *slog.Logger

	screen Screen
	route  string
	width  int
	height int

	login    *loginForm
	register *registerForm

	dash        *auth.Dashboard
	dashLoading bool
	dashErr     string

	confirmLogout bool

	messages *components.MessageSurface
	overlay  components.LockoutOverlay
	status   *components.StatusBar
	spinner  spinner.Model

	loading        bool
	processing     bool
	pageLoadLogged bool
}

// New creates the model showing route.
func New(deps Deps, route string) *Model {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Started.IsZero() {
		deps.Started = now()
	}

	ctx, cancel := context.WithCancel(context.Background())
	theme := deps.Theme

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Spinner),
	)

	status := components.NewStatusBar(theme, offline.StatusDisplay)
	status.SetEnabled(deps.ShowConnectivity)

	m := &Model{
		deps:     deps,
		ctx:      ctx,
		cancel:   cancel,
		bridge:   NewBridge(deps.Bus, DefaultBridgeBuffer),
		keys:     DefaultKeyMap(),
		now:      now,
		logger:   logger,
		messages: components.NewMessageSurface(theme),
		overlay:  components.NewLockoutOverlay(theme),
		status:   status,
		spinner:  sp,
		route:    route,
	}
	m.applyRoute(route)
	return m
}

// Close releases the bus subscriptions and cancels in-flight requests.
func (m *Model) Close() {
	m.bridge.Close()
	m.cancel()
}

// Screen returns the page shown.
func (m *Model) Screen() Screen { return m.screen }

// Route returns the current route.
func (m *Model) Route() string { return m.route }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	now := m.now
	cmds := []tea.Cmd{
		m.bridge.Wait(),
		func() tea.Msg { return pageLoadedMsg{at: now()} },
		m.enterRoute(),
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// ROUTING
// =============================================================================

func routePath(route string) string {
	u, err := url.Parse(route)
	if err != nil {
		return route
	}
	return u.Path
}

// applyRoute builds the screen for route without side effects.
func (m *Model) applyRoute(route string) {
	m.route = route
	m.confirmLogout = false

	switch routePath(route) {
	case auth.RouteRegister:
		m.screen = ScreenRegister
		m.register = newRegisterForm()
		setFocus(m.register.inputs(), &m.register.focus, 0, registerSlots)
	case auth.RouteDashboard:
		m.screen = ScreenDashboard
		m.dash = nil
		m.dashErr = ""
	case auth.RouteLogin:
		m.screen = ScreenLogin
		email, remember := m.deps.Auth.Remembered()
		m.login = newLoginForm(email, remember)
		setFocus(m.login.inputs(), &m.login.focus, m.login.focus, loginSlots)
	default:
		if _, ok := m.deps.Auth.CurrentUser(); ok {
			m.applyRoute(auth.RouteDashboard)
		} else {
			m.applyRoute(auth.RouteLogin)
		}
	}
}

// enterRoute runs what loading the current route does: the session and
// lockout checks on the forms, the profile fetch on the dashboard.
func (m *Model) enterRoute() tea.Cmd {
	m.deps.Auth.SetRoute(m.route)

	switch m.screen {
	case ScreenDashboard:
		m.dashLoading = true
		mgr, ctx := m.deps.Auth, m.ctx
		return tea.Batch(m.spinner.Tick, func() tea.Msg {
			d, err := mgr.LoadDashboard(ctx)
			return dashboardMsg{dash: d, err: err}
		})
	default:
		m.deps.Auth.CheckExistingSession(m.route)
		if m.screen == ScreenLogin {
			m.deps.Lockout.CheckLockout()
		}
		return nil
	}
}

// navigate switches to route and runs its load logic.
func (m *Model) navigate(route string) tea.Cmd {
	m.applyRoute(route)
	return m.enterRoute()
}

// reload re-enters the current route, as a page reload would.
func (m *Model) reload() tea.Cmd {
	m.overlay.Hide()
	return m.navigate(m.route)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.deps.Theme.SetSize(msg.Width, msg.Height)
		m.overlay.SetSize(msg.Width, msg.Height)
		m.status.Width = msg.Width
		w := msg.Width - 4
		if w > 72 {
			w = 72
		}
		m.messages.SetWidth(w)
		return m, nil

	case pageLoadedMsg:
		if !m.pageLoadLogged {
			m.pageLoadLogged = true
			ms := float64(msg.at.Sub(m.deps.Started)) / float64(time.Millisecond)
			m.deps.Analytics.TrackPerformance(MetricPageLoad, ms)
		}
		return m, nil

	case busMsg:
		return m, tea.Batch(m.handleEvent(msg.ev), m.bridge.Wait())

	case spinner.TickMsg:
		if !m.loading && !m.dashLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.LockoutTickMsg:
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd

	case components.LockoutExpiredMsg, components.LockoutRetryMsg:
		return m, m.reload()

	case submitDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, auth.ErrBusy) {
			m.logger.Debug("submit finished", "error", msg.err)
		}
		return m, nil

	case dashboardMsg:
		m.dashLoading = false
		switch {
		case msg.err == nil:
			d := msg.dash
			m.dash = &d
		case errors.Is(msg.err, auth.ErrNotAuthenticated):
			// the redirect event takes over
		default:
			m.dashErr = auth.MsgServerError
		}
		return m, nil

	case logoutDoneMsg:
		if msg.err != nil {
			m.logger.Error("logout failed", "error", msg.err)
			m.deps.Auth.ShowMessage(events.KindError, auth.MsgServerError)
		}
		return m, nil

	case refreshMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleEvent applies one bus event.
func (m *Model) handleEvent(ev any) tea.Cmd {
	now := m.now()

	switch ev := ev.(type) {
	case events.Message:
		m.messages.Show(ev)

	case events.MessageDismissed:
		m.messages.Dismiss(ev.ID)

	case events.Loader:
		m.loading = ev.Visible
		if ev.Visible {
			return m.spinner.Tick
		}

	case events.Processing:
		m.processing = ev.Active

	case events.Redirect:
		return m.navigate(ev.To)

	case events.LockoutStarted:
		wasVisible := m.overlay.IsVisible()
		m.overlay.Show(ev.Until, now)
		if !wasVisible {
			return components.LockoutTick()
		}

	case events.LockoutCleared:
		m.overlay.Hide()

	case events.FieldHighlight:
		for _, name := range ev.Fields {
			if f := m.field(name); f != nil {
				f.Highlight(now.Add(ev.Duration))
			}
		}
		return refreshAfter(ev.Duration)

	case events.FieldError:
		if ev.Field == validate.FieldProgram && m.register != nil {
			m.register.programErr = ev.Message
		} else if f := m.field(ev.Field); f != nil {
			f.SetError(ev.Message)
		}

	case events.SessionWarning:
		m.messages.Show(events.Message{
			ID:   sessionWarningID,
			Kind: events.KindWarning,
			Text: auth.MsgSessionExpiring,
		})

	case events.ConnectivityChanged:
		m.status.ShowConnectivity(ev.Online, ev.Status, now)
		return refreshAfter(offline.StatusDisplay)

	case events.StorageChanged:
		return m.storageChanged(ev.Keys)
	}
	return nil
}

// storageChanged follows writes made by another volzer process.
func (m *Model) storageChanged(keys []string) tea.Cmd {
	if slices.Contains(keys, storage.LockoutUntil.Name()) || slices.Contains(keys, storage.FailedAttempts.Name()) {
		if !m.deps.Lockout.CheckLockout() && m.overlay.IsVisible() {
			m.overlay.Hide()
		}
	}
	if !slices.Contains(keys, storage.User.Name()) {
		return nil
	}

	_, signedIn := m.deps.Auth.CurrentUser()
	switch {
	case m.screen == ScreenDashboard && !signedIn:
		return m.navigate(auth.RouteLogin)
	case m.screen != ScreenDashboard && signedIn:
		m.deps.Auth.CheckExistingSession(m.route)
	}
	return nil
}

// field looks a form field up by name on the current screen.
func (m *Model) field(name string) *components.Field {
	switch m.screen {
	case ScreenLogin:
		if f := m.login.field(name); f != nil {
			return f
		}
	case ScreenRegister:
		if f := m.register.field(name); f != nil {
			return f
		}
	}
	return nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.overlay.IsVisible() {
		if msg.String() == "q" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, m.keys.Dismiss) && !m.confirmLogout {
		if cur, ok := m.messages.Current(); ok {
			m.messages.Clear()
			if cur.ID == sessionWarningID && m.deps.Session != nil {
				m.deps.Session.DismissWarning()
			}
			return m, nil
		}
	}

	switch m.screen {
	case ScreenLogin:
		return m, m.loginKey(msg)
	case ScreenRegister:
		return m, m.registerKey(msg)
	default:
		return m, m.dashboardKey(msg)
	}
}

func (m *Model) loginKey(msg tea.KeyMsg) tea.Cmd {
	f := m.login
	inputs := f.inputs()

	switch {
	case key.Matches(msg, m.keys.Next):
		m.leaveField(focusedInput(inputs, f.focus))
		return setFocus(inputs, &f.focus, f.focus+1, loginSlots)
	case key.Matches(msg, m.keys.Prev):
		m.leaveField(focusedInput(inputs, f.focus))
		return setFocus(inputs, &f.focus, f.focus-1, loginSlots)
	case key.Matches(msg, m.keys.Submit):
		return m.submitLogin()
	case key.Matches(msg, m.keys.SwitchForm):
		return m.navigate(auth.RouteRegister)
	case key.Matches(msg, m.keys.Reveal):
		f.password.ToggleReveal()
		return nil
	case key.Matches(msg, m.keys.Toggle) && f.focus == loginRemember:
		f.remember = !f.remember
		return nil
	}

	if in := focusedInput(inputs, f.focus); in != nil {
		return in.Update(msg)
	}
	return nil
}

func (m *Model) registerKey(msg tea.KeyMsg) tea.Cmd {
	f := m.register
	inputs := f.inputs()

	switch {
	case key.Matches(msg, m.keys.Next):
		m.leaveField(focusedInput(inputs, f.focus))
		return setFocus(inputs, &f.focus, f.focus+1, registerSlots)
	case key.Matches(msg, m.keys.Prev):
		m.leaveField(focusedInput(inputs, f.focus))
		return setFocus(inputs, &f.focus, f.focus-1, registerSlots)
	case key.Matches(msg, m.keys.Submit):
		return m.submitRegistration()
	case key.Matches(msg, m.keys.SwitchForm):
		return m.navigate(auth.RouteLogin)
	case key.Matches(msg, m.keys.Reveal):
		f.password.ToggleReveal()
		f.confirm.ToggleReveal()
		return nil
	case f.focus == registerProgram && key.Matches(msg, m.keys.Left):
		f.cycleProgram(-1)
		return nil
	case f.focus == registerProgram && (key.Matches(msg, m.keys.Right) || key.Matches(msg, m.keys.Toggle)):
		f.cycleProgram(1)
		return nil
	case f.focus == registerNewsletter && key.Matches(msg, m.keys.Toggle):
		f.newsletter = !f.newsletter
		return nil
	}

	in := focusedInput(inputs, f.focus)
	if in == nil {
		return nil
	}
	cmd := in.Update(msg)
	if in == f.password || in == f.confirm {
		f.liveCheck()
	}
	return cmd
}

func (m *Model) dashboardKey(msg tea.KeyMsg) tea.Cmd {
	if m.confirmLogout {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirmLogout = false
			mgr, ctx := m.deps.Auth, m.ctx
			return func() tea.Msg { return logoutDoneMsg{err: mgr.Logout(ctx)} }
		case key.Matches(msg, m.keys.Cancel):
			m.confirmLogout = false
		}
		return nil
	}
	if key.Matches(msg, m.keys.Logout) {
		m.confirmLogout = true
	}
	return nil
}

// leaveField runs the on-blur check of the email field.
func (m *Model) leaveField(f *components.Field) {
	if f != nil && f.Name == validate.FieldEmail {
		f.SetError(validate.EmailField(f.Value()))
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (m *Model) submitLogin() tea.Cmd {
	if m.processing {
		return nil
	}
	creds := m.login.credentials()
	mgr, ctx := m.deps.Auth, m.ctx
	return func() tea.Msg {
		return submitDoneMsg{err: mgr.HandleLogin(ctx, creds)}
	}
}

func (m *Model) submitRegistration() tea.Cmd {
	if m.processing {
		return nil
	}
	for _, in := range m.register.inputs() {
		in.SetError("")
	}
	m.register.programErr = ""
	m.register.liveCheck()

	form := m.register.form()
	mgr, ctx := m.deps.Auth, m.ctx
	return func() tea.Msg {
		return submitDoneMsg{err: mgr.HandleRegistration(ctx, form)}
	}
}
