// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/volzer-tui/internal/analytics"
	"github.com/jeranaias/volzer-tui/internal/api"
	"github.com/jeranaias/volzer-tui/internal/auth"
	"github.com/jeranaias/volzer-tui/internal/events"
	"github.com/jeranaias/volzer-tui/internal/mockserver"
	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/security"
	"github.com/jeranaias/volzer-tui/internal/storage"
	"github.com/jeranaias/volzer-tui/internal/ui/components"
	"github.com/jeranaias/volzer-tui/internal/ui/styles"
)

// manualScheduler holds delayed calls until fired.
type manualScheduler struct {
	mu    sync.Mutex
	calls []*manualTimer
}

type manualTimer struct {
	d    time.Duration
	f    func()
	done bool
}

func (t *manualTimer) Stop() bool {
	was := !t.done
	t.done = true
	return was
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) auth.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	s.calls = append(s.calls, t)
	return t
}

func (s *manualScheduler) Fire(d time.Duration) {
	s.mu.Lock()
	var run []func()
	for _, c := range s.calls {
		if c.d == d && !c.done {
			c.done = true
			run = append(run, c.f)
		}
	}
	s.mu.Unlock()
	for _, f := range run {
		f()
	}
}

type harness struct {
	m     *Model
	store storage.Adapter
	bus   *events.Bus
	sched *manualScheduler
	rec   *analytics.Recorder
}

func newHarness(t *testing.T, store storage.Adapter, route string) *harness {
	t.Helper()

	srv := mockserver.New(
		mockserver.WithUserStore(mockserver.NewUserStore(bcrypt.MinCost)),
		mockserver.WithLoginRateLimit(0),
	)
	_, err := srv.Users().Create(model.RegistrationData{
		Prenom: "Élodie", Nom: "Martin", Email: "elodie@volzer.edu",
		Password: "secret1", ConfirmPassword: "secret1", Filiere: "informatique",
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	client, err := api.NewClient(ts.URL, api.WithRateLimit(0))
	require.NoError(t, err)

	bus := events.New()
	t.Cleanup(bus.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lockout := security.NewLockoutManager(store,
		security.WithPublisher(bus),
		security.WithMaxAttempts(2),
		security.WithLogger(logger),
	)
	rec := analytics.NewRecorder(store)
	sched := &manualScheduler{}
	mgr := auth.New(auth.Deps{
		Store:     store,
		Lockout:   lockout,
		Analytics: rec,
		Backend:   client,
		Bus:       bus,
	}, auth.WithScheduler(sched), auth.WithLogger(logger))
	t.Cleanup(mgr.Close)

	m := New(Deps{
		Auth:      mgr,
		Lockout:   lockout,
		Analytics: rec,
		Bus:       bus,
		Theme:     styles.NewThemeFor(io.Discard, styles.ModeDark),
		Logger:    logger,
	}, route)
	t.Cleanup(m.Close)

	return &harness{m: m, store: store, bus: bus, sched: sched, rec: rec}
}

// drain applies every queued bus event.
func (h *harness) drain() {
	for {
		select {
		case msg := <-h.m.bridge.ch:
			h.m.Update(msg)
		default:
			return
		}
	}
}

func (h *harness) press(k tea.KeyMsg) tea.Cmd {
	_, cmd := h.m.Update(k)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestStartsOnLoginWithoutSession(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), "/")

	assert.Equal(t, ScreenLogin, h.m.Screen())
	assert.Equal(t, auth.RouteLogin, h.m.Route())
	view := h.m.View()
	assert.Contains(t, view, Brand)
	assert.Contains(t, view, "Se connecter")
}

func TestStartsOnDashboardWithSession(t *testing.T) {
	store := storage.NewMemoryAdapter()
	require.NoError(t, storage.Set(store, storage.User, model.UserRecord{ID: "1", Prenom: "Élodie"}))

	h := newHarness(t, store, "/")
	assert.Equal(t, ScreenDashboard, h.m.Screen())
}

func TestRememberedEmailIsPrefilled(t *testing.T) {
	store := storage.NewMemoryAdapter()
	require.NoError(t, storage.Set(store, storage.RememberMe, true))
	require.NoError(t, storage.Set(store, storage.LastUsedEmail, "elodie@volzer.edu"))

	h := newHarness(t, store, auth.RouteLogin)
	assert.Equal(t, "elodie@volzer.edu", h.m.login.email.Value())
	assert.True(t, h.m.login.remember)
	assert.True(t, h.m.login.password.Focused())
}

func TestTypingAndRevealingPassword(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteLogin)

	h.press(runes("elodie@volzer.edu"))
	assert.Equal(t, "elodie@volzer.edu", h.m.login.email.Value())

	h.press(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, h.m.login.password.Focused())
	h.press(runes("secret1"))
	assert.Equal(t, "secret1", h.m.login.password.Value())

	assert.False(t, h.m.login.password.Revealed())
	h.press(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.True(t, h.m.login.password.Revealed())
}

func TestEmailCheckedOnBlur(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteLogin)

	h.press(runes("pas-un-email"))
	h.press(tea.KeyMsg{Type: tea.KeyTab})
	assert.NotEmpty(t, h.m.login.email.Error())
}

func TestRememberCheckboxToggles(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteLogin)

	setFocus(h.m.login.inputs(), &h.m.login.focus, loginRemember, loginSlots)
	h.press(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.True(t, h.m.login.remember)
	assert.Contains(t, h.m.View(), "[x] Se souvenir de moi")
}

func TestLoginReachesDashboard(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteLogin)
	h.m.login.email.SetValue("elodie@volzer.edu")
	h.m.login.password.SetValue("secret1")

	cmd := h.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	done, ok := cmd().(submitDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	h.drain()
	assert.False(t, h.m.processing)
	assert.False(t, h.m.loading)
	cur, ok := h.m.messages.Current()
	require.True(t, ok)
	assert.Equal(t, events.KindSuccess, cur.Kind)
	assert.Equal(t, auth.MsgLoginSuccess, cur.Text)

	h.sched.Fire(auth.LoginRedirectDelay)
	h.drain()
	require.Equal(t, ScreenDashboard, h.m.Screen())
	assert.True(t, h.m.dashLoading)

	d, err := h.m.deps.Auth.LoadDashboard(context.Background())
	require.NoError(t, err)
	h.m.Update(dashboardMsg{dash: d})

	view := h.m.View()
	assert.Contains(t, view, "Bonjour, Élodie")
	assert.Contains(t, view, "elodie@volzer.edu")
	assert.Contains(t, view, "informatique")
}

func TestSubmitIgnoredWhileProcessing(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteLogin)
	h.bus.Publish(events.Processing{Active: true})
	h.drain()

	assert.Nil(t, h.press(tea.KeyMsg{Type: tea.KeyEnter}))
}

func TestRepeatedFailuresShowLockoutOverlay(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteLogin)
	h.m.login.email.SetValue("elodie@volzer.edu")
	h.m.login.password.SetValue("wrong-pass")

	for i := 0; i < 2; i++ {
		cmd := h.press(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		done := cmd().(submitDoneMsg)
		var rej *auth.RejectedError
		require.ErrorAs(t, done.err, &rej)
		h.drain()
	}

	require.True(t, h.m.overlay.IsVisible())
	assert.Contains(t, h.m.View(), components.LockoutTitle)

	// Typing is swallowed while locked.
	assert.Nil(t, h.press(runes("x")))
	assert.Equal(t, "wrong-pass", h.m.login.password.Value())

	cmd := h.press(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLockoutClearedHidesOverlay(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteLogin)
	h.bus.Publish(events.LockoutStarted{Until: time.Now().Add(time.Minute), Attempts: 2})
	h.drain()
	require.True(t, h.m.overlay.IsVisible())

	h.bus.Publish(events.LockoutCleared{})
	h.drain()
	assert.False(t, h.m.overlay.IsVisible())
}

func TestFieldHighlightFromBus(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteLogin)
	h.bus.Publish(events.FieldHighlight{Fields: []string{"email", "password"}, Duration: time.Hour})
	h.drain()

	now := time.Now()
	assert.True(t, h.m.login.email.Highlighted(now))
	assert.True(t, h.m.login.password.Highlighted(now))
}

func TestSwitchToRegistration(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteLogin)

	h.press(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, ScreenRegister, h.m.Screen())
	assert.Contains(t, h.m.View(), "Créer mon compte")

	f := h.m.register
	setFocus(f.inputs(), &f.focus, registerProgram, registerSlots)
	h.press(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, model.Programs[0], f.programLabel())
	h.press(tea.KeyMsg{Type: tea.KeyLeft})
	h.press(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, model.Programs[len(model.Programs)-1], f.programLabel())

	h.press(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, ScreenLogin, h.m.Screen())
}

func TestConfirmPasswordCheckedLive(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteRegister)
	f := h.m.register
	f.password.SetValue("secret1")

	setFocus(f.inputs(), &f.focus, 4, registerSlots)
	require.True(t, f.confirm.Focused())
	h.press(runes("secret"))
	assert.NotEmpty(t, f.confirm.Error())
	h.press(runes("1"))
	assert.Empty(t, f.confirm.Error())
}

func TestSessionWarningDismissedWithEscape(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteLogin)
	h.bus.Publish(events.SessionWarning{LoginTime: time.Now().Add(-25 * time.Hour), Age: 25 * time.Hour})
	h.drain()

	cur, ok := h.m.messages.Current()
	require.True(t, ok)
	assert.Equal(t, sessionWarningID, cur.ID)
	assert.Equal(t, events.KindWarning, cur.Kind)

	h.press(tea.KeyMsg{Type: tea.KeyEsc})
	_, ok = h.m.messages.Current()
	assert.False(t, ok)
}

func TestLogoutNeedsConfirmation(t *testing.T) {
	store := storage.NewMemoryAdapter()
	user := model.UserRecord{ID: "1", Prenom: "Élodie", Nom: "Martin", Email: "elodie@volzer.edu"}
	require.NoError(t, storage.Set(store, storage.User, user))

	h := newHarness(t, store, auth.RouteDashboard)
	h.m.dash = &auth.Dashboard{User: user, Initials: "ÉM"}

	h.press(runes("l"))
	assert.Contains(t, h.m.View(), auth.MsgLogoutConfirm)
	h.press(runes("n"))
	assert.False(t, h.m.confirmLogout)

	h.press(runes("l"))
	cmd := h.press(runes("o"))
	require.NotNil(t, cmd)
	done := cmd().(logoutDoneMsg)
	require.NoError(t, done.err)

	h.drain()
	assert.Equal(t, ScreenLogin, h.m.Screen())
	has, err := storage.Has(store, storage.User)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSessionRemovedByAnotherProcess(t *testing.T) {
	store := storage.NewMemoryAdapter()
	require.NoError(t, storage.Set(store, storage.User, model.UserRecord{ID: "1", Prenom: "Élodie"}))

	h := newHarness(t, store, auth.RouteDashboard)
	require.Equal(t, ScreenDashboard, h.m.Screen())

	require.NoError(t, storage.Remove(store, storage.User))
	h.bus.Publish(events.StorageChanged{Keys: []string{storage.User.Name()}})
	h.drain()
	assert.Equal(t, ScreenLogin, h.m.Screen())
}

func TestPageLoadTrackedOnce(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteLogin)
	at := h.m.deps.Started.Add(120 * time.Millisecond)

	h.m.Update(pageLoadedMsg{at: at})
	h.m.Update(pageLoadedMsg{at: at})

	var n int
	for _, ev := range h.rec.Events() {
		if ev.Data["metric"] == MetricPageLoad {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestConnectivityShownInStatusBar(t *testing.T) {
	h := newHarness(t, storage.NewMemoryAdapter(), auth.RouteLogin)
	h.m.status.SetEnabled(true)

	h.bus.Publish(events.ConnectivityChanged{Online: false, Status: "Hors ligne"})
	h.drain()
	assert.Contains(t, h.m.View(), "Hors ligne")
}
