// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/volzer-tui/internal/analytics"
	"github.com/jeranaias/volzer-tui/internal/api"
	"github.com/jeranaias/volzer-tui/internal/events"
	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/security"
	"github.com/jeranaias/volzer-tui/internal/storage"
)

// fakeScheduler records delayed calls and runs them on demand.
type fakeScheduler struct {
	mu    sync.Mutex
	calls []*scheduled
}

type scheduled struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (s *scheduled) Stop() bool {
	was := !s.stopped && !s.fired
	s.stopped = true
	return was
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &scheduled{d: d, f: f}
	s.calls = append(s.calls, c)
	return c
}

// Pending returns the delays of calls neither fired nor stopped.
func (s *fakeScheduler) Pending() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Duration
	for _, c := range s.calls {
		if !c.stopped && !c.fired {
			out = append(out, c.d)
		}
	}
	return out
}

// Fire runs every pending call scheduled with delay d.
func (s *fakeScheduler) Fire(d time.Duration) int {
	s.mu.Lock()
	var run []func()
	for _, c := range s.calls {
		if c.d == d && !c.stopped && !c.fired {
			c.fired = true
			run = append(run, c.f)
		}
	}
	s.mu.Unlock()
	for _, f := range run {
		f()
	}
	return len(run)
}

// pendingTimers counts timers the manager still tracks.
func (m *Manager) pendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// fakeBackend answers with the configured functions.
type fakeBackend struct {
	mu         sync.Mutex
	loginCalls int
	regCalls   int
	logouts    int
	cookies    []*http.Cookie

	login    func(ctx context.Context, c model.Credentials) (*api.Response, error)
	register func(ctx context.Context, d model.RegistrationData) (*api.Response, error)
	check    func(ctx context.Context) (*api.Response, error)
	getUser  func(ctx context.Context, id model.UserID) (*api.UserResponse, error)
}

func (b *fakeBackend) Login(ctx context.Context, c model.Credentials) (*api.Response, error) {
	b.mu.Lock()
	b.loginCalls++
	b.mu.Unlock()
	return b.login(ctx, c)
}

func (b *fakeBackend) Register(ctx context.Context, d model.RegistrationData) (*api.Response, error) {
	b.mu.Lock()
	b.regCalls++
	b.mu.Unlock()
	return b.register(ctx, d)
}

func (b *fakeBackend) CheckAuth(ctx context.Context) (*api.Response, error) {
	return b.check(ctx)
}

func (b *fakeBackend) GetUser(ctx context.Context, id model.UserID) (*api.UserResponse, error) {
	return b.getUser(ctx, id)
}

func (b *fakeBackend) Logout(context.Context) error {
	b.mu.Lock()
	b.logouts++
	b.mu.Unlock()
	return nil
}

func (b *fakeBackend) Cookies() []*http.Cookie { return b.cookies }

func (b *fakeBackend) SetCookies(c []*http.Cookie) { b.cookies = c }

func (b *fakeBackend) ClearCookies() { b.cookies = nil }

func (b *fakeBackend) LoginCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loginCalls
}

// recorder collects published events.
type recorder struct {
	mu         sync.Mutex
	messages   []events.Message
	dismissed  []string
	processing []bool
	loader     []bool
	redirects  []string
	highlights []events.FieldHighlight
	fieldErrs  []events.FieldError
	lockouts   int
}

func record(bus *events.Bus) *recorder {
	r := &recorder{}
	events.Subscribe(bus, func(ev events.Message) { r.mu.Lock(); r.messages = append(r.messages, ev); r.mu.Unlock() })
	events.Subscribe(bus, func(ev events.MessageDismissed) { r.mu.Lock(); r.dismissed = append(r.dismissed, ev.ID); r.mu.Unlock() })
	events.Subscribe(bus, func(ev events.Processing) { r.mu.Lock(); r.processing = append(r.processing, ev.Active); r.mu.Unlock() })
	events.Subscribe(bus, func(ev events.Loader) { r.mu.Lock(); r.loader = append(r.loader, ev.Visible); r.mu.Unlock() })
	events.Subscribe(bus, func(ev events.Redirect) { r.mu.Lock(); r.redirects = append(r.redirects, ev.To); r.mu.Unlock() })
	events.Subscribe(bus, func(ev events.FieldHighlight) { r.mu.Lock(); r.highlights = append(r.highlights, ev); r.mu.Unlock() })
	events.Subscribe(bus, func(ev events.FieldError) { r.mu.Lock(); r.fieldErrs = append(r.fieldErrs, ev); r.mu.Unlock() })
	events.Subscribe(bus, func(events.LockoutStarted) { r.mu.Lock(); r.lockouts++; r.mu.Unlock() })
	return r
}

func (r *recorder) lastMessage() events.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return events.Message{}
	}
	return r.messages[len(r.messages)-1]
}

type fixture struct {
	m       *Manager
	store   storage.Adapter
	lockout *security.LockoutManager
	rec     *analytics.Recorder
	backend *fakeBackend
	sched   *fakeScheduler
	events  *recorder
	now     time.Time
}

func (f *fixture) eventNames() []string {
	var out []string
	for _, ev := range f.rec.Events() {
		out = append(out, ev.Name)
	}
	return out
}

var testUser = model.UserRecord{ID: "42", Prenom: "Élodie", Nom: "Martin", Email: "elodie@volzer.edu", Role: "Étudiant"}

func okLogin(context.Context, model.Credentials) (*api.Response, error) {
	u := testUser
	return &api.Response{Success: true, User: &u}, nil
}

func badLogin(context.Context, model.Credentials) (*api.Response, error) {
	return &api.Response{Success: false, Message: "Email ou mot de passe incorrect"}, nil
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	bus := events.New()
	t.Cleanup(bus.Close)
	store := storage.NewMemoryAdapter()
	lockout := security.NewLockoutManager(store, security.WithClock(clock), security.WithPublisher(bus))
	rec := analytics.NewRecorder(store, analytics.WithClock(clock))
	backend := &fakeBackend{login: okLogin}
	sched := &fakeScheduler{}

	all := append([]Option{WithScheduler(sched), WithClock(clock)}, opts...)
	m := New(Deps{Store: store, Lockout: lockout, Analytics: rec, Backend: backend, Bus: bus}, all...)
	t.Cleanup(m.Close)

	return &fixture{
		m: m, store: store, lockout: lockout, rec: rec,
		backend: backend, sched: sched, events: record(bus), now: now,
	}
}
