// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jeranaias/volzer-tui/internal/events"
	"github.com/jeranaias/volzer-tui/internal/storage"
)

// =============================================================================
// SESSION WATCHER
// =============================================================================

// Config holds the watcher timing.
type Config struct {
	// MaxAge is how old a login may get before the warning (default: 24 hours)
	MaxAge time.Duration

	// CheckInterval is how often the login time is checked (default: 5 minutes)
	CheckInterval time.Duration
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		MaxAge:        24 * time.Hour,
		CheckInterval: 5 * time.Minute,
	}
}

// Publisher receives SessionWarning events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev any)
}

// Watcher periodically compares the persisted login time with MaxAge and
// publishes a SessionWarning when the session has grown too old. The
// warning is published once, then again only after DismissWarning.
type Watcher struct {
	mu sync.Mutex

	store  storage.Adapter
	pub    Publisher
	cfg    Config
	now    func() time.Time
	logger *slog.Logger

	warned    bool
	warnedFor time.Time
	cron      *cron.Cron
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher. Zero config fields take their defaults.
func NewWatcher(store storage.Adapter, pub Publisher, cfg Config, opts ...Option) *Watcher {
	def := DefaultConfig()
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = def.MaxAge
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	w := &Watcher{
		store:  store,
		pub:    pub,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Status is the watcher's view of the current session.
type Status struct {
	LoggedIn  bool          `json:"logged_in"`
	LoginTime time.Time     `json:"login_time,omitempty"`
	Age       time.Duration `json:"age_ns,omitempty"`
	Expiring  bool          `json:"expiring"`
}

// Status reads the login time.
func (w *Watcher) Status() (Status, error) {
	t, err := storage.Get(w.store, storage.LoginTime)
	if errors.Is(err, storage.ErrNotFound) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	age := w.now().Sub(t)
	return Status{
		LoggedIn:  true,
		LoginTime: t,
		Age:       age,
		Expiring:  age > w.cfg.MaxAge,
	}, nil
}

// Check evaluates the session and publishes a warning when due. It
// returns true when the session is older than MaxAge.
func (w *Watcher) Check() bool {
	st, err := w.Status()
	if err != nil {
		w.logger.Warn("session check failed", "error", err)
		return false
	}

	w.mu.Lock()
	if !st.Expiring {
		w.warned = false
		w.mu.Unlock()
		return false
	}
	// A new login resets the once-only warning.
	if w.warned && !w.warnedFor.Equal(st.LoginTime) {
		w.warned = false
	}
	shouldWarn := !w.warned
	w.warned = true
	w.warnedFor = st.LoginTime
	w.mu.Unlock()

	if shouldWarn {
		w.logger.Info("session expiring", "age", st.Age.Round(time.Minute).String())
		w.pub.Publish(events.SessionWarning{LoginTime: st.LoginTime, Age: st.Age})
	}
	return true
}

// DismissWarning lets the next check warn again.
func (w *Watcher) DismissWarning() {
	w.mu.Lock()
	w.warned = false
	w.mu.Unlock()
}

// Start runs Check every CheckInterval until Stop.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(cron.Recover(cronLogger(w.logger))))
	spec := fmt.Sprintf("@every %s", w.cfg.CheckInterval)
	if _, err := c.AddFunc(spec, func() { w.Check() }); err != nil {
		return fmt.Errorf("session: schedule %q: %w", spec, err)
	}
	c.Start()
	w.cron = c
	w.logger.Debug("session watcher started", "schedule", spec)
	return nil
}

// Stop halts the schedule and returns a context done when a running check
// has finished.
func (w *Watcher) Stop() context.Context {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return c.Stop()
}

func cronLogger(logger *slog.Logger) cron.Logger {
	return cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
}
