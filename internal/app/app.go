// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jeranaias/volzer-tui/internal/analytics"
	"github.com/jeranaias/volzer-tui/internal/api"
	"github.com/jeranaias/volzer-tui/internal/auth"
	"github.com/jeranaias/volzer-tui/internal/config"
	"github.com/jeranaias/volzer-tui/internal/events"
	"github.com/jeranaias/volzer-tui/internal/offline"
	"github.com/jeranaias/volzer-tui/internal/security"
	"github.com/jeranaias/volzer-tui/internal/session"
	"github.com/jeranaias/volzer-tui/internal/storage"
)

// StorageDebounce is how long the state watcher waits for writes to settle.
const StorageDebounce = 150 * time.Millisecond

// App holds every long-lived component of one volzer process. It is built
// once in main and handed to the command that runs.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     storage.Adapter
	Bus       *events.Bus
	Lockout   *security.LockoutManager
	Analytics *analytics.Recorder
	Client    *api.Client
	Auth      *auth.Manager
	Session   *session.Watcher
	Monitor   *offline.Monitor

	stateDir string
	version  string
	watcher  *storage.Watcher

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	closed  bool
}

// Option configures New.
type Option func(*App)

// WithVersion sets the version reported in the analytics user agent and
// the HTTP User-Agent header.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// WithStore replaces the configured storage backend.
func WithStore(s storage.Adapter) Option {
	return func(a *App) { a.Store = s }
}

// New builds the component graph from cfg. Nothing runs in the background
// until Start.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}
	for _, opt := range opts {
		opt(a)
	}

	dir, err := cfg.StateDir()
	if err != nil {
		return nil, fmt.Errorf("resolve state dir: %w", err)
	}
	a.stateDir = dir

	if a.Store == nil {
		store, err := storage.Open(cfg.Storage.Backend, dir)
		if err != nil {
			return nil, err
		}
		a.Store = store
	}

	ua := analytics.UserAgent(a.version)
	a.Bus = events.New()

	a.Lockout = security.NewLockoutManager(a.Store,
		security.WithMaxAttempts(cfg.Security.MaxAttempts),
		security.WithLockoutDuration(cfg.LockoutDuration()),
		security.WithPublisher(a.Bus),
		security.WithLogger(logger.With("component", "lockout")),
	)

	client, err := api.NewClient(cfg.Backend.URL,
		api.WithTimeout(cfg.Timeout()),
		api.WithRateLimit(cfg.Backend.RequestsPerSecond),
		api.WithUserAgent(ua),
		api.WithLogger(logger.With("component", "api")),
	)
	if err != nil {
		_ = a.Store.Close()
		return nil, fmt.Errorf("backend client: %w", err)
	}
	a.Client = client

	var mgr *auth.Manager
	a.Analytics = analytics.NewRecorder(a.Store,
		analytics.WithEnabled(cfg.Analytics.Enabled),
		analytics.WithCapacity(cfg.Analytics.Capacity),
		analytics.WithUserAgent(ua),
		analytics.WithRoute(func() string {
			if mgr == nil {
				return ""
			}
			return mgr.Route()
		}),
		analytics.WithLogger(logger.With("component", "analytics")),
	)

	mgr = auth.New(auth.Deps{
		Store:     a.Store,
		Lockout:   a.Lockout,
		Analytics: a.Analytics,
		Backend:   a.Client,
		Bus:       a.Bus,
	},
		auth.WithRequestTimeout(cfg.Timeout()),
		auth.WithLogger(logger.With("component", "auth")),
	)
	a.Auth = mgr
	a.Auth.RestoreCookies()

	a.Session = session.NewWatcher(a.Store, a.Bus, session.Config{
		MaxAge:        cfg.SessionMaxAge(),
		CheckInterval: cfg.SessionCheckInterval(),
	}, session.WithLogger(logger.With("component", "session")))

	a.Monitor = offline.NewMonitor(a.Client, a.Bus,
		offline.WithInterval(cfg.ProbeInterval()),
		offline.WithForcedOffline(cfg.Backend.Offline),
		offline.WithBackendURL(cfg.Backend.URL),
		offline.WithLogger(logger.With("component", "offline")),
	)

	return a, nil
}

// StateDir is where the state store lives.
func (a *App) StateDir() string { return a.stateDir }

// Start launches the background jobs used by the interactive client: the
// session watcher, the connectivity monitor and, for on-disk stores, the
// cross-process change feed.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)

	if a.Config.Storage.Backend != storage.BackendMemory {
		w, err := storage.NewWatcher(a.Store, a.stateDir, a.Bus, StorageDebounce, a.Logger.With("component", "watcher"))
		if err != nil {
			cancel()
			return fmt.Errorf("state watcher: %w", err)
		}
		if err := w.Start(); err != nil {
			_ = w.Close()
			cancel()
			return fmt.Errorf("state watcher: %w", err)
		}
		a.watcher = w
	}

	if err := a.Session.Start(); err != nil {
		cancel()
		return err
	}
	if err := a.Monitor.Start(ctx); err != nil {
		cancel()
		return err
	}

	a.Session.Check()
	a.cancel = cancel
	a.started = true
	a.Logger.Debug("background jobs started", "state_dir", a.stateDir)
	return nil
}

// Close stops the background jobs and releases the store. It is safe to
// call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	started := a.started
	cancel := a.cancel
	w := a.watcher
	a.mu.Unlock()

	var errs []error
	if started {
		cancel()
		a.Monitor.Stop()
		<-a.Session.Stop().Done()
		if w != nil {
			errs = append(errs, w.Close())
		}
	}
	a.Auth.Close()
	a.Bus.Close()
	errs = append(errs, a.Store.Close())
	return errors.Join(errs...)
}
