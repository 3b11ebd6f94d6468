// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analytics

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/storage"
)

// DefaultCapacity is the number of most recent events kept.
const DefaultCapacity = 50

// Event names emitted by the auth flows.
const (
	EventLoginAttempt    = "login_attempt"
	EventLoginSuccess    = "login_success"
	EventLoginFailed     = "login_failed"
	EventLoginError      = "login_error"
	EventRegisterAttempt = "register_attempt"
	EventRegisterSuccess = "register_success"
	EventRegisterFailed  = "register_failed"
	EventRegisterError   = "register_error"
	EventUserLogout      = "user_logout"
	EventPerformance     = "performance"
)

// Recorder keeps a bounded, locally persisted log of auth events.
// Nothing is ever sent over the network.
type Recorder struct {
	mu        sync.Mutex
	store     storage.Adapter
	capacity  int
	enabled   bool
	userAgent string
	route     func() string
	now       func() time.Time
	logger    *slog.Logger
	events    []model.Event
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithCapacity bounds the log. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(r *Recorder) {
		if n >= 1 {
			r.capacity = n
		}
	}
}

// WithEnabled turns recording on or off.
func WithEnabled(enabled bool) Option {
	return func(r *Recorder) { r.enabled = enabled }
}

// WithUserAgent sets the client identification stored on every event.
func WithUserAgent(ua string) Option {
	return func(r *Recorder) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// WithRoute supplies the current screen route stored as the event URL.
func WithRoute(route func() string) Option {
	return func(r *Recorder) { r.route = route }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// UserAgent builds the default identification string.
func UserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("volzer/%s (%s; %s)", version, runtime.GOOS, runtime.GOARCH)
}

// NewRecorder creates a recorder and loads the persisted log. A missing or
// unreadable log starts empty.
//
// The store is the source of truth: every append is a read-modify-write
// under the store's lock, and reads pick up what other processes wrote.
// The in-memory copy only serves when the store cannot be read.
func NewRecorder(store storage.Adapter, opts ...Option) *Recorder {
	r := &Recorder{
		store:     store,
		capacity:  DefaultCapacity,
		enabled:   true,
		userAgent: UserAgent(""),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.refresh()
	return r
}

// Track appends an event, evicts the oldest beyond capacity and persists
// the whole log. Persistence failures are logged and otherwise ignored.
func (r *Recorder) Track(name string, data map[string]any) model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data == nil {
		data = map[string]any{}
	}
	ev := model.Event{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: r.now().UTC(),
		Data:      data,
		UserAgent: r.userAgent,
	}
	if r.route != nil {
		ev.URL = r.route()
	}
	if !r.enabled {
		return ev
	}

	log, err := storage.Modify(r.store, storage.Analytics, func(cur []model.Event, _ bool) ([]model.Event, error) {
		return trim(append(cur, ev), r.capacity), nil
	})
	if err == nil {
		r.events = log
	} else {
		// An unreadable log is replaced by the one held in memory.
		r.events = trim(append(r.events, ev), r.capacity)
		if err := storage.Set(r.store, storage.Analytics, r.events); err != nil {
			r.logger.Warn("analytics persist failed", "event", name, "error", err)
		}
	}
	r.logger.Debug("analytics event", "name", name)
	return ev
}

// TrackPerformance records a "performance" event carrying metric and value.
func (r *Recorder) TrackPerformance(metric string, value float64) model.Event {
	return r.Track(EventPerformance, map[string]any{
		"metric": metric,
		"value":  value,
	})
}

// Events returns a copy of the log in append order.
func (r *Recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh()
	out := make([]model.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of events held.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh()
	return len(r.events)
}

// Clear empties the log and removes it from the store.
func (r *Recorder) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	return storage.Remove(r.store, storage.Analytics)
}

// refresh reloads the persisted log. Callers hold r.mu.
func (r *Recorder) refresh() {
	saved, err := storage.Get(r.store, storage.Analytics)
	switch {
	case err == nil:
		r.events = trim(saved, r.capacity)
	case errors.Is(err, storage.ErrNotFound):
		r.events = nil
	default:
		r.logger.Warn("analytics log unreadable, using memory copy", "error", err)
	}
}

func trim(events []model.Event, capacity int) []model.Event {
	if len(events) <= capacity {
		return events
	}
	out := make([]model.Event, capacity)
	copy(out, events[len(events)-capacity:])
	return out
}
