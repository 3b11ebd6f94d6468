// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jeranaias/volzer-tui/internal/events"
	"github.com/jeranaias/volzer-tui/internal/storage"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultMaxAttempts is the number of failed logins that triggers a lockout.
	DefaultMaxAttempts = 5

	// DefaultLockoutDuration is how long the client refuses to submit logins.
	DefaultLockoutDuration = 15 * time.Minute
)

// ErrLocked is returned by callers that refuse an attempt because the
// lockout deadline has not passed yet.
var ErrLocked = errors.New("login temporarily locked")

// =============================================================================
// LOCKOUT MANAGER
// =============================================================================

// Publisher receives lockout events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev any)
}

// LockoutManager throttles login attempts on this machine. It has two
// states: Open, and Locked until a persisted deadline.
//
// Nothing is cached. Every call reads the shared store, so all volzer
// processes using the same state directory agree on the lockout. The
// counter is only ever written by this type.
//
// This is advisory: it slows down the person at the keyboard, it does not
// protect the server.
type LockoutManager struct {
	store           storage.Adapter
	maxAttempts     int
	lockoutDuration time.Duration
	now             func() time.Time
	pub             Publisher
	logger          *slog.Logger
}

// LockoutManagerOption configures a LockoutManager.
type LockoutManagerOption func(*LockoutManager)

// WithMaxAttempts sets the failure threshold. Values below 1 are ignored.
func WithMaxAttempts(max int) LockoutManagerOption {
	return func(l *LockoutManager) {
		if max >= 1 {
			l.maxAttempts = max
		}
	}
}

// WithLockoutDuration sets how long a lockout lasts.
func WithLockoutDuration(d time.Duration) LockoutManagerOption {
	return func(l *LockoutManager) {
		if d > 0 {
			l.lockoutDuration = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) LockoutManagerOption {
	return func(l *LockoutManager) {
		if now != nil {
			l.now = now
		}
	}
}

// WithPublisher sets where LockoutStarted and LockoutCleared are sent.
func WithPublisher(p Publisher) LockoutManagerOption {
	return func(l *LockoutManager) {
		l.pub = p
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) LockoutManagerOption {
	return func(l *LockoutManager) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLockoutManager creates a manager over store.
func NewLockoutManager(store storage.Adapter, opts ...LockoutManagerOption) *LockoutManager {
	l := &LockoutManager{
		store:           store,
		maxAttempts:     DefaultMaxAttempts,
		lockoutDuration: DefaultLockoutDuration,
		now:             time.Now,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// =============================================================================
// STATE
// =============================================================================

// State is a point-in-time view of the lockout.
type State struct {
	FailedAttempts int       `json:"failed_attempts"`
	MaxAttempts    int       `json:"max_attempts"`
	LockedUntil    time.Time `json:"locked_until,omitempty"`
	Locked         bool      `json:"locked"`
}

// Remaining is the number of attempts left before a lockout, never negative.
func (s State) Remaining() int {
	if r := s.MaxAttempts - s.FailedAttempts; r > 0 {
		return r
	}
	return 0
}

// TimeRemaining is how long the lockout still lasts at now.
func (s State) TimeRemaining(now time.Time) time.Duration {
	if !s.Locked {
		return 0
	}
	if d := s.LockedUntil.Sub(now); d > 0 {
		return d
	}
	return 0
}

// MaxAttempts returns the configured threshold.
func (l *LockoutManager) MaxAttempts() int { return l.maxAttempts }

// LockoutDuration returns the configured lockout length.
func (l *LockoutManager) LockoutDuration() time.Duration { return l.lockoutDuration }

// Status reads the persisted state.
func (l *LockoutManager) Status() (State, error) {
	st := State{MaxAttempts: l.maxAttempts}
	err := l.store.View(func(tx storage.Tx) error {
		n, _, err := storage.Lookup(tx, storage.FailedAttempts)
		if err != nil {
			return err
		}
		until, ok, err := storage.Lookup(tx, storage.LockoutUntil)
		if err != nil {
			return err
		}
		st.FailedAttempts = n
		if ok {
			st.LockedUntil = until
			st.Locked = l.now().Before(until)
		}
		return nil
	})
	return st, err
}

// IsLocked reports whether a persisted deadline exists and lies in the
// future. An unreadable store counts as Open.
func (l *LockoutManager) IsLocked() bool {
	st, err := l.Status()
	if err != nil {
		l.logger.Warn("lockout state unreadable", "error", err)
		return false
	}
	return st.Locked
}

// CheckLockout is IsLocked for submit handlers: when Locked it also
// re-announces the lockout so the overlay is shown again.
func (l *LockoutManager) CheckLockout() bool {
	st, err := l.Status()
	if err != nil {
		l.logger.Warn("lockout state unreadable", "error", err)
		return false
	}
	if st.Locked {
		l.publish(events.LockoutStarted{Until: st.LockedUntil, Attempts: st.FailedAttempts})
	}
	return st.Locked
}

// RecordFailure counts one failed login. When the count reaches the
// threshold the deadline now+LockoutDuration is persisted in the same
// transaction and LockoutStarted is published.
func (l *LockoutManager) RecordFailure() (State, error) {
	now := l.now()
	st := State{MaxAttempts: l.maxAttempts}

	err := l.store.Update(func(tx storage.Tx) error {
		n, _, err := storage.Lookup(tx, storage.FailedAttempts)
		if err != nil {
			return err
		}
		n++
		if err := storage.Put(tx, storage.FailedAttempts, n, now); err != nil {
			return err
		}
		st.FailedAttempts = n

		if n >= l.maxAttempts {
			until := now.Add(l.lockoutDuration)
			if err := storage.Put(tx, storage.LockoutUntil, until, now); err != nil {
				return err
			}
			st.LockedUntil = until
			st.Locked = true
		}
		return nil
	})
	if err != nil {
		return st, err
	}

	l.logger.Info("login failure recorded",
		"event", "AUTH_ATTEMPT",
		"attempt_count", st.FailedAttempts,
		"max_attempts", l.maxAttempts)

	if st.Locked {
		l.logger.Warn("login locked",
			"event", "AUTH_LOCKOUT",
			"duration", l.lockoutDuration.String(),
			"until", st.LockedUntil.Format(time.RFC3339))
		l.publish(events.LockoutStarted{Until: st.LockedUntil, Attempts: st.FailedAttempts})
	}
	return st, nil
}

// Reset clears the counter and the deadline.
func (l *LockoutManager) Reset() error {
	if err := storage.Remove(l.store, storage.FailedAttempts, storage.LockoutUntil); err != nil {
		return err
	}
	l.logger.Info("lockout reset", "event", "AUTH_RESET")
	l.publish(events.LockoutCleared{})
	return nil
}

func (l *LockoutManager) publish(ev any) {
	if l.pub != nil {
		l.pub.Publish(ev)
	}
}

// =============================================================================
// MESSAGES
// =============================================================================

// LockoutMessage is the body of the lockout overlay.
func LockoutMessage(until, now time.Time) string {
	minutes := int(math.Ceil(until.Sub(now).Minutes()))
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("🔒 Trop de tentatives échouées. Compte verrouillé pour %d minutes.", minutes)
}

// Countdown formats the time left as "Temps restant: M:SS", rounding
// partial seconds up.
func Countdown(remaining time.Duration) string {
	secs := int(math.Ceil(remaining.Seconds()))
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("Temps restant: %d:%02d", secs/60, secs%60)
}
