// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package offline

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jeranaias/volzer-tui/internal/events"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// Status lines shown in the status bar.
const (
	StatusOnline  = "Connecté au réseau universitaire"
	StatusOffline = "Mode hors ligne - Fonctionnement local"
)

const (
	// DefaultInterval is the time between two probes.
	DefaultInterval = 10 * time.Second

	// StatusDisplay is how long the status bar stays up after a change.
	StatusDisplay = 5 * time.Second
)

// =============================================================================
// MONITOR
// =============================================================================

// Pinger checks that the backend answers. *api.Client satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Publisher receives ConnectivityChanged events.
type Publisher interface {
	Publish(ev any)
}

// Monitor probes the backend periodically and publishes a
// ConnectivityChanged event whenever reachability flips.
//
// In forced offline mode only a loopback backend is probed; any other
// backend is reported offline without a request.
type Monitor struct {
	mu sync.Mutex

	pinger   Pinger
	pub      Publisher
	backend  string
	interval time.Duration
	forced   bool
	logger   *slog.Logger

	known     bool
	online    bool
	lastProbe time.Time
	cron      *cron.Cron
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the probe period.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithForcedOffline restricts probing to a loopback backend.
func WithForcedOffline(forced bool) Option {
	return func(m *Monitor) { m.forced = forced }
}

// WithBackendURL tells the monitor which host it probes.
func WithBackendURL(u string) Option {
	return func(m *Monitor) { m.backend = u }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMonitor creates a monitor.
func NewMonitor(p Pinger, pub Publisher, opts ...Option) *Monitor {
	m := &Monitor{
		pinger:   p,
		pub:      pub,
		interval: DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Probe checks the backend once and publishes on a change, including the
// first probe.
func (m *Monitor) Probe(ctx context.Context) bool {
	online := false
	if m.probeAllowed() {
		pctx, cancel := context.WithTimeout(ctx, m.interval/2)
		err := m.pinger.Ping(pctx)
		cancel()
		online = err == nil
		if err != nil {
			m.logger.Debug("backend probe failed", "error", err)
		}
	}

	m.mu.Lock()
	changed := !m.known || m.online != online
	m.known = true
	m.online = online
	m.lastProbe = time.Now()
	m.mu.Unlock()

	if changed {
		m.logger.Info("connectivity changed", "online", online)
		m.pub.Publish(events.ConnectivityChanged{Online: online, Status: StatusText(online)})
	}
	return online
}

func (m *Monitor) probeAllowed() bool {
	if !m.forced {
		return true
	}
	u, err := url.Parse(m.backend)
	return err == nil && IsLocalhost(u.Host)
}

// Online returns the last probe result. known is false before any probe.
func (m *Monitor) Online() (online, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online, m.known
}

// Status returns the status line for the last probe.
func (m *Monitor) Status() string {
	online, _ := m.Online()
	return StatusText(online)
}

// StatusText maps reachability to its status line.
func StatusText(online bool) string {
	if online {
		return StatusOnline
	}
	return StatusOffline
}

// Start probes immediately in the background, then every interval.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(slog.NewLogLogger(m.logger.Handler(), slog.LevelWarn))),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	spec := fmt.Sprintf("@every %s", m.interval)
	if _, err := c.AddFunc(spec, func() { m.Probe(ctx) }); err != nil {
		return fmt.Errorf("offline: schedule %q: %w", spec, err)
	}
	c.Start()
	m.cron = c
	go m.Probe(ctx)
	return nil
}

// Stop halts probing.
func (m *Monitor) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// =============================================================================
// HOST CHECKS
// =============================================================================

// IsLocalhost reports whether host (optionally with a port) is a loopback
// name or address.
func IsLocalhost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
