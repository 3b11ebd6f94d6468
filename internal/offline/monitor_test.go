// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package offline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/volzer-tui/internal/events"
)

type fakePinger struct {
	err   atomic.Value
	calls atomic.Int32
}

func (p *fakePinger) set(err error) { p.err.Store(&err) }

func (p *fakePinger) Ping(context.Context) error {
	p.calls.Add(1)
	if v, ok := p.err.Load().(*error); ok {
		return *v
	}
	return nil
}

type captured struct {
	mu  sync.Mutex
	evs []events.ConnectivityChanged
}

func (c *captured) Publish(ev any) {
	if cc, ok := ev.(events.ConnectivityChanged); ok {
		c.mu.Lock()
		c.evs = append(c.evs, cc)
		c.mu.Unlock()
	}
}

func (c *captured) all() []events.ConnectivityChanged {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.ConnectivityChanged(nil), c.evs...)
}

func TestProbePublishesOnChange(t *testing.T) {
	p := &fakePinger{}
	pub := &captured{}
	m := NewMonitor(p, pub)

	_, known := m.Online()
	assert.False(t, known)

	assert.True(t, m.Probe(context.Background()))
	assert.True(t, m.Probe(context.Background()))
	require.Len(t, pub.all(), 1, "first probe publishes, unchanged second does not")
	assert.Equal(t, StatusOnline, pub.all()[0].Status)

	p.set(errors.New("connection refused"))
	assert.False(t, m.Probe(context.Background()))
	evs := pub.all()
	require.Len(t, evs, 2)
	assert.False(t, evs[1].Online)
	assert.Equal(t, StatusOffline, evs[1].Status)
	assert.Equal(t, StatusOffline, m.Status())
}

func TestForcedOfflineSkipsRemoteBackend(t *testing.T) {
	p := &fakePinger{}
	pub := &captured{}
	m := NewMonitor(p, pub, WithForcedOffline(true), WithBackendURL("https://api.volzer.edu"))

	assert.False(t, m.Probe(context.Background()))
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestForcedOfflineProbesLoopback(t *testing.T) {
	p := &fakePinger{}
	m := NewMonitor(p, &captured{}, WithForcedOffline(true), WithBackendURL("http://127.0.0.1:3000"))

	assert.True(t, m.Probe(context.Background()))
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestStartProbesImmediately(t *testing.T) {
	p := &fakePinger{}
	pub := &captured{}
	m := NewMonitor(p, pub, WithInterval(time.Hour))

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	assert.Eventually(t, func() bool { return len(pub.all()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"LOCALHOST:3000", true},
		{"127.0.0.1", true},
		{"127.1.2.3:80", true},
		{"[::1]:3000", true},
		{"::1", true},
		{"api.volzer.edu", false},
		{"10.0.0.1", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLocalhost(tt.host), tt.host)
	}
}
