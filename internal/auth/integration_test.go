// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/volzer-tui/internal/analytics"
	"github.com/jeranaias/volzer-tui/internal/api"
	"github.com/jeranaias/volzer-tui/internal/events"
	"github.com/jeranaias/volzer-tui/internal/mockserver"
	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/security"
	"github.com/jeranaias/volzer-tui/internal/storage"
)

func newLiveManager(t *testing.T, store storage.Adapter, baseURL string) (*Manager, *fakeScheduler, *recorder) {
	t.Helper()
	bus := events.New()
	t.Cleanup(bus.Close)

	client, err := api.NewClient(baseURL, api.WithRateLimit(0))
	require.NoError(t, err)

	sched := &fakeScheduler{}
	m := New(Deps{
		Store:     store,
		Lockout:   security.NewLockoutManager(store, security.WithPublisher(bus)),
		Analytics: analytics.NewRecorder(store),
		Backend:   client,
		Bus:       bus,
	}, WithScheduler(sched))
	t.Cleanup(m.Close)
	return m, sched, record(bus)
}

func TestEndToEndAgainstMockBackend(t *testing.T) {
	ts := httptest.NewServer(mockserver.New(
		mockserver.WithUserStore(mockserver.NewUserStore(bcrypt.MinCost)),
		mockserver.WithLoginRateLimit(0),
	))
	defer ts.Close()

	store := storage.NewMemoryAdapter()
	m, sched, ev := newLiveManager(t, store, ts.URL)
	ctx := context.Background()

	require.NoError(t, m.HandleRegistration(ctx, validForm()))
	sched.Fire(RegisterRedirectDelay)
	assert.Equal(t, []string{RouteNewUser}, ev.redirects)

	err := m.HandleLogin(ctx, model.Credentials{Email: "elodie@volzer.edu", Password: "wrong-pass"})
	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, security.DefaultMaxAttempts-1, rej.Remaining)

	require.NoError(t, m.HandleLogin(ctx, model.Credentials{Email: "elodie@volzer.edu", Password: "secret1"}))

	d, err := m.LoadDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Élodie", d.User.Prenom)
	assert.Equal(t, "Martin", d.User.Nom)
	assert.Equal(t, "ÉM", d.Initials)
	assert.Equal(t, "informatique", d.Program)
	assert.Len(t, d.JoinDate, len(FrenchDateLayout))

	// A second process sharing the state restores the session cookie.
	other, _, _ := newLiveManager(t, store, ts.URL)
	other.RestoreCookies()
	_, err = other.LoadDashboard(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx))
	_, err = m.LoadDashboard(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Contains(t, ev.redirects, RouteLogin)
}
