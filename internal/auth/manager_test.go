// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/volzer-tui/internal/analytics"
	"github.com/jeranaias/volzer-tui/internal/api"
	"github.com/jeranaias/volzer-tui/internal/events"
	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/security"
	"github.com/jeranaias/volzer-tui/internal/storage"
	"github.com/jeranaias/volzer-tui/internal/validate"
)

var goodCreds = model.Credentials{Email: " Elodie@Volzer.edu ", Password: "secret1"}

func TestHandleLoginSuccess(t *testing.T) {
	f := newFixture(t)
	f.backend.cookies = []*http.Cookie{{Name: "volzer_session", Value: "tok"}}

	var sent model.Credentials
	f.backend.login = func(ctx context.Context, c model.Credentials) (*api.Response, error) {
		sent = c
		return okLogin(ctx, c)
	}

	err := f.m.HandleLogin(context.Background(), model.Credentials{Email: goodCreds.Email, Password: "secret1", Remember: true})
	require.NoError(t, err)

	assert.Equal(t, "elodie@volzer.edu", sent.Email, "email normalised before sending")
	assert.Equal(t, []string{analytics.EventLoginAttempt, analytics.EventLoginSuccess}, f.eventNames())

	msg := f.events.lastMessage()
	assert.Equal(t, MsgLoginSuccess, msg.Text)
	assert.Equal(t, events.KindSuccess, msg.Kind)
	assert.Zero(t, msg.AutoDismiss)

	assert.Equal(t, []bool{true, false}, f.events.processing)
	assert.Equal(t, []bool{true, false}, f.events.loader)
	assert.False(t, f.m.Processing())

	user, err := storage.Get(f.store, storage.User)
	require.NoError(t, err)
	assert.Equal(t, testUser, user)

	email, err := storage.Get(f.store, storage.LastUsedEmail)
	require.NoError(t, err)
	assert.Equal(t, testUser.Email, email)

	loginTime, err := storage.Get(f.store, storage.LoginTime)
	require.NoError(t, err)
	assert.True(t, loginTime.Equal(f.now))

	remember, err := storage.Get(f.store, storage.RememberMe)
	require.NoError(t, err)
	assert.True(t, remember)

	prefs, err := storage.Get(f.store, storage.Preferences)
	require.NoError(t, err)
	assert.Equal(t, "light", prefs.Theme)
	assert.Equal(t, "fr", prefs.Language)
	assert.True(t, prefs.Notifications)

	cookies, err := storage.Get(f.store, storage.SessionCookies)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "tok", cookies[0].Value)

	assert.Empty(t, f.events.redirects, "redirect is delayed")
	assert.Equal(t, 1, f.sched.Fire(LoginRedirectDelay))
	assert.Equal(t, []string{RouteDashboard}, f.events.redirects)
	assert.Equal(t, RouteDashboard, f.m.Route())
}

func TestHandleLoginWithoutRememberLeavesFlagUnset(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.m.HandleLogin(context.Background(), goodCreds))

	ok, err := storage.Has(f.store, storage.RememberMe)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleLoginRedirectParameter(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/login?redirect=/profil", "/profil"},
		{"/login?redirect=%2Fcours%3Fid%3D3", "/cours?id=3"},
		{"/login?redirect=https://evil.example", RouteDashboard},
		{"/login?redirect=//evil.example", RouteDashboard},
		{"/login", RouteDashboard},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			f := newFixture(t)
			f.m.SetRoute(tt.route)
			require.NoError(t, f.m.HandleLogin(context.Background(), goodCreds))
			f.sched.Fire(LoginRedirectDelay)
			assert.Equal(t, []string{tt.want}, f.events.redirects)
		})
	}
}

func TestHandleLoginValidation(t *testing.T) {
	tests := []struct {
		name  string
		creds model.Credentials
		want  string
	}{
		{"empty email", model.Credentials{Password: "x"}, validate.MsgFillAllFields},
		{"empty password", model.Credentials{Email: "a@b.fr"}, validate.MsgFillAllFields},
		{"bad email", model.Credentials{Email: "not-an-email", Password: "x"}, validate.MsgEmailInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.m.HandleLogin(context.Background(), tt.creds)

			var fe *validate.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.want, fe.Message)
			assert.Equal(t, 0, f.backend.LoginCalls(), "no request on invalid input")

			msg := f.events.lastMessage()
			assert.Equal(t, tt.want, msg.Text)
			assert.Equal(t, events.KindError, msg.Kind)
			assert.Equal(t, []bool{true, false}, f.events.processing)
			assert.Empty(t, f.events.loader, "loader never shown")
			assert.Equal(t, []string{analytics.EventLoginAttempt}, f.eventNames())
		})
	}
}

func TestHandleLoginFailureCountsDown(t *testing.T) {
	f := newFixture(t)
	f.backend.login = badLogin
	ctx := context.Background()

	for i := 1; i < security.DefaultMaxAttempts; i++ {
		err := f.m.HandleLogin(ctx, goodCreds)
		var rej *RejectedError
		require.True(t, errors.As(err, &rej), "attempt %d", i)
		assert.Equal(t, security.DefaultMaxAttempts-i, rej.Remaining)
		assert.False(t, rej.Locked)
		assert.Equal(t,
			fmt.Sprintf("❌ Identifiants incorrects. %d tentatives restantes.", security.DefaultMaxAttempts-i),
			f.events.lastMessage().Text)
	}

	err := f.m.HandleLogin(ctx, goodCreds)
	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.True(t, rej.Locked)
	assert.Equal(t, "🔒 Compte temporairement verrouillé. Réessayez dans 15 minutes.", f.events.lastMessage().Text)
	assert.Equal(t, 1, f.events.lockouts)
	assert.True(t, f.lockout.IsLocked())

	failed := 0
	for _, ev := range f.rec.Events() {
		if ev.Name == analytics.EventLoginFailed {
			failed++
			assert.Equal(t, "elodie@volzer.edu", ev.Data["email"])
		}
	}
	assert.Equal(t, security.DefaultMaxAttempts, failed)
}

func TestHandleLoginWhileLockedSendsNothing(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < security.DefaultMaxAttempts; i++ {
		_, err := f.lockout.RecordFailure()
		require.NoError(t, err)
	}
	before := len(f.rec.Events())
	lockoutsBefore := f.events.lockouts

	err := f.m.HandleLogin(context.Background(), goodCreds)
	assert.ErrorIs(t, err, security.ErrLocked)
	assert.Equal(t, 0, f.backend.LoginCalls())
	assert.Len(t, f.rec.Events(), before, "no analytics while locked")
	assert.Empty(t, f.events.processing)
	assert.Equal(t, lockoutsBefore+1, f.events.lockouts, "overlay re-announced")

	err = f.m.HandleRegistration(context.Background(), model.RegistrationForm{})
	assert.ErrorIs(t, err, security.ErrLocked)
}

func TestHandleLoginSuccessResetsLockout(t *testing.T) {
	f := newFixture(t)
	_, err := f.lockout.RecordFailure()
	require.NoError(t, err)

	require.NoError(t, f.m.HandleLogin(context.Background(), goodCreds))
	st, err := f.lockout.Status()
	require.NoError(t, err)
	assert.Equal(t, 0, st.FailedAttempts)
}

func TestHandleLoginTransportError(t *testing.T) {
	f := newFixture(t)
	f.backend.login = func(context.Context, model.Credentials) (*api.Response, error) {
		return nil, &api.TransportError{Op: "POST /api/login", Err: api.ErrUnreachable}
	}

	err := f.m.HandleLogin(context.Background(), goodCreds)
	assert.True(t, api.IsTransport(err))

	msg := f.events.lastMessage()
	assert.Equal(t, MsgServerError, msg.Text)
	assert.Equal(t, []string{analytics.EventLoginAttempt, analytics.EventLoginError}, f.eventNames())

	st, err := f.lockout.Status()
	require.NoError(t, err)
	assert.Equal(t, 0, st.FailedAttempts, "transport errors are not credential failures")
	assert.Equal(t, []bool{true, false}, f.events.loader)
	assert.False(t, f.m.Processing())
}

func TestHandleLoginSuccessWithoutUserIsMalformed(t *testing.T) {
	f := newFixture(t)
	f.backend.login = func(context.Context, model.Credentials) (*api.Response, error) {
		return &api.Response{Success: true}, nil
	}
	err := f.m.HandleLogin(context.Background(), goodCreds)
	assert.ErrorIs(t, err, api.ErrMalformed)
	assert.Equal(t, MsgServerError, f.events.lastMessage().Text)
}

func TestHandleLoginTimeout(t *testing.T) {
	f := newFixture(t, WithRequestTimeout(20*time.Millisecond))
	f.backend.login = func(ctx context.Context, _ model.Credentials) (*api.Response, error) {
		<-ctx.Done()
		return nil, &api.TransportError{Op: "POST /api/login", Err: api.ErrTimeout}
	}

	start := time.Now()
	err := f.m.HandleLogin(context.Background(), goodCreds)
	assert.ErrorIs(t, err, api.ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, MsgServerError, f.events.lastMessage().Text)
	assert.Contains(t, f.eventNames(), analytics.EventLoginError)
}

func TestHandleLoginIsNotReentrant(t *testing.T) {
	f := newFixture(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	f.backend.login = func(ctx context.Context, c model.Credentials) (*api.Response, error) {
		close(entered)
		<-release
		return okLogin(ctx, c)
	}

	done := make(chan error, 1)
	go func() { done <- f.m.HandleLogin(context.Background(), goodCreds) }()
	<-entered

	assert.True(t, f.m.Processing())
	assert.ErrorIs(t, f.m.HandleLogin(context.Background(), goodCreds), ErrBusy)
	assert.ErrorIs(t, f.m.HandleRegistration(context.Background(), model.RegistrationForm{}), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.backend.LoginCalls())
	assert.False(t, f.m.Processing())
}

func TestErrorMessagesAutoDismiss(t *testing.T) {
	f := newFixture(t)
	_ = f.m.HandleLogin(context.Background(), model.Credentials{})

	msg := f.events.lastMessage()
	assert.Equal(t, ErrorDismissDelay, msg.AutoDismiss)
	assert.Equal(t, []time.Duration{ErrorDismissDelay}, f.sched.Pending())

	f.sched.Fire(ErrorDismissDelay)
	assert.Equal(t, []string{msg.ID}, f.events.dismissed)
}

func TestSuccessMessagesStay(t *testing.T) {
	f := newFixture(t)
	id := f.m.ShowMessage(events.KindSuccess, "ok")
	assert.NotEmpty(t, id)
	assert.Empty(t, f.sched.Pending())

	f.m.DismissMessage(id)
	assert.Equal(t, []string{id}, f.events.dismissed)
}

func validForm() model.RegistrationForm {
	return model.RegistrationForm{
		Prenom: "Élodie", Nom: "Martin", Email: "elodie@volzer.edu",
		Password: "secret1", ConfirmPassword: "secret1", Filiere: "informatique",
	}
}

func TestHandleRegistrationSuccess(t *testing.T) {
	f := newFixture(t)
	_, err := f.lockout.RecordFailure()
	require.NoError(t, err)

	var sent model.RegistrationData
	f.backend.register = func(_ context.Context, d model.RegistrationData) (*api.Response, error) {
		sent = d
		return &api.Response{Success: true}, nil
	}

	require.NoError(t, f.m.HandleRegistration(context.Background(), validForm()))
	assert.Equal(t, "Élodie Martin", sent.Nom)
	assert.Equal(t, "Élodie", sent.Prenom)

	assert.Equal(t, []string{analytics.EventRegisterAttempt, analytics.EventRegisterSuccess}, f.eventNames())
	assert.Equal(t, MsgRegistered, f.events.lastMessage().Text)

	ok, err := storage.Has(f.store, storage.Preferences)
	require.NoError(t, err)
	assert.True(t, ok)

	st, err := f.lockout.Status()
	require.NoError(t, err)
	assert.Equal(t, 0, st.FailedAttempts)

	ok, err = storage.Has(f.store, storage.User)
	require.NoError(t, err)
	assert.False(t, ok, "registration does not sign in")

	f.sched.Fire(RegisterRedirectDelay)
	assert.Equal(t, []string{RouteNewUser}, f.events.redirects)
}

func TestHandleRegistrationRejected(t *testing.T) {
	f := newFixture(t)
	f.backend.register = func(context.Context, model.RegistrationData) (*api.Response, error) {
		return &api.Response{Success: false, Message: "Un compte existe déjà avec cet email"}, nil
	}

	err := f.m.HandleRegistration(context.Background(), validForm())
	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "Un compte existe déjà avec cet email", rej.Message)
	assert.Equal(t, "Un compte existe déjà avec cet email", f.events.lastMessage().Text)
	assert.Equal(t, []string{analytics.EventRegisterAttempt, analytics.EventRegisterFailed}, f.eventNames())

	st, err := f.lockout.Status()
	require.NoError(t, err)
	assert.Equal(t, 0, st.FailedAttempts, "registration refusals do not count")
}

func TestHandleRegistrationTransportError(t *testing.T) {
	f := newFixture(t)
	f.backend.register = func(context.Context, model.RegistrationData) (*api.Response, error) {
		return nil, &api.TransportError{Op: "POST /api/register", Err: api.ErrUnreachable}
	}
	err := f.m.HandleRegistration(context.Background(), validForm())
	assert.True(t, api.IsTransport(err))
	assert.Equal(t, MsgServerError, f.events.lastMessage().Text)
	assert.Equal(t, []string{analytics.EventRegisterAttempt, analytics.EventRegisterError}, f.eventNames())
}

func TestHandleRegistrationValidation(t *testing.T) {
	f := newFixture(t)
	form := validForm()
	form.ConfirmPassword = "different"

	err := f.m.HandleRegistration(context.Background(), form)
	var fe *validate.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, validate.MsgPasswordMismatch, fe.Message)
	assert.Equal(t, 0, f.backend.regCalls)
	require.Len(t, f.events.fieldErrs, 1)
	assert.Equal(t, validate.FieldConfirmPassword, f.events.fieldErrs[0].Field)
	assert.Equal(t, []bool{true, false}, f.events.processing)
}

func TestCheckExistingSession(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.m.CheckExistingSession(RouteLogin), "no session yet")

	require.NoError(t, storage.Set(f.store, storage.User, testUser))
	assert.False(t, f.m.CheckExistingSession(RouteDashboard))
	assert.True(t, f.m.CheckExistingSession("/register?x=1"))

	f.sched.Fire(ExistingSessionRedirect)
	assert.Equal(t, []string{RouteDashboard}, f.events.redirects)
}

func TestAuthStatus(t *testing.T) {
	f := newFixture(t)
	st, err := f.m.AuthStatus()
	require.NoError(t, err)
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.User)

	require.NoError(t, f.m.HandleLogin(context.Background(), goodCreds))
	st, err = f.m.AuthStatus()
	require.NoError(t, err)
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, testUser.Email, st.User.Email)
	require.NotNil(t, st.LoginTime)
	assert.True(t, st.LoginTime.Equal(f.now))
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.backend.cookies = []*http.Cookie{{Name: "volzer_session", Value: "tok"}}
	require.NoError(t, f.m.HandleLogin(context.Background(), model.Credentials{Email: "elodie@volzer.edu", Password: "secret1", Remember: true}))

	require.NoError(t, f.m.Logout(context.Background()))
	assert.Equal(t, 1, f.backend.logouts)
	assert.Empty(t, f.backend.cookies)
	assert.Contains(t, f.events.redirects, RouteLogin)
	assert.Contains(t, f.eventNames(), analytics.EventUserLogout)

	for _, k := range []storage.Named{storage.User, storage.LoginTime, storage.SessionCookies} {
		snap, err := storage.Snapshot(f.store)
		require.NoError(t, err)
		_, ok := snap[k.Name()]
		assert.False(t, ok, k.Name())
	}

	email, remember := f.m.Remembered()
	assert.True(t, remember, "remember-me survives logout")
	assert.Equal(t, "elodie@volzer.edu", email)
}

func TestRememberedRequiresFlag(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.m.HandleLogin(context.Background(), goodCreds))
	email, remember := f.m.Remembered()
	assert.False(t, remember)
	assert.Empty(t, email)
}

func TestRestoreCookies(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, storage.Set(f.store, storage.SessionCookies, []model.Cookie{{Name: "volzer_session", Value: "tok"}}))

	f.m.RestoreCookies()
	require.Len(t, f.backend.cookies, 1)
	assert.Equal(t, "tok", f.backend.cookies[0].Value)
}

func TestCloseStopsPendingTimers(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.m.HandleLogin(context.Background(), goodCreds))
	require.NotEmpty(t, f.sched.Pending())

	f.m.Close()
	assert.Empty(t, f.sched.Pending())
	assert.Equal(t, 0, f.sched.Fire(LoginRedirectDelay))

	f.m.ShowMessage(events.KindError, "late")
	assert.Empty(t, f.sched.Pending(), "nothing scheduled after close")
}

func TestFiredTimersAreForgotten(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 20; i++ {
		f.m.ShowMessage(events.KindError, "boom")
	}
	assert.Equal(t, 20, f.m.pendingTimers())

	assert.Equal(t, 20, f.sched.Fire(ErrorDismissDelay))
	assert.Equal(t, 0, f.m.pendingTimers())
}

func TestProcessingSubscriberMayReadRoute(t *testing.T) {
	f := newFixture(t)
	f.m.SetRoute("/login?redirect=/profil")

	var routes []string
	sub := events.Subscribe(f.m.bus, func(p events.Processing) {
		routes = append(routes, f.m.Route())
	})
	defer sub.Unsubscribe()

	done := make(chan error, 1)
	go func() { done <- f.m.HandleLogin(context.Background(), goodCreds) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("HandleLogin blocked while a subscriber read the route")
	}
	require.Len(t, routes, 2)
	assert.Equal(t, "/login?redirect=/profil", routes[0])
}
