// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/volzer-tui/internal/api"
	"github.com/jeranaias/volzer-tui/internal/app"
	"github.com/jeranaias/volzer-tui/internal/auth"
	"github.com/jeranaias/volzer-tui/internal/config"
	"github.com/jeranaias/volzer-tui/internal/mockserver"
	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/security"
	"github.com/jeranaias/volzer-tui/internal/storage"
	"github.com/jeranaias/volzer-tui/internal/validate"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"status"},
			wantSub: "status",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"list", "--limit", "50"},
			wantSub: "list",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("limit") != "50" {
					t.Errorf("Flag(limit) = %q, want %q", p.Flag("limit"), "50")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"list", "--format=yaml"},
			wantSub: "list",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("format") != "yaml" {
					t.Errorf("Flag(format) = %q, want %q", p.Flag("format"), "yaml")
				}
			},
		},
		{
			name:    "trailing boolean flag",
			args:    []string{"reset", "--yes"},
			wantSub: "reset",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("yes", "y") {
					t.Error("BoolFlag(yes) should be true")
				}
			},
		},
		{
			name:    "boolean flag before another flag",
			args:    []string{"--remember", "--email", "a@b.fr"},
			wantSub: "",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("remember") {
					t.Error("BoolFlag(remember) should be true")
				}
				if p.Flag("email", "e") != "a@b.fr" {
					t.Errorf("Flag(email) = %q", p.Flag("email"))
				}
			},
		},
		{
			name:    "explicit false",
			args:    []string{"--newsletter=false"},
			wantSub: "",
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("newsletter") {
					t.Error("BoolFlag(newsletter) should be false")
				}
				if !p.HasFlag("newsletter") {
					t.Error("HasFlag(newsletter) should be true")
				}
			},
		},
		{
			name:    "positionals",
			args:    []string{"set", "backend.url", "http://x"},
			wantSub: "set",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Positional(1) != "backend.url" || p.Positional(2) != "http://x" {
					t.Errorf("positionals = %v", p.PositionalFrom(0))
				}
				if p.PositionalCount() != 3 {
					t.Errorf("PositionalCount() = %d, want 3", p.PositionalCount())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args)
			if p.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_FlagInt(t *testing.T) {
	p := NewArgParser([]string{"--limit", "7", "--bad", "x"})

	n, ok, err := p.FlagInt("limit")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok, err = p.FlagInt("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = p.FlagInt("bad")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestArgParser_FlagOrDefault(t *testing.T) {
	p := NewArgParser([]string{"--addr", ":4000"})
	assert.Equal(t, ":4000", p.FlagOrDefault("addr", "x"))
	assert.Equal(t, "table", p.FlagOrDefault("format", "table"))
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"oui", true, false},
		{"O", true, false},
		{"yes", true, false},
		{"1", true, false},
		{"non", false, false},
		{"", false, false},
		{"off", false, false},
		{"peut-être", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBoolString(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBoolString(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBoolString(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// =============================================================================
// COMMAND LINE TESTS (cli.go)
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantCmd Command
		check   func(*testing.T, Args)
	}{
		{
			name:    "no command starts the client",
			argv:    nil,
			wantCmd: CmdTUI,
		},
		{
			name:    "alias",
			argv:    []string{"me"},
			wantCmd: CmdDashboard,
		},
		{
			name:    "global flags anywhere",
			argv:    []string{"--json", "lockout", "reset", "--state-dir", "/tmp/x", "--yes"},
			wantCmd: CmdLockout,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.JSON)
				assert.Equal(t, "/tmp/x", a.StateDir)
				assert.Equal(t, "reset", a.Subcommand)
				assert.True(t, a.Flags().BoolFlag("yes"))
				assert.Equal(t, []string{"reset", "--yes"}, a.Raw)
			},
		},
		{
			name:    "config and backend with equals",
			argv:    []string{"status", "--config=/etc/v.toml", "--backend=http://h:1"},
			wantCmd: CmdStatus,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "/etc/v.toml", a.ConfigPath)
				assert.Equal(t, "http://h:1", a.Backend)
			},
		},
		{
			name:    "version flag",
			argv:    []string{"login", "--version"},
			wantCmd: CmdVersion,
		},
		{
			name:    "help before command",
			argv:    []string{"--help"},
			wantCmd: CmdHelp,
		},
		{
			name:    "unknown command",
			argv:    []string{"frobnicate"},
			wantCmd: CmdHelp,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "frobnicate", a.Unknown)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			assert.Equal(t, tt.wantCmd, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestHandleHelpUnknownCommand(t *testing.T) {
	var buf bytes.Buffer
	err := HandleHelp(&buf, Args{Unknown: "nope"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, buf.String(), "volzer login")
}

func TestHandleVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HandleVersion(&buf, Args{JSON: true}))

	var resp struct {
		Success bool        `json:"success"`
		Data    VersionData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, Version, resp.Data.Version)
}

// =============================================================================
// ERROR TESTS (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", errors.New("boom"), ExitGeneralError},
		{"validation", ErrMissingArgument("key", ""), ExitUsageError},
		{"field", &validate.FieldError{Field: validate.FieldEmail, Message: validate.MsgEmailInvalid}, ExitUsageError},
		{"tty", &TTYRequiredError{Operation: "x"}, ExitUsageError},
		{"config", &ConfigError{Path: "p", Err: errors.New("bad")}, ExitConfigError},
		{"config invalid", config.ValidateErrors{{Field: "backend.url", Message: "is required"}}, ExitConfigError},
		{"locked", security.ErrLocked, ExitSecurityError},
		{"locked reported", reported(security.ErrLocked), ExitSecurityError},
		{"rejected", &auth.RejectedError{Message: "non", Remaining: 2}, ExitAuthError},
		{"not authenticated", fmt.Errorf("wrap: %w", auth.ErrNotAuthenticated), ExitAuthError},
		{"timeout", &api.TransportError{Op: "GET /x", Err: api.ErrTimeout}, ExitTimeoutError},
		{"deadline", context.DeadlineExceeded, ExitTimeoutError},
		{"network", &api.TransportError{Op: "GET /x", Err: api.ErrUnreachable}, ExitNetworkError},
		{"not found", &NotFoundError{Resource: "session"}, ExitNotFoundError},
		{"store not found", storage.ErrNotFound, ExitNotFoundError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, "login", &auth.RejectedError{Message: "refusé", Remaining: 3}, true)

	var resp struct {
		Success bool           `json:"success"`
		Error   string         `json:"error"`
		Command string         `json:"command"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "refusé", resp.Error)
	assert.Equal(t, "login", resp.Command)
	assert.Equal(t, "auth_error", resp.Data["error_type"])
	assert.EqualValues(t, 3, resp.Data["remaining_attempts"])
	assert.EqualValues(t, ExitAuthError, resp.Data["exit_code"])
}

func TestDisplayErrorSkipsReported(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, "login", reported(errors.New("déjà affiché")), false)
	assert.Empty(t, buf.String())

	DisplayError(&buf, "login", errors.New("nouveau"), false)
	assert.Contains(t, buf.String(), "nouveau")
}

// =============================================================================
// PROMPT AND CONFIRMATION TESTS
// =============================================================================

func TestLinePrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\nalice@volzer.edu\nsecret\no\n"), &out)
	defer p.Close()

	v, err := p.Line("Email", "last@volzer.edu")
	require.NoError(t, err)
	assert.Equal(t, "last@volzer.edu", v, "empty answer takes the default")

	v, err = p.Line("Email", "")
	require.NoError(t, err)
	assert.Equal(t, "alice@volzer.edu", v)

	v, err = p.Password("Mot de passe")
	require.NoError(t, err)
	assert.Equal(t, "secret", v)

	ok, err := p.Confirm("Continuer ?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Continuer ? (o/n)")

	_, err = p.Line("Encore", "")
	assert.ErrorIs(t, err, io.EOF)
}

func TestRequireConfirmation(t *testing.T) {
	e := &Env{In: strings.NewReader("n\n"), Out: io.Discard}

	ok, err := e.RequireConfirmation("?", ConfirmationOptions{Yes: true})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = e.RequireConfirmation("?", ConfirmationOptions{JSONMode: true})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, err = e.RequireConfirmation("?", ConfirmationOptions{})
	var tty *TTYRequiredError
	assert.ErrorAs(t, err, &tty)

	e.Interactive = true
	ok, err = e.RequireConfirmation("?", ConfirmationOptions{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWrapColumn(t *testing.T) {
	assert.Equal(t, markdownWidth, wrapColumn(DefaultTerminalWidth))
	assert.Equal(t, markdownWidth, wrapColumn(200))
	assert.Equal(t, 56, wrapColumn(60))
	assert.Equal(t, MinTerminalWidth-4, wrapColumn(MinTerminalWidth))

	assert.GreaterOrEqual(t, GetTerminalWidth(), MinTerminalWidth)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "12s", formatDuration(12*time.Second))
	assert.Equal(t, "4m 10s", formatDuration(4*time.Minute+10*time.Second))
	assert.Equal(t, "1h 05m", formatDuration(time.Hour+5*time.Minute))
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

type testEnv struct {
	*Env
	out *bytes.Buffer
	err *bytes.Buffer
	srv *mockserver.Server
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEnv wires an App on a memory store against a mock backend that
// knows elodie@volzer.edu / secret1.
func newTestEnv(t *testing.T, stdin string) *testEnv {
	t.Helper()
	srv := mockserver.New(
		mockserver.WithUserStore(mockserver.NewUserStore(bcrypt.MinCost)),
		mockserver.WithLoginRateLimit(0),
		mockserver.WithLogger(quietLogger()),
	)
	_, err := srv.Users().Create(model.RegistrationData{
		Prenom: "Élodie", Nom: "Martin", Email: "elodie@volzer.edu",
		Password: "secret1", ConfirmPassword: "secret1", Filiere: "informatique",
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	cfg := config.Default()
	cfg.Backend.URL = ts.URL
	cfg.Backend.RequestsPerSecond = 0
	cfg.Security.MaxAttempts = 2
	cfg.Storage.Dir = t.TempDir()

	a, err := app.New(cfg, quietLogger(), app.WithStore(storage.NewMemoryAdapter()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &testEnv{
		Env: &Env{
			App:        a,
			Config:     cfg,
			ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
			Logger:     quietLogger(),
			In:         strings.NewReader(stdin),
			Out:        out,
			Err:        errOut,
		},
		out: out,
		err: errOut,
		srv: srv,
	}
}

func args(argv ...string) Args {
	_, a := ParseArgs(argv)
	return a
}

func (te *testEnv) login(t *testing.T) {
	t.Helper()
	te.In = strings.NewReader("secret1\n")
	require.NoError(t, HandleLogin(te.Env, args("login", "--email", "elodie@volzer.edu", "--password-stdin", "--json")))
	te.out.Reset()
	te.err.Reset()
}

func decodeResponse(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(b, &resp), string(b))
	return resp
}

func TestLoginPrintsDashboard(t *testing.T) {
	te := newTestEnv(t, "secret1\n")

	err := HandleLogin(te.Env, args("login", "--email", "Elodie@Volzer.edu", "--password-stdin"))
	require.NoError(t, err)

	out := te.out.String()
	assert.Contains(t, out, auth.MsgLoginSuccess)
	assert.Contains(t, out, "Élodie Martin")
	assert.Contains(t, out, "elodie@volzer.edu")
	assert.Contains(t, out, "informatique")

	u, ok := te.App.Auth.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "Élodie", u.Prenom)
}

func TestLoginJSON(t *testing.T) {
	te := newTestEnv(t, "secret1\n")

	err := HandleLogin(te.Env, args("login", "--json", "--email", "elodie@volzer.edu", "--password-stdin", "--redirect", "/profil"))
	require.NoError(t, err)

	resp := decodeResponse(t, te.out.Bytes())
	assert.Equal(t, true, resp["success"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, "/profil", data["redirect"])
	assert.Contains(t, te.err.String(), auth.MsgLoginSuccess, "messages go to stderr in JSON mode")
}

func TestLoginFailuresLockOut(t *testing.T) {
	te := newTestEnv(t, "")
	attempt := func() error {
		te.In = strings.NewReader("wrong\n")
		return HandleLogin(te.Env, args("login", "--email", "elodie@volzer.edu", "--password-stdin"))
	}

	err := attempt()
	assert.Equal(t, ExitAuthError, GetExitCode(err))
	assert.True(t, alreadyReported(err))
	assert.Contains(t, te.out.String(), "1 tentatives restantes")

	err = attempt()
	var rej *auth.RejectedError
	require.ErrorAs(t, err, &rej)
	assert.True(t, rej.Locked)

	te.out.Reset()
	err = attempt()
	assert.Equal(t, ExitSecurityError, GetExitCode(err))
	assert.Contains(t, te.out.String(), "Trop de tentatives échouées")
	assert.Contains(t, te.out.String(), "Temps restant:")

	require.NoError(t, HandleLockout(te.Env, args("lockout", "reset", "--yes")))
	st, err := te.App.Lockout.Status()
	require.NoError(t, err)
	assert.False(t, st.Locked)
	assert.Zero(t, st.FailedAttempts)
}

func TestLoginWithoutTerminalNeedsFlags(t *testing.T) {
	te := newTestEnv(t, "")

	err := HandleLogin(te.Env, args("login"))
	var tty *TTYRequiredError
	assert.ErrorAs(t, err, &tty)

	err = HandleLogin(te.Env, args("login", "--password-stdin"))
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestRegisterFromFlags(t *testing.T) {
	te := newTestEnv(t, "motdepasse\n")

	err := HandleRegister(te.Env, args("register", "--json",
		"--prenom", "Noé", "--nom", "Bernard", "--email", "noe@volzer.edu",
		"--filiere", "droit", "--password-stdin"))
	require.NoError(t, err)

	data := decodeResponse(t, te.out.Bytes())["data"].(map[string]any)
	assert.Equal(t, auth.RouteNewUser, data["redirect"])
	assert.Equal(t, "noe@volzer.edu", data["email"])

	_, err = te.srv.Users().Authenticate("noe@volzer.edu", "motdepasse")
	assert.NoError(t, err)
}

func TestRegisterMissingProgram(t *testing.T) {
	te := newTestEnv(t, "motdepasse\n")

	err := HandleRegister(te.Env, args("register",
		"--prenom", "Noé", "--nom", "Bernard", "--email", "noe@volzer.edu", "--password-stdin"))
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, te.out.String(), validate.MsgProgramRequired)
}

func TestLogout(t *testing.T) {
	te := newTestEnv(t, "")

	err := HandleLogout(te.Env, args("logout", "--yes"))
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))

	te.login(t)
	err = HandleLogout(te.Env, args("logout"))
	var tty *TTYRequiredError
	require.ErrorAs(t, err, &tty, "a pipe cannot confirm")

	require.NoError(t, HandleLogout(te.Env, args("logout", "--yes")))
	_, ok := te.App.Auth.CurrentUser()
	assert.False(t, ok)
	assert.Contains(t, te.out.String(), "Déconnecté.")
}

func TestStatusJSON(t *testing.T) {
	te := newTestEnv(t, "")
	te.login(t)

	require.NoError(t, HandleStatus(te.Env, args("status", "--json")))
	data := decodeResponse(t, te.out.Bytes())["data"].(map[string]any)

	authData := data["auth"].(map[string]any)
	assert.Equal(t, true, authData["is_authenticated"])
	conn := data["connectivity"].(map[string]any)
	assert.Equal(t, true, conn["online"])
	lockout := data["lockout"].(map[string]any)
	assert.EqualValues(t, 2, lockout["remaining_attempts"])
}

func TestDashboardRequiresSession(t *testing.T) {
	te := newTestEnv(t, "")
	err := HandleDashboard(te.Env, args("dashboard"))
	assert.Equal(t, ExitAuthError, GetExitCode(err))
}

func TestDashboardJSON(t *testing.T) {
	te := newTestEnv(t, "")
	te.login(t)

	require.NoError(t, HandleDashboard(te.Env, args("dashboard", "--json")))
	data := decodeResponse(t, te.out.Bytes())["data"].(map[string]any)
	assert.Equal(t, "ÉM", data["initials"])
	assert.Equal(t, "informatique", data["program"])
}

func TestAnalyticsListFormats(t *testing.T) {
	te := newTestEnv(t, "")
	te.login(t)

	require.NoError(t, HandleAnalytics(te.Env, args("analytics", "list", "--format", "json")))
	var events []model.Event
	require.NoError(t, json.Unmarshal(te.out.Bytes(), &events), "piped output is not coloured")
	require.NotEmpty(t, events)
	assert.Equal(t, "login_attempt", events[0].Name)

	te.out.Reset()
	require.NoError(t, HandleAnalytics(te.Env, args("analytics", "--format", "yaml", "--limit", "1")))
	assert.Contains(t, te.out.String(), "name: login_success")
	assert.NotContains(t, te.out.String(), "login_attempt")

	te.out.Reset()
	require.NoError(t, HandleAnalytics(te.Env, args("analytics")))
	assert.Contains(t, te.out.String(), "login_success")

	err := HandleAnalytics(te.Env, args("analytics", "list", "--format", "xml"))
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestAnalyticsClear(t *testing.T) {
	te := newTestEnv(t, "")
	te.login(t)
	require.NotZero(t, te.App.Analytics.Len())

	require.NoError(t, HandleAnalytics(te.Env, args("analytics", "clear", "--yes", "--json")))
	assert.Zero(t, te.App.Analytics.Len())
}

func TestLockoutStatusJSON(t *testing.T) {
	te := newTestEnv(t, "")
	require.NoError(t, HandleLockout(te.Env, args("lockout", "--json")))

	data := decodeResponse(t, te.out.Bytes())["data"].(map[string]any)
	assert.EqualValues(t, 2, data["max_attempts"])
	assert.Equal(t, false, data["locked"])

	err := HandleLockout(te.Env, args("lockout", "explode"))
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestConfigCommands(t *testing.T) {
	te := newTestEnv(t, "")

	require.NoError(t, HandleConfig(te.Env, args("config", "init")))
	assert.FileExists(t, te.ConfigPath)

	err := HandleConfig(te.Env, args("config", "init"))
	assert.Equal(t, ExitConfigError, GetExitCode(err))
	require.NoError(t, HandleConfig(te.Env, args("config", "init", "--force")))

	require.NoError(t, HandleConfig(te.Env, args("config", "set", "security.max_attempts", "7")))
	cfg, err := config.LoadFromPath(te.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Security.MaxAttempts)

	err = HandleConfig(te.Env, args("config", "set", "security.max_attempts", "0"))
	assert.Equal(t, ExitConfigError, GetExitCode(err), "out of range values are not written")

	err = HandleConfig(te.Env, args("config", "set", "nope.key", "1"))
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	te.out.Reset()
	require.NoError(t, HandleConfig(te.Env, args("config", "get", "backend.url")))
	assert.Equal(t, te.Config.Backend.URL+"\n", te.out.String())

	te.out.Reset()
	require.NoError(t, HandleConfig(te.Env, args("config", "path", "--json")))
	data := decodeResponse(t, te.out.Bytes())["data"].(map[string]any)
	assert.Equal(t, true, data["exists"])
}

func TestCommandsNeedApp(t *testing.T) {
	e := &Env{Out: io.Discard, Err: io.Discard}
	for name, h := range map[string]func(*Env, Args) error{
		"login":     HandleLogin,
		"status":    HandleStatus,
		"lockout":   HandleLockout,
		"analytics": HandleAnalytics,
	} {
		assert.Error(t, h(e, Args{}), name)
	}
}
