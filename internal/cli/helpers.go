// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jeranaias/volzer-tui/internal/app"
	"github.com/jeranaias/volzer-tui/internal/config"
	"github.com/jeranaias/volzer-tui/internal/events"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env is what a command runs with. App is nil for commands that do not
// touch the state store.
type Env struct {
	App        *app.App
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Interactive allows prompts.
	Interactive bool

	// Ctx bounds network calls; nil means context.Background.
	Ctx context.Context

	prompter Prompter
}

// NewEnv returns an environment on the process stdio.
func NewEnv(cfg *config.Config, configPath string, logger *slog.Logger) *Env {
	if logger == nil {
		logger = slog.Default()
	}
	return &Env{
		Config:      cfg,
		ConfigPath:  configPath,
		Logger:      logger,
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		Interactive: IsTTY(),
	}
}

// Prompter returns the prompter, creating it on first use.
func (e *Env) Prompter() Prompter {
	if e.prompter == nil {
		e.prompter = NewPrompter(e.In, e.Out)
	}
	return e.prompter
}

// Close releases the prompter.
func (e *Env) Close() error {
	if e.prompter == nil {
		return nil
	}
	return e.prompter.Close()
}

func (e *Env) ctx() context.Context {
	if e.Ctx == nil {
		return context.Background()
	}
	return e.Ctx
}

// requireApp guards handlers that need the component graph.
func (e *Env) requireApp(command string) error {
	if e.App == nil {
		return NewCommandError(command, "run", "no state store", nil)
	}
	return nil
}

// =============================================================================
// CONFIG LOADING
// =============================================================================

// LoadConfig reads .env files, the config file and the global flag
// overrides, then validates the result. The returned path is where
// "config set" writes.
func LoadConfig(args Args) (*config.Config, string, error) {
	config.LoadDotEnv()

	var (
		cfg  *config.Config
		path = args.ConfigPath
		err  error
	)
	switch {
	case path != "" && !fileExists(path):
		// "config init --config PATH" creates it.
		cfg = config.Default()
		cfg.ApplyEnvOverrides()
	case path != "":
		cfg, err = config.LoadFromPath(path)
	default:
		path, err = config.ConfigPathTOML()
		if err != nil {
			return nil, "", &ConfigError{Err: err}
		}
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, path, &ConfigError{Path: path, Err: err}
	}

	if args.Backend != "" {
		cfg.Backend.URL = args.Backend
	}
	if args.StateDir != "" {
		cfg.Storage.Dir = args.StateDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, &ConfigError{Path: path, Err: err}
	}
	return cfg, path, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// BUS OUTPUT
// =============================================================================

// followMessages prints the messages and field errors the orchestrator
// publishes while a command runs. In JSON mode they go to stderr so stdout
// stays parseable. The returned func unsubscribes.
func (e *Env) followMessages(bus *events.Bus, jsonMode bool) func() {
	w := e.Out
	if jsonMode {
		w = e.Err
	}
	var g events.Group
	g.Add(events.Subscribe(bus, func(m events.Message) {
		fmt.Fprintln(w, RenderMessage(m))
	}))
	g.Add(events.Subscribe(bus, func(f events.FieldError) {
		if f.Message != "" {
			fmt.Fprintf(w, "  %s %s\n", DimStyle.Render(f.Field+":"), f.Message)
		}
	}))
	return g.Unsubscribe
}

// expectRedirect subscribes to Redirect events now and returns a func that
// waits up to timeout for the first one. The wait yields "" on timeout.
func expectRedirect(bus *events.Bus) func(timeout time.Duration) string {
	ch := make(chan string, 1)
	sub := events.Subscribe(bus, func(r events.Redirect) {
		select {
		case ch <- r.To:
		default:
		}
	})
	return func(timeout time.Duration) string {
		defer sub.Unsubscribe()
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case to := <-ch:
			return to
		case <-timer.C:
			return ""
		}
	}
}

// reportedError marks an error whose message the user has already seen
// through the bus. DisplayError prints nothing for it outside JSON mode.
type reportedError struct {
	error
}

func (r reportedError) Unwrap() error { return r.error }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err}
}

// alreadyReported reports whether err was shown to the user.
func alreadyReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// =============================================================================
// FORMATTING
// =============================================================================

// formatDuration renders d as "1h 05m", "4m 10s" or "12s".
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh %02dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
