// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - The interactive client.
package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/volzer-tui/internal/auth"
	tui "github.com/jeranaias/volzer-tui/internal/ui/app"
	"github.com/jeranaias/volzer-tui/internal/ui/styles"
)

// RunTUI starts the background components and runs the client until the
// user quits. --route picks the first screen; without it a signed-in user
// lands on the dashboard.
func RunTUI(e *Env, args Args, started time.Time) error {
	if err := e.requireApp("tui"); err != nil {
		return err
	}
	if !IsTTY() || !IsStdoutTTY() {
		return &TTYRequiredError{Operation: "the interactive client; use the subcommands instead"}
	}
	a := e.App

	if err := a.Start(e.ctx()); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	route := args.Flags().Flag("route")
	if route == "" {
		route = auth.RouteLogin
		if _, ok := a.Auth.CurrentUser(); ok {
			route = auth.RouteDashboard
		}
	}
	m := tui.New(tui.Deps{
		Auth:             a.Auth,
		Lockout:          a.Lockout,
		Analytics:        a.Analytics,
		Bus:              a.Bus,
		Theme:            styles.NewTheme(e.Config.UI.Theme),
		Session:          a.Session,
		ShowConnectivity: e.Config.UI.ShowConnectivity,
		Started:          started,
		Logger:           e.Logger,
	}, route)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(e.ctx()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive client: %w", err)
	}
	return nil
}
