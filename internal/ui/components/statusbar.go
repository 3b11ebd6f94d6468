// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/volzer-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Shortcut is a key hint shown on the right of the bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar shows connectivity changes for a short while, plus key hints.
type StatusBar struct {
	online    bool
	text      string
	shownAt   time.Time
	display   time.Duration
	enabled   bool
	shortcuts []Shortcut

	Width int
	theme *styles.Theme
}

// NewStatusBar creates a status bar that keeps each connectivity change on
// screen for display.
func NewStatusBar(theme *styles.Theme, display time.Duration) *StatusBar {
	return &StatusBar{
		theme:   theme,
		display: display,
		enabled: true,
		Width:   80,
	}
}

// SetEnabled turns the connectivity section on or off.
func (s *StatusBar) SetEnabled(enabled bool) {
	s.enabled = enabled
}

// SetShortcuts replaces the key hints.
func (s *StatusBar) SetShortcuts(shortcuts ...Shortcut) {
	s.shortcuts = shortcuts
}

// ShowConnectivity records a connectivity change at now.
func (s *StatusBar) ShowConnectivity(online bool, text string, now time.Time) {
	s.online = online
	s.text = text
	s.shownAt = now
}

// ConnectivityVisible reports whether the last change is still displayed.
func (s *StatusBar) ConnectivityVisible(now time.Time) bool {
	if !s.enabled || s.text == "" {
		return false
	}
	return now.Sub(s.shownAt) < s.display
}

// View renders the bar at now.
func (s *StatusBar) View(now time.Time) string {
	var left string
	if s.ConnectivityVisible(now) {
		if s.online {
			left = s.theme.StatusOnline.Render("● " + s.text)
		} else {
			left = s.theme.StatusOffline.Render("○ " + s.text)
		}
	}

	hints := make([]string, 0, len(s.shortcuts))
	for _, sc := range s.shortcuts {
		hints = append(hints, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	right := strings.Join(hints, "  ")

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}
