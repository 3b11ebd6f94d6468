// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/volzer-tui/internal/security"
	"github.com/jeranaias/volzer-tui/internal/ui/styles"
)

// =============================================================================
// LOCKOUT OVERLAY
// =============================================================================

// LockoutTitle heads the overlay.
const LockoutTitle = "Sécurité Renforcée"

// LockoutTickMsg drives the one-second countdown.
type LockoutTickMsg struct {
	Time time.Time
}

// LockoutExpiredMsg is emitted once when the countdown reaches zero. The
// app reloads the current route in response.
type LockoutExpiredMsg struct{}

// LockoutRetryMsg is emitted when the user asks to retry before expiry.
type LockoutRetryMsg struct{}

// LockoutOverlay blocks the form while a lockout is active.
type LockoutOverlay struct {
	visible bool
	until   time.Time
	now     time.Time

	width  int
	height int
	theme  *styles.Theme
}

// NewLockoutOverlay creates a hidden overlay.
func NewLockoutOverlay(theme *styles.Theme) LockoutOverlay {
	return LockoutOverlay{theme: theme}
}

// LockoutTick schedules the next countdown tick.
func LockoutTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return LockoutTickMsg{Time: t}
	})
}

// SetSize sets the overlay dimensions.
func (o *LockoutOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// Show displays the overlay until the deadline.
func (o *LockoutOverlay) Show(until, now time.Time) {
	o.visible = true
	o.until = until
	o.now = now
}

// Hide hides the overlay.
func (o *LockoutOverlay) Hide() {
	o.visible = false
}

// IsVisible returns whether the overlay is shown.
func (o LockoutOverlay) IsVisible() bool {
	return o.visible
}

// Until returns the lockout deadline.
func (o LockoutOverlay) Until() time.Time {
	return o.until
}

// Remaining returns the time left, never negative.
func (o LockoutOverlay) Remaining() time.Duration {
	if !o.now.Before(o.until) {
		return 0
	}
	return o.until.Sub(o.now)
}

// Update handles ticks and the retry key.
func (o LockoutOverlay) Update(msg tea.Msg) (LockoutOverlay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height

	case tea.KeyMsg:
		if o.visible && msg.String() == "r" {
			return o, func() tea.Msg { return LockoutRetryMsg{} }
		}

	case LockoutTickMsg:
		if !o.visible {
			return o, nil
		}
		o.now = msg.Time
		if o.Remaining() <= 0 {
			o.visible = false
			return o, func() tea.Msg { return LockoutExpiredMsg{} }
		}
		return o, LockoutTick()
	}
	return o, nil
}

// View renders the overlay centred in the window.
func (o LockoutOverlay) View() string {
	if !o.visible {
		return ""
	}

	width := o.width
	if width == 0 {
		width = 60
	}
	height := o.height
	if height == 0 {
		height = 24
	}
	maxWidth := width - 8
	if maxWidth < 40 {
		maxWidth = 40
	}
	if maxWidth > 64 {
		maxWidth = 64
	}

	body := o.theme.OverlayBody.
		Width(maxWidth - 10).
		Align(lipgloss.Center).
		Render(security.LockoutMessage(o.until, o.now))

	content := lipgloss.JoinVertical(lipgloss.Center,
		o.theme.OverlayTitle.Render("🔒 "+LockoutTitle),
		"",
		body,
		"",
		o.theme.OverlayCountdown.Render(security.Countdown(o.Remaining())),
		"",
		o.theme.OverlayHint.Render("r : Réessayer    q : Quitter"),
	)

	box := o.theme.OverlayBox.Width(maxWidth).Render(content)

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
	)
}
