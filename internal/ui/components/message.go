// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/volzer-tui/internal/events"
	"github.com/jeranaias/volzer-tui/internal/ui/styles"
	"github.com/jeranaias/volzer-tui/internal/util"
)

// =============================================================================
// MESSAGE SURFACE
// =============================================================================

// MessageSurface shows the single current user-facing message. A new
// message replaces the previous one.
type MessageSurface struct {
	current *events.Message
	width   int
	theme   *styles.Theme
}

// NewMessageSurface creates an empty surface.
func NewMessageSurface(theme *styles.Theme) *MessageSurface {
	return &MessageSurface{theme: theme, width: 60}
}

// Show replaces the current message.
func (m *MessageSurface) Show(msg events.Message) {
	m.current = &msg
}

// Dismiss removes the current message if its ID matches. Dismissing a
// message that was already replaced is a no-op.
func (m *MessageSurface) Dismiss(id string) bool {
	if m.current == nil || m.current.ID != id {
		return false
	}
	m.current = nil
	return true
}

// Clear removes whatever is shown.
func (m *MessageSurface) Clear() {
	m.current = nil
}

// Current returns the message on screen.
func (m *MessageSurface) Current() (events.Message, bool) {
	if m.current == nil {
		return events.Message{}, false
	}
	return *m.current, true
}

// SetWidth sets the available width.
func (m *MessageSurface) SetWidth(width int) {
	m.width = width
}

// View renders the message, wrapped to the surface width.
func (m *MessageSurface) View() string {
	if m.current == nil {
		return ""
	}

	inner := m.width - 4
	if inner < 20 {
		inner = 20
	}
	text := styles.Indicator(m.current.Kind) + " " + m.current.Text
	lines := util.WrapWidth(text, inner)

	return m.theme.ToastStyle(m.current.Kind).Render(strings.Join(lines, "\n"))
}
