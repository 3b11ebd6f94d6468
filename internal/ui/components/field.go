// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/volzer-tui/internal/ui/styles"
)

// =============================================================================
// FORM FIELD
// =============================================================================

// Field is a labelled text input with an attached error and a temporary
// highlight. Password fields can toggle their echo mode.
type Field struct {
	Name  string
	Label string
	Input textinput.Model

	err            string
	highlightUntil time.Time
	password       bool
	revealed       bool
}

// NewField creates a plain text field.
func NewField(name, label, placeholder string) *Field {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 120
	in.Width = 38
	return &Field{Name: name, Label: label, Input: in}
}

// NewPasswordField creates a masked field.
func NewPasswordField(name, label string) *Field {
	f := NewField(name, label, "••••••")
	f.password = true
	f.Input.EchoMode = textinput.EchoPassword
	f.Input.EchoCharacter = '•'
	return f
}

// IsPassword reports whether the field masks its value.
func (f *Field) IsPassword() bool { return f.password }

// Revealed reports whether a password field currently shows its value.
func (f *Field) Revealed() bool { return f.revealed }

// ToggleReveal switches a password field between masked and plain echo.
func (f *Field) ToggleReveal() {
	if !f.password {
		return
	}
	f.revealed = !f.revealed
	if f.revealed {
		f.Input.EchoMode = textinput.EchoNormal
	} else {
		f.Input.EchoMode = textinput.EchoPassword
	}
}

// RevealHint is the action offered by the toggle key.
func (f *Field) RevealHint() string {
	if f.revealed {
		return "Cacher le mot de passe"
	}
	return "Afficher le mot de passe"
}

func (f *Field) Value() string       { return f.Input.Value() }
func (f *Field) SetValue(v string)   { f.Input.SetValue(v) }
func (f *Field) Focus() tea.Cmd      { return f.Input.Focus() }
func (f *Field) Blur()               { f.Input.Blur() }
func (f *Field) Focused() bool       { return f.Input.Focused() }
func (f *Field) Error() string       { return f.err }
func (f *Field) SetError(msg string) { f.err = msg }

// Highlight marks the field until the deadline.
func (f *Field) Highlight(until time.Time) {
	f.highlightUntil = until
}

// Highlighted reports whether the highlight is active at now.
func (f *Field) Highlighted(now time.Time) bool {
	return now.Before(f.highlightUntil)
}

// Floating reports whether the label sits above the input: when focused or
// holding a value.
func (f *Field) Floating() bool {
	return f.Input.Focused() || f.Input.Value() != ""
}

// Update forwards input messages to the text input.
func (f *Field) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.Input, cmd = f.Input.Update(msg)
	return cmd
}

// View renders label, input and error line.
func (f *Field) View(theme *styles.Theme, now time.Time) string {
	label := theme.Label.Render(f.Label)
	if f.Floating() {
		label = theme.LabelFocused.Render(f.Label)
	}

	box := theme.Field
	switch {
	case f.Highlighted(now) || f.err != "":
		box = theme.FieldHighlight
	case f.Focused():
		box = theme.FieldFocused
	}

	input := f.Input.View()
	if f.password {
		eye := "◌"
		if f.revealed {
			eye = "◉"
		}
		input = lipgloss.JoinHorizontal(lipgloss.Top, input, " ", theme.Muted.Render(eye))
	}

	parts := []string{label, box.Render(input)}
	if f.err != "" {
		parts = append(parts, theme.FieldError.Render(f.err))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
