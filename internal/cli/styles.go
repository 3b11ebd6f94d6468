// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for command output.
//
// Colours come from the client palette and are disabled for piped output
// and under NO_COLOR.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/volzer-tui/internal/events"
	"github.com/jeranaias/volzer-tui/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Gold).
			MarginBottom(1)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.TextPrimary).
			MarginTop(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Width(20)

	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	InfoStyle = lipgloss.NewStyle().
			Foreground(styles.Sky)

	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)
)

// RenderSeparator renders a rule of width w, 60 by default.
func RenderSeparator(w int) string {
	if w <= 0 {
		w = 60
	}
	return SeparatorStyle.Render(strings.Repeat("─", w))
}

// RenderRow renders "label   value".
func RenderRow(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}

// RenderMessage renders a bus message the way the client's toasts read.
func RenderMessage(msg events.Message) string {
	ind := styles.StatusIndicators
	switch msg.Kind {
	case events.KindSuccess:
		return SuccessStyle.Render(ind.Success) + " " + msg.Text
	case events.KindError:
		return ErrorStyle.Render(ind.Error) + " " + msg.Text
	case events.KindWarning:
		return WarningStyle.Render(ind.Warning) + " " + msg.Text
	default:
		return InfoStyle.Render(ind.Info) + " " + msg.Text
	}
}
