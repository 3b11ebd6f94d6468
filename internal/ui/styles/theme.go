// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/volzer-tui/internal/events"
)

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeLight = "light"
	ModeDark  = "dark"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	renderer *lipgloss.Renderer

	// ==========================================================================
	// PAGE
	// ==========================================================================

	App      lipgloss.Style
	Header   lipgloss.Style
	Brand    lipgloss.Style
	Card     lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style
	Link     lipgloss.Style

	// ==========================================================================
	// FORM
	// ==========================================================================

	Label          lipgloss.Style
	LabelFocused   lipgloss.Style
	Field          lipgloss.Style
	FieldFocused   lipgloss.Style
	FieldHighlight lipgloss.Style
	FieldError     lipgloss.Style
	Checkbox       lipgloss.Style
	Button         lipgloss.Style
	ButtonActive   lipgloss.Style
	ButtonDisabled lipgloss.Style
	Spinner        lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastWarning lipgloss.Style
	ToastError   lipgloss.Style

	// ==========================================================================
	// LOCKOUT OVERLAY
	// ==========================================================================

	OverlayBox       lipgloss.Style
	OverlayTitle     lipgloss.Style
	OverlayBody      lipgloss.Style
	OverlayCountdown lipgloss.Style
	OverlayHint      lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar     lipgloss.Style
	StatusOnline  lipgloss.Style
	StatusOffline lipgloss.Style
	ShortcutKey   lipgloss.Style
	ShortcutDesc  lipgloss.Style

	// ==========================================================================
	// DASHBOARD
	// ==========================================================================

	Avatar       lipgloss.Style
	ProfileLabel lipgloss.Style
	ProfileValue lipgloss.Style
}

// NewTheme creates a theme for stdout. mode is "auto", "light" or "dark";
// auto follows the terminal background.
func NewTheme(mode string) *Theme {
	return NewThemeFor(os.Stdout, mode)
}

// NewThemeFor creates a theme rendering for w.
func NewThemeFor(w io.Writer, mode string) *Theme {
	r := lipgloss.NewRenderer(w)

	switch mode {
	case ModeLight:
		r.SetHasDarkBackground(false)
	case ModeDark:
		r.SetHasDarkBackground(true)
	}

	profile := r.ColorProfile()
	t := &Theme{
		IsDark:       r.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
		renderer:     r,
	}
	t.initStyles()
	return t
}

// Renderer returns the renderer the theme's styles are bound to.
func (t *Theme) Renderer() *lipgloss.Renderer {
	return t.renderer
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	s := t.renderer.NewStyle

	t.App = s()

	t.Header = s().
		Bold(true).
		Foreground(TextInverse).
		Background(Navy).
		Padding(0, 2)

	t.Brand = s().
		Bold(true).
		Foreground(Gold)

	t.Card = s().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Navy).
		Padding(1, 3)

	t.Title = s().
		Bold(true).
		Foreground(Navy)

	t.Subtitle = s().
		Foreground(TextSecondary).
		Italic(true)

	t.Muted = s().
		Foreground(TextMuted)

	t.Link = s().
		Foreground(Sky).
		Underline(true)

	// Form
	t.Label = s().
		Foreground(TextSecondary)

	t.LabelFocused = s().
		Foreground(Gold).
		Bold(true)

	t.Field = s().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Width(40)

	t.FieldFocused = t.Field.
		BorderForeground(Gold)

	t.FieldHighlight = t.Field.
		BorderForeground(Rose)

	t.FieldError = s().
		Foreground(Rose).
		Italic(true)

	t.Checkbox = s().
		Foreground(TextPrimary)

	t.Button = s().
		Foreground(TextPrimary).
		Background(Overlay).
		Padding(0, 3)

	t.ButtonActive = s().
		Foreground(TextInverse).
		Background(Navy).
		Bold(true).
		Padding(0, 3)

	t.ButtonDisabled = s().
		Foreground(TextMuted).
		Background(SurfaceDim).
		Padding(0, 3)

	t.Spinner = s().
		Foreground(Gold)

	// Messages
	toast := s().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1)

	t.ToastInfo = toast.BorderForeground(Sky).Foreground(TextPrimary)
	t.ToastSuccess = toast.BorderForeground(Emerald).Foreground(Emerald)
	t.ToastWarning = toast.BorderForeground(Amber).Foreground(Amber)
	t.ToastError = toast.BorderForeground(Rose).Foreground(Rose)

	// Lockout overlay
	t.OverlayBox = s().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Rose).
		Background(RoseDeep).
		Padding(1, 4).
		Align(lipgloss.Center)

	t.OverlayTitle = s().
		Foreground(Rose).
		Bold(true)

	t.OverlayBody = s().
		Foreground(TextPrimary)

	t.OverlayCountdown = s().
		Foreground(Amber).
		Bold(true)

	t.OverlayHint = s().
		Foreground(TextMuted).
		Italic(true)

	// Status bar
	t.StatusBar = s().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusOnline = s().
		Foreground(Emerald).
		Bold(true)

	t.StatusOffline = s().
		Foreground(Amber).
		Bold(true)

	t.ShortcutKey = s().
		Foreground(Navy).
		Bold(true)

	t.ShortcutDesc = s().
		Foreground(TextMuted)

	// Dashboard
	t.Avatar = s().
		Foreground(TextInverse).
		Background(Gold).
		Bold(true).
		Padding(0, 1)

	t.ProfileLabel = s().
		Foreground(TextMuted).
		Width(14)

	t.ProfileValue = s().
		Foreground(TextPrimary).
		Bold(true)
}

// ToastStyle returns the message style for kind.
func (t *Theme) ToastStyle(kind events.MessageKind) lipgloss.Style {
	switch kind {
	case events.KindSuccess:
		return t.ToastSuccess
	case events.KindWarning:
		return t.ToastWarning
	case events.KindError:
		return t.ToastError
	default:
		return t.ToastInfo
	}
}

// Indicator returns the ASCII shape shown next to a message of kind.
func Indicator(kind events.MessageKind) string {
	switch kind {
	case events.KindSuccess:
		return StatusIndicators.Success
	case events.KindWarning:
		return StatusIndicators.Warning
	case events.KindError:
		return StatusIndicators.Error
	default:
		return StatusIndicators.Info
	}
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
