// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/volzer-tui/internal/auth"
	"github.com/jeranaias/volzer-tui/internal/ui/components"
)

// Brand is the title shown in the header.
const Brand = "Volzer Université"

// View implements tea.Model.
func (m *Model) View() string {
	if m.overlay.IsVisible() {
		return m.overlay.View()
	}

	now := m.now()
	t := m.deps.Theme

	var body string
	switch m.screen {
	case ScreenRegister:
		body = m.viewRegister(now)
	case ScreenDashboard:
		body = m.viewDashboard()
	default:
		body = m.viewLogin(now)
	}

	parts := []string{
		t.Header.Render(Brand),
		"",
		body,
	}
	if m.loading {
		parts = append(parts, m.spinner.View()+" "+t.Muted.Render("Connexion en cours..."))
	}
	if msg := m.messages.View(); msg != "" {
		parts = append(parts, msg)
	}

	m.status.SetShortcuts(m.shortcuts()...)
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.height > 0 {
		gap := m.height - lipgloss.Height(content) - 1
		if gap > 0 {
			content += strings.Repeat("\n", gap)
		}
	}
	return content + "\n" + m.status.View(now)
}

func (m *Model) shortcuts() []components.Shortcut {
	switch m.screen {
	case ScreenDashboard:
		return []components.Shortcut{{Key: "l", Desc: "déconnexion"}, {Key: "ctrl+c", Desc: "quitter"}}
	default:
		return []components.Shortcut{
			{Key: "tab", Desc: "suivant"},
			{Key: "entrée", Desc: "valider"},
			{Key: "ctrl+n", Desc: m.switchLabel()},
			{Key: "ctrl+c", Desc: "quitter"},
		}
	}
}

func (m *Model) switchLabel() string {
	if m.screen == ScreenRegister {
		return "connexion"
	}
	return "inscription"
}

func checkbox(checked bool, label string) string {
	if checked {
		return "[x] " + label
	}
	return "[ ] " + label
}

func (m *Model) button(label string, focused bool) string {
	t := m.deps.Theme
	switch {
	case m.processing:
		return t.ButtonDisabled.Render(label)
	case focused:
		return t.ButtonActive.Render(label)
	default:
		return t.Button.Render(label)
	}
}

// focusMark prefixes the row holding focus.
func focusMark(focused bool, s string) string {
	if focused {
		return "› " + s
	}
	return "  " + s
}

// =============================================================================
// LOGIN
// =============================================================================

func (m *Model) viewLogin(now time.Time) string {
	t := m.deps.Theme
	f := m.login

	subtitle := "Accédez à votre espace étudiant"
	if strings.Contains(m.route, "new_user=true") {
		subtitle = "Votre compte est prêt, connectez-vous"
	}

	rows := []string{
		t.Title.Render("Connexion"),
		t.Subtitle.Render(subtitle),
		"",
		f.email.View(t, now),
		"",
		f.password.View(t, now),
		"",
		focusMark(f.focus == loginRemember, t.Checkbox.Render(checkbox(f.remember, "Se souvenir de moi"))),
		"",
		m.button("Se connecter", f.focus == loginSubmit),
		"",
		t.Muted.Render("Pas encore de compte ? ") + t.Link.Render("ctrl+n"),
	}
	return t.Card.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// =============================================================================
// REGISTRATION
// =============================================================================

func (m *Model) viewRegister(now time.Time) string {
	t := m.deps.Theme
	f := m.register

	program := "‹ " + f.programLabel() + " ›"
	programRow := []string{
		t.Label.Render("Filière"),
		focusMark(f.focus == registerProgram, program),
	}
	if f.programErr != "" {
		programRow = append(programRow, t.FieldError.Render(f.programErr))
	}

	rows := []string{
		t.Title.Render("Inscription"),
		t.Subtitle.Render("Rejoignez le réseau de l'université"),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, f.prenom.View(t, now), "  ", f.nom.View(t, now)),
		f.email.View(t, now),
		f.password.View(t, now),
		f.confirm.View(t, now),
		f.telephone.View(t, now),
		lipgloss.JoinVertical(lipgloss.Left, programRow...),
		focusMark(f.focus == registerNewsletter, t.Checkbox.Render(checkbox(f.newsletter, "Recevoir la newsletter"))),
		"",
		m.button("Créer mon compte", f.focus == registerSubmit),
		"",
		t.Muted.Render("Déjà inscrit ? ") + t.Link.Render("ctrl+n"),
	}
	return t.Card.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// =============================================================================
// DASHBOARD
// =============================================================================

func (m *Model) viewDashboard() string {
	t := m.deps.Theme

	switch {
	case m.dashLoading:
		return t.Card.Render(m.spinner.View() + " " + t.Muted.Render("Chargement du profil..."))
	case m.dash == nil:
		msg := m.dashErr
		if msg == "" {
			msg = "Profil indisponible"
		}
		return t.Card.Render(t.FieldError.Render(msg))
	}

	d := m.dash
	row := func(label, value string) string {
		if value == "" {
			value = "-"
		}
		return t.ProfileLabel.Render(label) + t.ProfileValue.Render(value)
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		t.Avatar.Render(d.Initials),
		"  ",
		t.Title.Render("Bonjour, "+d.User.Prenom),
	)

	rows := []string{
		header,
		"",
		row("Nom complet", d.User.FullName()),
		row("Email", d.User.Email),
		row("Rôle", d.User.Role),
		row("Filière", d.Program),
		row("Inscrit le", d.JoinDate),
	}
	if m.confirmLogout {
		rows = append(rows, "", t.OverlayCountdown.Render(auth.MsgLogoutConfirm+" (o/n)"))
	}
	return t.Card.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
