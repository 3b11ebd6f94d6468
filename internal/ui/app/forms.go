// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/ui/components"
	"github.com/jeranaias/volzer-tui/internal/validate"
)

// =============================================================================
// LOGIN FORM
// =============================================================================

// Login focus slots after the text fields.
const (
	loginRemember = 2
	loginSubmit   = 3
	loginSlots    = 4
)

type loginForm struct {
	email    *components.Field
	password *components.Field
	remember bool
	focus    int
}

func newLoginForm(email string, remember bool) *loginForm {
	f := &loginForm{
		email:    components.NewField(validate.FieldEmail, "Email universitaire", "prenom.nom@volzer.fr"),
		password: components.NewPasswordField(validate.FieldPassword, "Mot de passe"),
		remember: remember,
	}
	f.email.SetValue(email)
	if email != "" {
		f.focus = 1
	}
	return f
}

func (f *loginForm) inputs() []*components.Field {
	return []*components.Field{f.email, f.password}
}

func (f *loginForm) field(name string) *components.Field {
	for _, in := range f.inputs() {
		if in.Name == name {
			return in
		}
	}
	return nil
}

func (f *loginForm) credentials() model.Credentials {
	return model.Credentials{
		Email:    f.email.Value(),
		Password: f.password.Value(),
		Remember: f.remember,
	}
}

// =============================================================================
// REGISTRATION FORM
// =============================================================================

// Registration focus slots after the text fields.
const (
	registerProgram    = 6
	registerNewsletter = 7
	registerSubmit     = 8
	registerSlots      = 9
)

type registerForm struct {
	prenom    *components.Field
	nom       *components.Field
	email     *components.Field
	password  *components.Field
	confirm   *components.Field
	telephone *components.Field

	program    int // 0 is "not selected", i is model.Programs[i-1]
	programErr string
	newsletter bool
	focus      int
}

func newRegisterForm() *registerForm {
	return &registerForm{
		prenom:    components.NewField("prenom", "Prénom", "Camille"),
		nom:       components.NewField(validate.FieldName, "Nom", "Martin"),
		email:     components.NewField(validate.FieldEmail, "Email universitaire", "prenom.nom@volzer.fr"),
		password:  components.NewPasswordField(validate.FieldPassword, "Mot de passe"),
		confirm:   components.NewPasswordField(validate.FieldConfirmPassword, "Confirmer le mot de passe"),
		telephone: components.NewField("telephone", "Téléphone (optionnel)", "06 12 34 56 78"),
	}
}

func (f *registerForm) inputs() []*components.Field {
	return []*components.Field{f.prenom, f.nom, f.email, f.password, f.confirm, f.telephone}
}

func (f *registerForm) field(name string) *components.Field {
	for _, in := range f.inputs() {
		if in.Name == name {
			return in
		}
	}
	return nil
}

// programLabel is the selected filière, or a prompt.
func (f *registerForm) programLabel() string {
	if f.program == 0 {
		return "Choisissez votre filière"
	}
	return model.Programs[f.program-1]
}

func (f *registerForm) cycleProgram(delta int) {
	n := len(model.Programs) + 1
	f.program = ((f.program+delta)%n + n) % n
	if f.program != 0 {
		f.programErr = ""
	}
}

func (f *registerForm) form() model.RegistrationForm {
	program := ""
	if f.program > 0 {
		program = model.Programs[f.program-1]
	}
	return model.RegistrationForm{
		Prenom:          f.prenom.Value(),
		Nom:             f.nom.Value(),
		Email:           f.email.Value(),
		Password:        f.password.Value(),
		ConfirmPassword: f.confirm.Value(),
		Filiere:         program,
		Telephone:       f.telephone.Value(),
		Newsletter:      f.newsletter,
	}
}

// liveCheck runs the checks the form performs while typing: the
// confirmation on each edit of either password field.
func (f *registerForm) liveCheck() {
	f.confirm.SetError(validate.PasswordMatch(f.password.Value(), f.confirm.Value()))
}

// =============================================================================
// FOCUS
// =============================================================================

// setFocus moves focus to slot i, wrapping. Text fields occupy the first
// slots. It returns the blink command of the focused input.
func setFocus(inputs []*components.Field, cur *int, i, slots int) tea.Cmd {
	i = ((i % slots) + slots) % slots
	*cur = i
	var cmd tea.Cmd
	for idx, in := range inputs {
		if idx == i {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
	}
	return cmd
}

// focusedInput returns the text field holding focus, if any.
func focusedInput(inputs []*components.Field, cur int) *components.Field {
	if cur >= 0 && cur < len(inputs) {
		return inputs[cur]
	}
	return nil
}
