// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/volzer-tui/internal/model"
)

// MinPasswordLength is the shortest password the registration form accepts.
const MinPasswordLength = 6

// Messages shown to the user. They are the exact strings of the web client.
const (
	MsgNameRequired     = "Le nom complet est requis"
	MsgEmailRequired    = "L'email est requis"
	MsgEmailInvalid     = "Format d'email invalide"
	MsgPasswordRequired = "Le mot de passe est requis"
	MsgPasswordTooShort = "Le mot de passe doit contenir au moins 6 caractères"
	MsgPasswordMismatch = "Les mots de passe ne correspondent pas"
	MsgProgramRequired  = "La filière est requise"
	MsgFillAllFields    = "Veuillez remplir tous les champs"
)

// Field names used in FieldError and by the form widgets.
const (
	FieldName            = "nom"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldProgram         = "filiere"
)

// emailPattern: one @, no whitespace, a dot somewhere in the domain part.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError is a failed rule. Message is user-facing.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

// IsValidEmail reports whether s looks like local@domain.tld. It is
// deliberately permissive; the backend has the final word.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// NormalizeEmail trims, NFC-normalises and lower-cases an address the way
// the form does before it is validated or sent.
func NormalizeEmail(s string) string {
	// Casers keep state, so one per call.
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(s)))
}

// NormalizeCredentials returns c with its email normalised. The password is
// left untouched.
func NormalizeCredentials(c model.Credentials) model.Credentials {
	c.Email = NormalizeEmail(c.Email)
	return c
}

// NormalizeRegistration turns the raw form into the request body.
func NormalizeRegistration(f model.RegistrationForm) model.RegistrationData {
	prenom := strings.TrimSpace(f.Prenom)
	return model.RegistrationData{
		Nom:             strings.TrimSpace(prenom + " " + strings.TrimSpace(f.Nom)),
		Prenom:          prenom,
		Email:           NormalizeEmail(f.Email),
		Password:        f.Password,
		ConfirmPassword: f.ConfirmPassword,
		Filiere:         strings.TrimSpace(f.Filiere),
		Telephone:       strings.TrimSpace(f.Telephone),
		Newsletter:      f.Newsletter,
	}
}

type rule struct {
	failed  func(d model.RegistrationData) bool
	field   string
	message string
}

// Order matters: only the first failing rule is reported.
var registrationRules = []rule{
	{func(d model.RegistrationData) bool { return d.Nom == "" || d.Prenom == "" }, FieldName, MsgNameRequired},
	{func(d model.RegistrationData) bool { return d.Email == "" }, FieldEmail, MsgEmailRequired},
	{func(d model.RegistrationData) bool { return d.Email != "" && !IsValidEmail(d.Email) }, FieldEmail, MsgEmailInvalid},
	{func(d model.RegistrationData) bool { return d.Password == "" }, FieldPassword, MsgPasswordRequired},
	{func(d model.RegistrationData) bool {
		return d.Password != "" && utf8.RuneCountInString(d.Password) < MinPasswordLength
	}, FieldPassword, MsgPasswordTooShort},
	{func(d model.RegistrationData) bool { return d.Password != d.ConfirmPassword }, FieldConfirmPassword, MsgPasswordMismatch},
	{func(d model.RegistrationData) bool { return d.Filiere == "" }, FieldProgram, MsgProgramRequired},
}

// Registration returns the first failing rule for d, or nil.
func Registration(d model.RegistrationData) error {
	for _, r := range registrationRules {
		if r.failed(d) {
			return &FieldError{Field: r.field, Message: r.message}
		}
	}
	return nil
}

// Login checks that both fields are filled and the email is well formed.
func Login(c model.Credentials) error {
	if c.Email == "" || c.Password == "" {
		return &FieldError{Message: MsgFillAllFields}
	}
	if !IsValidEmail(c.Email) {
		return &FieldError{Field: FieldEmail, Message: MsgEmailInvalid}
	}
	return nil
}

// PasswordMatch is the live check run while the confirmation is typed. It
// returns "" when there is nothing to report.
func PasswordMatch(password, confirm string) string {
	if confirm != "" && password != confirm {
		return MsgPasswordMismatch
	}
	return ""
}

// EmailField is the live check run when the email field loses focus.
func EmailField(email string) string {
	email = strings.TrimSpace(email)
	if email != "" && !IsValidEmail(email) {
		return MsgEmailInvalid
	}
	return ""
}
