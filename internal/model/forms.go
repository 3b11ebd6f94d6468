// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Credentials is the login form. It lives only for the duration of a submit.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// RegistrationForm is the raw registration form as typed by the user.
type RegistrationForm struct {
	Prenom          string
	Nom             string
	Email           string
	Password        string
	ConfirmPassword string
	Filiere         string
	Telephone       string
	Newsletter      bool
}

// RegistrationData is the normalised body sent to /api/register. Nom holds
// the full name ("Prenom Nom").
type RegistrationData struct {
	Nom             string `json:"nom"`
	Prenom          string `json:"prenom"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Filiere         string `json:"filiere"`
	Telephone       string `json:"telephone"`
	Newsletter      bool   `json:"newsletter"`
}

// Programs lists the filières offered by the registration form.
var Programs = []string{
	"informatique",
	"mathematiques",
	"physique",
	"gestion",
	"droit",
	"lettres",
}
