// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/validate"
)

// Messages returned in the "message" field.
const (
	MsgRegistered       = "Compte créé avec succès"
	MsgEmailTaken       = "Un compte existe déjà avec cet email"
	MsgBadCredentials   = "Email ou mot de passe incorrect"
	MsgNotAuthenticated = "Non authentifié"
	MsgForbidden        = "Accès refusé"
	MsgUserNotFound     = "Utilisateur introuvable"
	MsgTooManyRequests  = "Trop de requêtes, réessayez plus tard"
	MsgBadRequest       = "Requête invalide"
	MsgServerError      = "Erreur interne du serveur"
)

const maxBodySize = 64 << 10

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	User    any    `json:"user,omitempty"`
}

type registerRequest struct {
	Nom             string `json:"nom" validate:"required"`
	Prenom          string `json:"prenom" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Filiere         string `json:"filiere" validate:"required"`
	Telephone       string `json:"telephone" validate:"omitempty,max=32"`
	Newsletter      bool   `json:"newsletter"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}

	d, err := s.users.Create(model.RegistrationData{
		Nom:             req.Nom,
		Prenom:          req.Prenom,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Filiere:         req.Filiere,
		Telephone:       req.Telephone,
		Newsletter:      req.Newsletter,
	})
	switch {
	case errors.Is(err, ErrEmailTaken):
		writeJSON(w, http.StatusConflict, envelope{Message: MsgEmailTaken})
		return
	case err != nil:
		s.logger.Error("register failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{Message: MsgServerError})
		return
	}

	s.logger.Info("account created", "user_id", d.ID)
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: MsgRegistered})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	d, err := s.users.Authenticate(req.Email, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, envelope{Message: MsgBadCredentials})
		return
	}
	if err := s.sessions.issue(w, d.UserRecord, req.Remember); err != nil {
		s.logger.Error("session issue failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{Message: MsgServerError})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: d.UserRecord})
}

func (s *Server) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	d, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: d.UserRecord})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.clear(w)
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	id := model.UserID(chi.URLParam(r, "id"))
	if id != me.ID {
		writeJSON(w, http.StatusForbidden, envelope{Message: MsgForbidden})
		return
	}

	d, err := s.users.ByID(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, envelope{Message: MsgUserNotFound})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: d})
}

// currentUser resolves the session cookie, answering 401 itself when
// there is none.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (model.UserDetails, bool) {
	id, err := s.sessions.subject(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, envelope{Message: MsgNotAuthenticated})
		return model.UserDetails{}, false
	}
	d, err := s.users.ByID(id)
	if err != nil {
		s.sessions.clear(w)
		writeJSON(w, http.StatusUnauthorized, envelope{Message: MsgNotAuthenticated})
		return model.UserDetails{}, false
	}
	return d, true
}

// decode reads a JSON body into dst and validates it, answering 400 itself
// on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := io.LimitReader(r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: MsgBadRequest})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: validationMessage(err)})
		return false
	}
	return true
}

// validationMessage maps the first failed rule to the message the client
// shows for the same rule.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return MsgBadRequest
	}
	fe := ve[0]
	switch fe.Field() {
	case "Nom", "Prenom":
		return validate.MsgNameRequired
	case "Email":
		if fe.Tag() == "required" {
			return validate.MsgEmailRequired
		}
		return validate.MsgEmailInvalid
	case "Password":
		if fe.Tag() == "min" {
			return validate.MsgPasswordTooShort
		}
		return validate.MsgPasswordRequired
	case "ConfirmPassword":
		return validate.MsgPasswordMismatch
	case "Filiere":
		return validate.MsgProgramRequired
	}
	return MsgBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
