// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jeranaias/volzer-tui/internal/model"
)

// SessionCookieName is the cookie carrying the signed session.
const SessionCookieName = "volzer_session"

// RememberMaxAge is the cookie lifetime when the user ticks "remember me".
const RememberMaxAge = 30 * 24 * time.Hour

var errNoSession = errors.New("no session")

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (s *sessions) issue(w http.ResponseWriter, u model.UserRecord, remember bool) error {
	now := s.now()
	ttl := s.ttl
	if remember {
		ttl = RememberMaxAge
	}

	claims := &sessionClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   string(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.Expires = now.Add(ttl)
		cookie.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, cookie)
	return nil
}

func (s *sessions) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// subject returns the user id of a valid session cookie.
func (s *sessions) subject(r *http.Request) (model.UserID, error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return "", errNoSession
	}

	claims := &sessionClaims{}
	_, err = jwt.ParseWithClaims(c.Value, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errNoSession, err)
	}
	if claims.Subject == "" {
		return "", errNoSession
	}
	return model.UserID(claims.Subject), nil
}
