// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// USER RECORDS
// =============================================================================

// UserID is the backend identifier of a user. The backend has been seen to
// send it both as a JSON number and as a string, so it decodes from either.
type UserID string

// UnmarshalJSON accepts 42 or "42".
func (id *UserID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*id = UserID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// UserRecord is the user object returned by /api/login and /api/auth/check.
type UserRecord struct {
	ID     UserID `json:"id"`
	Prenom string `json:"prenom"`
	Nom    string `json:"nom"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// FullName is "Prenom Nom" with surrounding space trimmed.
func (u UserRecord) FullName() string {
	return strings.TrimSpace(u.Prenom + " " + u.Nom)
}

// UserDetails is the extended record from /api/users/{id}.
type UserDetails struct {
	UserRecord
	Specialite      string `json:"specialite,omitempty"`
	DateInscription string `json:"date_inscription,omitempty"`
	Telephone       string `json:"telephone,omitempty"`
}

// JoinedAt parses DateInscription, accepting RFC 3339 timestamps and plain
// dates. ok is false when the field is empty or unparseable.
func (d UserDetails) JoinedAt() (t time.Time, ok bool) {
	if d.DateInscription == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, d.DateInscription); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// =============================================================================
// PREFERENCES
// =============================================================================

// Preferences is what the client stores under user_preferences after a
// login or registration.
type Preferences struct {
	Theme         string    `json:"theme"`
	Language      string    `json:"language"`
	Notifications bool      `json:"notifications"`
	LastActivity  time.Time `json:"last_activity"`
}

// DefaultPreferences returns the preferences written on every successful
// login and registration.
func DefaultPreferences(now time.Time) Preferences {
	return Preferences{
		Theme:         "light",
		Language:      "fr",
		Notifications: true,
		LastActivity:  now.UTC(),
	}
}
