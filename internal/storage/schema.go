// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/volzer-tui/internal/model"
)

// =============================================================================
// RECORDS AND KEYS
// =============================================================================

// Record is the envelope every value is stored in. V is the schema version
// of the value's shape; a reader expecting a different version gets a
// SchemaError instead of a silently misread value.
type Record struct {
	V         int             `json:"v"`
	UpdatedAt time.Time       `json:"updated_at"`
	Value     json.RawMessage `json:"value"`
}

// Key names a stored value of type T at schema version Version.
type Key[T any] struct {
	name    string
	version int
}

// NewKey declares a typed key.
func NewKey[T any](name string, version int) Key[T] {
	return Key[T]{name: name, version: version}
}

// Name is the storage name of the key.
func (k Key[T]) Name() string { return k.name }

// Version is the schema version values are written with.
func (k Key[T]) Version() int { return k.version }

// Named is satisfied by every Key regardless of its value type.
type Named interface {
	Name() string
}

// Keys used by the auth client. The names match what the web client kept in
// localStorage so that state dumps stay comparable.
var (
	User           = NewKey[model.UserRecord]("user", 1)
	LoginTime      = NewKey[time.Time]("user_login_time", 1)
	RememberMe     = NewKey[bool]("remember_me", 1)
	Preferences    = NewKey[model.Preferences]("user_preferences", 1)
	FailedAttempts = NewKey[int]("failed_login_attempts", 1)
	LockoutUntil   = NewKey[time.Time]("auth_lockout_until", 1)
	Analytics      = NewKey[[]model.Event]("auth_analytics", 1)
	LastUsedEmail  = NewKey[string]("last_used_email", 1)
	SessionCookies = NewKey[[]model.Cookie]("session_cookies", 1)
)

// AllKeys lists every declared key, in a stable order.
func AllKeys() []Named {
	return []Named{
		User, LoginTime, RememberMe, Preferences,
		FailedAttempts, LockoutUntil, Analytics,
		LastUsedEmail, SessionCookies,
	}
}
