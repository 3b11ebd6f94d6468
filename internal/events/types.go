// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package events

import "time"

// MessageKind classifies a user-facing message.
type MessageKind int

const (
	KindInfo MessageKind = iota
	KindSuccess
	KindWarning
	KindError
)

// String returns the lowercase kind name.
func (k MessageKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return "info"
	}
}

// Message asks the message surface to show Text. A zero AutoDismiss keeps it
// on screen until dismissed or replaced.
type Message struct {
	ID          string
	Kind        MessageKind
	Text        string
	AutoDismiss time.Duration
}

// MessageDismissed removes the message with ID from the surface.
type MessageDismissed struct {
	ID string
}

// Processing toggles the submit controls while a request is in flight.
type Processing struct {
	Active bool
}

// Loader shows or hides the busy indicator.
type Loader struct {
	Visible bool
}

// Redirect asks the UI to navigate to a route such as "/dashboard".
type Redirect struct {
	To string
}

// LockoutStarted is published when the client refuses further login attempts.
type LockoutStarted struct {
	Until    time.Time
	Attempts int
}

// LockoutCleared is published after the lockout state is reset.
type LockoutCleared struct{}

// SessionWarning is published when the persisted login is older than the
// configured maximum age.
type SessionWarning struct {
	LoginTime time.Time
	Age       time.Duration
}

// ConnectivityChanged reports the result of a backend probe that differs
// from the previous one.
type ConnectivityChanged struct {
	Online bool
	Status string
}

// StorageChanged reports keys written by another process.
type StorageChanged struct {
	Keys []string
}

// FieldHighlight marks form fields as erroneous for Duration.
type FieldHighlight struct {
	Fields   []string
	Duration time.Duration
}

// FieldError attaches Message to a form field. An empty Message clears it.
type FieldError struct {
	Field   string
	Message string
}
