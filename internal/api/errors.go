// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrMalformed indicates the backend answered with something that is not
	// the expected JSON envelope.
	ErrMalformed = errors.New("malformed response")

	// ErrUnreachable indicates the backend could not be contacted.
	ErrUnreachable = errors.New("backend unreachable")
)

// TransportError is any failure that prevented a decoded response: the
// network, a timeout, or an undecodable body. A backend that answers
// {"success": false} is not a TransportError.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
