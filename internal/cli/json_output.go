// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - The --json response envelope.
//
// Every command answers with the same envelope so scripts can check
// "success" before looking at "data".
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/volzer-tui/internal/auth"
	"github.com/jeranaias/volzer-tui/internal/security"
	"github.com/jeranaias/volzer-tui/internal/session"
)

// JSONResponse is the envelope written in --json mode.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a failed response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response, indented, to w.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// String returns the indented JSON.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// =============================================================================
// COMMAND PAYLOADS
// =============================================================================

// StatusData is the payload of "status --json".
type StatusData struct {
	Auth         auth.Status    `json:"auth"`
	Lockout      LockoutData    `json:"lockout"`
	Session      session.Status `json:"session"`
	Connectivity Connectivity   `json:"connectivity"`
	StateDir     string         `json:"state_dir"`
	Backend      string         `json:"backend"`
}

// Connectivity is the result of one backend probe.
type Connectivity struct {
	Online bool   `json:"online"`
	Status string `json:"status"`
}

// LockoutData is the payload of "lockout status --json".
type LockoutData struct {
	security.State
	Remaining        int    `json:"remaining_attempts"`
	SecondsRemaining int    `json:"seconds_remaining"`
	Duration         string `json:"lockout_duration"`
}

// LoginData is the payload of "login --json".
type LoginData struct {
	Email    string `json:"email"`
	Redirect string `json:"redirect,omitempty"`
	Message  string `json:"message"`
}
