// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "github.com/jeranaias/volzer-tui/internal/model"

// Response is the envelope of the auth endpoints.
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	User    *model.UserRecord `json:"user,omitempty"`
}

// UserResponse is the envelope of GET /api/users/{id}.
type UserResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	User    *model.UserDetails `json:"user,omitempty"`
}

// Endpoint paths.
const (
	PathRegister  = "/api/register"
	PathLogin     = "/api/login"
	PathAuthCheck = "/api/auth/check"
	PathLogout    = "/api/auth/logout"
	PathUsers     = "/api/users/"
	PathHealth    = "/health"
)
