// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the Volzer backend: registration,
// login, session check, user profile and logout.
//
// Every call is bounded by a 10 second deadline. Network failures,
// timeouts and undecodable bodies come back as *TransportError; a
// well-formed {"success": false} reply is returned as a Response.
package api
