// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth orchestrates the login, registration and logout flows.
//
// A Manager validates input, consults the lockout, calls the backend,
// persists the session and records analytics. It never touches the
// screen: every visible change is published on an events.Bus.
package auth
