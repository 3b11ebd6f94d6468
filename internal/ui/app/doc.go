// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the bubbletea program of the volzer client.
//
// The Model owns the login, registration and dashboard screens. Business
// logic lives in the auth, security and session packages; the model only
// forwards input to them and renders what they publish on the event bus.
// A Bridge turns bus events into tea messages, one at a time, so every
// state change happens inside Update.
package app
