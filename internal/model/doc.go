// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model holds the records exchanged with the Volzer backend and
// persisted in the local state store: users, preferences, form payloads,
// analytics events and saved cookies.
package model
