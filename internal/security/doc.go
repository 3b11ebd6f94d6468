// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package security implements the client-side login lockout: a failure
// counter and a deadline kept in the shared state store.
package security
