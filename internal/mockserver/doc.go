// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mockserver is a development backend serving the auth endpoints
// from an in-memory account table. `volzer serve-mock` runs it, and the
// client and orchestrator tests use it behind httptest.
package mockserver
