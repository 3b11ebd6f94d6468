// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate implements the client-side checks run before any request
// leaves the program. Registration reports only the first failing rule.
package validate
