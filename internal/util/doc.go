// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the volzer packages.
//
//   - AtomicWriteFile: crash-safe writes (temp file, fsync, rename)
//   - TruncateWidth, WrapWidth: column-aware text layout for the terminal
//   - Initials, MaskEmail: display helpers for user records
package util
