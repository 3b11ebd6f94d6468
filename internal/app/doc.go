// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the volzer components together.
//
// New builds the store, event bus, lockout policy, analytics recorder,
// backend client, auth orchestrator, session watcher and connectivity
// monitor from one config. Commands that only read state use the App
// directly; the interactive client also calls Start to run the periodic
// jobs and the cross-process change feed.
package app
