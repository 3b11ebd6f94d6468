// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage is the typed, versioned state store shared by every
// running volzer process.
//
// # Schema
//
// Values are addressed by Key[T] and wrapped in a Record carrying the key's
// schema version, so a shape change is detected on read instead of being
// silently misparsed:
//
//	user, err := storage.Get(adapter, storage.User)
//	err = storage.Set(adapter, storage.FailedAttempts, 3)
//	err = storage.Remove(adapter, storage.User, storage.LoginTime)
//
// # Backends
//
//   - FileAdapter: one JSON document, OS file lock around each transaction
//   - SQLiteAdapter: kv table in state.db (modernc.org/sqlite)
//   - MemoryAdapter: tests and throwaway sessions
//
// # Concurrency
//
// Update is exclusive across processes. Modify performs a read-modify-write
// inside a single Update, which is what the lockout counter relies on.
// Watcher turns writes from other processes into events.StorageChanged.
package storage
