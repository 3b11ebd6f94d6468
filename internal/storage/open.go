// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "fmt"

// Backend names accepted by Open and by storage.backend in the config.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open returns the adapter for backend rooted at dir.
func Open(backend, dir string) (Adapter, error) {
	switch backend {
	case BackendFile, "":
		return NewFileAdapter(dir)
	case BackendSQLite:
		return NewSQLiteAdapter(dir)
	case BackendMemory:
		return NewMemoryAdapter(), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}
