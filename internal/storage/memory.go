// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "sync"

// MemoryAdapter keeps records in process memory. Used by tests and by
// `--store memory` for throwaway sessions.
type MemoryAdapter struct {
	mu     sync.RWMutex
	doc    *document
	closed bool
}

// NewMemoryAdapter returns an empty in-memory store.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{doc: newDocument()}
}

func (m *MemoryAdapter) View(fn func(tx Tx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return fn(docTx{doc: m.doc.clone()})
}

func (m *MemoryAdapter) Update(fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	work := m.doc.clone()
	if err := fn(docTx{doc: work}); err != nil {
		return err
	}
	m.doc = work
	return nil
}

func (m *MemoryAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
