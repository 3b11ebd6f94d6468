// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/volzer-tui/internal/util"
)

// =============================================================================
// FILE ADAPTER
// =============================================================================

const (
	// StateFileName is the JSON document holding every record.
	StateFileName = "state.json"

	// LockFileName is locked around every transaction. It is separate from
	// the state file because the state file is replaced by rename on commit.
	LockFileName = "state.lock"
)

// FileAdapter stores all records in a single JSON document under Dir.
//
// Every View takes a shared OS lock and every Update an exclusive one, so
// several volzer processes can share one state directory without losing
// increments to a read-modify-write race.
type FileAdapter struct {
	// Dir is the state directory, ~/.volzer/state by default.
	Dir string

	mu     sync.Mutex
	closed bool
}

// NewFileAdapter creates dir if needed and returns an adapter over it.
func NewFileAdapter(dir string) (*FileAdapter, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("storage: create state dir: %w", err)
	}
	return &FileAdapter{Dir: dir}, nil
}

// Path is the location of the state document.
func (f *FileAdapter) Path() string {
	return filepath.Join(f.Dir, StateFileName)
}

func (f *FileAdapter) View(fn func(tx Tx) error) error {
	return f.withLock(false, func() error {
		doc, err := f.read()
		if err != nil {
			return err
		}
		return fn(docTx{doc: doc})
	})
}

func (f *FileAdapter) Update(fn func(tx Tx) error) error {
	return f.withLock(true, func() error {
		doc, err := f.read()
		if err != nil {
			return err
		}
		if err := fn(docTx{doc: doc}); err != nil {
			return err
		}
		return f.write(doc)
	})
}

func (f *FileAdapter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FileAdapter) withLock(exclusive bool, fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	lf, err := os.OpenFile(filepath.Join(f.Dir, LockFileName), os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("storage: open lock file: %w", err)
	}
	defer lf.Close()

	if err := lockFile(lf, exclusive); err != nil {
		return fmt.Errorf("storage: lock state: %w", err)
	}
	defer unlockFile(lf)

	return fn()
}

func (f *FileAdapter) read() (*document, error) {
	data, err := os.ReadFile(f.Path())
	if errors.Is(err, os.ErrNotExist) {
		return newDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read state: %w", err)
	}
	if len(data) == 0 {
		return newDocument(), nil
	}

	doc := newDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", f.Path(), err)
	}
	if doc.Schema != documentSchema {
		return nil, &SchemaError{Key: StateFileName, Want: documentSchema, Got: doc.Schema}
	}
	if doc.Records == nil {
		doc.Records = make(map[string]Record)
	}
	return doc, nil
}

func (f *FileAdapter) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode state: %w", err)
	}
	if err := util.AtomicWriteFile(f.Path(), data, 0600); err != nil {
		return fmt.Errorf("storage: write state: %w", err)
	}
	return nil
}
