// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// SQLITE ADAPTER
// =============================================================================

// SQLiteFileName is the database file used by the sqlite backend.
const SQLiteFileName = "state.db"

// sqliteSchemaVersion tracks the kv table layout.
const sqliteSchemaVersion = 1

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    updated_at INTEGER NOT NULL, -- unix nanoseconds
    value BLOB NOT NULL
) WITHOUT ROWID;
`

// SQLiteAdapter stores records as rows of a kv table. Transactions are
// opened with BEGIN IMMEDIATE so writers from other processes queue behind
// the busy timeout instead of failing.
type SQLiteAdapter struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteAdapter opens (creating if needed) dir/state.db.
func NewSQLiteAdapter(dir string) (*SQLiteAdapter, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("storage: create state dir: %w", err)
	}
	path := filepath.Join(dir, SQLiteFileName)

	db, err := sql.Open("sqlite", "file:"+path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	// One writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}
	if _, err := db.Exec(
		`INSERT INTO metadata(key, value) VALUES('schema_version', ?)
		 ON CONFLICT(key) DO NOTHING`, strconv.Itoa(sqliteSchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: write schema version: %w", err)
	}

	var version string
	if err := db.QueryRow(`SELECT value FROM metadata WHERE key = 'schema_version'`).Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: read schema version: %w", err)
	}
	if v, _ := strconv.Atoi(version); v != sqliteSchemaVersion {
		db.Close()
		return nil, &SchemaError{Key: SQLiteFileName, Want: sqliteSchemaVersion, Got: v}
	}

	return &SQLiteAdapter{db: db, path: path}, nil
}

// Path is the database file location.
func (s *SQLiteAdapter) Path() string { return s.path }

func (s *SQLiteAdapter) View(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	doc, err := s.load(context.Background(), s.db)
	if err != nil {
		return err
	}
	return fn(docTx{doc: doc})
}

func (s *SQLiteAdapter) Update(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	before, err := s.load(ctx, tx)
	if err != nil {
		return err
	}
	after := before.clone()
	if err := fn(docTx{doc: after}); err != nil {
		return err
	}

	for key := range before.Records {
		if _, ok := after.Records[key]; !ok {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
				return fmt.Errorf("storage: delete %s: %w", key, err)
			}
		}
	}
	for key, rec := range after.Records {
		if old, ok := before.Records[key]; ok && sameRecord(old, rec) {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv(key, version, updated_at, value) VALUES(?, ?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET version = excluded.version,
			   updated_at = excluded.updated_at, value = excluded.value`,
			key, rec.V, rec.UpdatedAt.UnixNano(), []byte(rec.Value))
		if err != nil {
			return fmt.Errorf("storage: write %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

func (s *SQLiteAdapter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteAdapter) load(ctx context.Context, q queryer) (*document, error) {
	rows, err := q.QueryContext(ctx, `SELECT key, version, updated_at, value FROM kv`)
	if err != nil {
		return nil, fmt.Errorf("storage: query: %w", err)
	}
	defer rows.Close()

	doc := newDocument()
	for rows.Next() {
		var (
			key     string
			version int
			updated int64
			value   []byte
		)
		if err := rows.Scan(&key, &version, &updated, &value); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		doc.Records[key] = Record{
			V:         version,
			UpdatedAt: time.Unix(0, updated).UTC(),
			Value:     value,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: rows: %w", err)
	}
	return doc, nil
}

func sameRecord(a, b Record) bool {
	return a.V == b.V && a.UpdatedAt.Equal(b.UpdatedAt) && bytes.Equal(a.Value, b.Value)
}
