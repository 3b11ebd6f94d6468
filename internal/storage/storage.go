// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// ErrClosed is returned by adapters used after Close.
var ErrClosed = errors.New("storage: adapter closed")

// SchemaError reports a stored record that does not match its key's
// declared type or version.
type SchemaError struct {
	Key  string
	Want int
	Got  int
	Err  error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage: %s: cannot decode v%d value: %v", e.Key, e.Got, e.Err)
	}
	return fmt.Sprintf("storage: %s: schema v%d, want v%d", e.Key, e.Got, e.Want)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// =============================================================================
// ADAPTER
// =============================================================================

// Tx is the view of the store inside View or Update. Records put in a
// read-only transaction are discarded.
type Tx interface {
	Get(key string) (Record, bool)
	Put(key string, rec Record)
	Delete(key string)
	Keys() []string
}

// Adapter is a persistence backend. Update runs fn with exclusive access
// across every process sharing the backend and commits only when fn
// returns nil.
type Adapter interface {
	View(fn func(tx Tx) error) error
	Update(fn func(tx Tx) error) error
	Close() error
}

// =============================================================================
// TYPED ACCESS
// =============================================================================

// Lookup decodes k from tx. ok is false when k is absent.
func Lookup[T any](tx Tx, k Key[T]) (v T, ok bool, err error) {
	rec, found := tx.Get(k.name)
	if !found {
		return v, false, nil
	}
	if rec.V != k.version {
		return v, false, &SchemaError{Key: k.name, Want: k.version, Got: rec.V}
	}
	if err := json.Unmarshal(rec.Value, &v); err != nil {
		return v, false, &SchemaError{Key: k.name, Want: k.version, Got: rec.V, Err: err}
	}
	return v, true, nil
}

// Put encodes v under k, stamped with now.
func Put[T any](tx Tx, k Key[T], v T, now time.Time) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", k.name, err)
	}
	tx.Put(k.name, Record{V: k.version, UpdatedAt: now.UTC(), Value: raw})
	return nil
}

// Get reads k, returning ErrNotFound when it is absent.
func Get[T any](a Adapter, k Key[T]) (T, error) {
	var out T
	err := a.View(func(tx Tx) error {
		v, ok, err := Lookup(tx, k)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		out = v
		return nil
	})
	return out, err
}

// GetOr reads k and falls back to def when it is absent. Schema errors are
// still returned.
func GetOr[T any](a Adapter, k Key[T], def T) (T, error) {
	v, err := Get(a, k)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return v, err
}

// Set writes v under k.
func Set[T any](a Adapter, k Key[T], v T) error {
	return a.Update(func(tx Tx) error {
		return Put(tx, k, v, time.Now())
	})
}

// Modify applies fn to the current value of k (zero value and false when
// absent) and stores the result, all inside one exclusive transaction.
func Modify[T any](a Adapter, k Key[T], fn func(cur T, ok bool) (T, error)) (T, error) {
	var out T
	err := a.Update(func(tx Tx) error {
		cur, ok, err := Lookup(tx, k)
		if err != nil {
			return err
		}
		next, err := fn(cur, ok)
		if err != nil {
			return err
		}
		out = next
		return Put(tx, k, next, time.Now())
	})
	return out, err
}

// Remove deletes the given keys in a single transaction.
func Remove(a Adapter, keys ...Named) error {
	return a.Update(func(tx Tx) error {
		for _, k := range keys {
			tx.Delete(k.Name())
		}
		return nil
	})
}

// Has reports whether k currently holds a value.
func Has[T any](a Adapter, k Key[T]) (bool, error) {
	found := false
	err := a.View(func(tx Tx) error {
		_, found = tx.Get(k.name)
		return nil
	})
	return found, err
}

// Snapshot returns every record, keyed by name.
func Snapshot(a Adapter) (map[string]Record, error) {
	out := make(map[string]Record)
	err := a.View(func(tx Tx) error {
		for _, name := range tx.Keys() {
			rec, _ := tx.Get(name)
			out[name] = rec
		}
		return nil
	})
	return out, err
}

// =============================================================================
// IN-MEMORY DOCUMENT
// =============================================================================

// document is the decoded form shared by the file and memory adapters.
type document struct {
	Schema  int               `json:"schema"`
	Records map[string]Record `json:"records"`
}

const documentSchema = 1

func newDocument() *document {
	return &document{Schema: documentSchema, Records: make(map[string]Record)}
}

func (d *document) clone() *document {
	c := newDocument()
	for k, v := range d.Records {
		c.Records[k] = v
	}
	return c
}

// docTx implements Tx over a document.
type docTx struct {
	doc *document
}

func (t docTx) Get(key string) (Record, bool) {
	rec, ok := t.doc.Records[key]
	return rec, ok
}

func (t docTx) Put(key string, rec Record) { t.doc.Records[key] = rec }

func (t docTx) Delete(key string) { delete(t.doc.Records, key) }

func (t docTx) Keys() []string {
	keys := make([]string, 0, len(t.doc.Records))
	for k := range t.doc.Records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
