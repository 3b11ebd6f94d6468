// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/volzer-tui/internal/events"
)

// =============================================================================
// CHANGE WATCHER
// =============================================================================

// Publisher receives StorageChanged events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev any)
}

// Watcher observes the state directory and publishes events.StorageChanged
// with the keys whose records changed since the last observation. This is
// how one volzer process learns that another one locked the client out or
// signed the user in.
type Watcher struct {
	adapter  Adapter
	dir      string
	pub      Publisher
	debounce time.Duration
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	seen    map[string]time.Time
	pending time.Time
}

// NewWatcher prepares a watcher over dir. Start begins delivery.
func NewWatcher(a Adapter, dir string, pub Publisher, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 150 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		adapter:  a,
		dir:      dir,
		pub:      pub,
		debounce: debounce,
		logger:   logger,
		watcher:  fw,
		ctx:      ctx,
		cancel:   cancel,
		seen:     make(map[string]time.Time),
	}, nil
}

// Start records the current state as the baseline and starts watching.
func (w *Watcher) Start() error {
	if err := w.baseline(); err != nil {
		return err
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops the watcher and waits for its goroutines.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) baseline() error {
	snap, err := Snapshot(w.adapter)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for k, rec := range snap {
		w.seen[k] = rec.UpdatedAt
	}
	return nil
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isStateFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("state watcher error", "error", err)
		}
	}
}

func (w *Watcher) processPending() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case now := <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && now.Sub(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()
			if due {
				w.Poll()
			}
		}
	}
}

// Poll compares the store with the last observation and publishes the
// difference. The watcher calls it after each debounced burst of file
// events; tests call it directly.
func (w *Watcher) Poll() []string {
	snap, err := Snapshot(w.adapter)
	if err != nil {
		w.logger.Warn("state snapshot failed", "error", err)
		return nil
	}

	w.mu.Lock()
	var changed []string
	for k, rec := range snap {
		if prev, ok := w.seen[k]; !ok || !prev.Equal(rec.UpdatedAt) {
			changed = append(changed, k)
		}
		w.seen[k] = rec.UpdatedAt
	}
	for k := range w.seen {
		if _, ok := snap[k]; !ok {
			changed = append(changed, k)
			delete(w.seen, k)
		}
	}
	w.mu.Unlock()

	if len(changed) == 0 {
		return nil
	}
	sort.Strings(changed)
	w.logger.Debug("state changed", "keys", strings.Join(changed, ","))
	if w.pub != nil {
		w.pub.Publish(events.StorageChanged{Keys: changed})
	}
	return changed
}

func isStateFile(name string) bool {
	base := filepath.Base(name)
	return base == StateFileName ||
		strings.HasPrefix(base, SQLiteFileName)
}
