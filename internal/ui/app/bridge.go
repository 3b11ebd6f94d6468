// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/volzer-tui/internal/events"
)

// DefaultBridgeBuffer is the number of events queued before publishers block.
const DefaultBridgeBuffer = 256

// busMsg carries one bus event into the bubbletea loop.
type busMsg struct {
	ev any
}

// Bridge forwards bus events into the bubbletea loop. Publishers block when
// the queue is full until the program reads or the bridge is closed.
type Bridge struct {
	ch    chan busMsg
	done  chan struct{}
	once  sync.Once
	group events.Group
}

// NewBridge subscribes to every event type the UI renders.
func NewBridge(bus *events.Bus, buffer int) *Bridge {
	if buffer < 1 {
		buffer = DefaultBridgeBuffer
	}
	b := &Bridge{
		ch:   make(chan busMsg, buffer),
		done: make(chan struct{}),
	}
	forward[events.Message](b, bus)
	forward[events.MessageDismissed](b, bus)
	forward[events.Processing](b, bus)
	forward[events.Loader](b, bus)
	forward[events.Redirect](b, bus)
	forward[events.LockoutStarted](b, bus)
	forward[events.LockoutCleared](b, bus)
	forward[events.SessionWarning](b, bus)
	forward[events.ConnectivityChanged](b, bus)
	forward[events.StorageChanged](b, bus)
	forward[events.FieldHighlight](b, bus)
	forward[events.FieldError](b, bus)
	return b
}

func forward[T any](b *Bridge, bus *events.Bus) {
	b.group.Add(events.Subscribe(bus, func(ev T) {
		select {
		case b.ch <- busMsg{ev: ev}:
		case <-b.done:
		}
	}))
}

// Wait returns a command that delivers the next event. It must be re-issued
// after each delivery.
func (b *Bridge) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.done:
			return nil
		}
	}
}

// Close unsubscribes from the bus and releases blocked publishers.
func (b *Bridge) Close() {
	b.once.Do(func() {
		b.group.Unsubscribe()
		close(b.done)
	})
}
