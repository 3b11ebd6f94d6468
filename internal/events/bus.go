// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package events

import (
	"reflect"
	"sync"
)

// =============================================================================
// BUS
// =============================================================================

// Bus delivers typed events to the handlers subscribed for that exact type.
//
// Delivery is synchronous on the publishing goroutine. Handlers are invoked
// outside the bus lock, so a handler may publish or unsubscribe freely.
type Bus struct {
	mu     sync.RWMutex
	subs   map[reflect.Type]map[uint64]func(any)
	nextID uint64
	closed bool
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[reflect.Type]map[uint64]func(any))}
}

// Subscription is the handle returned by Subscribe. Unsubscribe is the only
// way a handler stops receiving events before the bus is closed.
type Subscription struct {
	bus  *Bus
	typ  reflect.Type
	id   uint64
	once sync.Once
}

// Subscribe registers fn for every published event of type T.
// Subscribing to a closed bus returns an inert subscription.
func Subscribe[T any](b *Bus, fn func(T)) *Subscription {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return &Subscription{}
	}

	b.nextID++
	id := b.nextID
	if b.subs[typ] == nil {
		b.subs[typ] = make(map[uint64]func(any))
	}
	b.subs[typ][id] = func(ev any) { fn(ev.(T)) }

	return &Subscription{bus: b, typ: typ, id: id}
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		if handlers, ok := s.bus.subs[s.typ]; ok {
			delete(handlers, s.id)
			if len(handlers) == 0 {
				delete(s.bus.subs, s.typ)
			}
		}
	})
}

// Publish delivers ev to every handler subscribed to its dynamic type.
// Publishing on a closed bus is a no-op.
func (b *Bus) Publish(ev any) {
	if ev == nil {
		return
	}
	typ := reflect.TypeOf(ev)

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := make([]func(any), 0, len(b.subs[typ]))
	for _, h := range b.subs[typ] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Close drops every subscription. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[reflect.Type]map[uint64]func(any))
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, handlers := range b.subs {
		n += len(handlers)
	}
	return n
}

// Group collects subscriptions so a screen or command can tear all of them
// down at once.
type Group struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Add records s and returns it.
func (g *Group) Add(s *Subscription) *Subscription {
	g.mu.Lock()
	g.subs = append(g.subs, s)
	g.mu.Unlock()
	return s
}

// Unsubscribe tears down every subscription in the group.
func (g *Group) Unsubscribe() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
}
