// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"
	"sync"
)

// Event names a lifecycle point at which listeners are notified.
type Event string

// Lifecycle events fired by the orchestrators.
const (
	EventBeforeFetch   Event = "before_fetch"
	EventAfterFetch    Event = "after_fetch"
	EventBeforeEnqueue Event = "before_enqueue"
	EventAfterEnqueue  Event = "after_enqueue"
	EventBeforeDequeue Event = "before_dequeue"
	EventAfterDequeue  Event = "after_dequeue"
	EventBeforeSave    Event = "before_save"
	EventAfterSave     Event = "after_save"
)

// HookEvent describes a fired lifecycle event.
type HookEvent struct {
	Type  Event
	Queue Queue

	// Entries holds the entries involved, if any: the fetched entries after a
	// fetch, the enqueued entry, the dequeued entry or the saved entries.
	Entries []*Entry
}

// Listener is notified of lifecycle events.
type Listener interface {
	OnEvent(ctx context.Context, ev *HookEvent)
}

// The ListenerFunc type is an adapter to allow the use of
// ordinary functions as a Listener.
type ListenerFunc func(ctx context.Context, ev *HookEvent)

// OnEvent calls fn(ctx, ev)
func (fn ListenerFunc) OnEvent(ctx context.Context, ev *HookEvent) {
	fn(ctx, ev)
}

// Hooks holds the listeners registered for lifecycle events.
//
// A nil *Hooks is valid and fires nothing.
type Hooks struct {
	mu       sync.RWMutex
	generic  map[Event][]Listener
	perQueue map[string]map[Event][]Listener
}

// NewHooks returns a Hooks with no listeners.
func NewHooks() *Hooks {
	return &Hooks{
		generic:  make(map[Event][]Listener),
		perQueue: make(map[string]map[Event][]Listener),
	}
}

// On registers l for ev on every queue.
func (h *Hooks) On(ev Event, l Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.generic[ev] = append(h.generic[ev], l)
}

// OnQueue registers l for ev on the queue named qname.
func (h *Hooks) OnQueue(qname string, ev Event, l Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.perQueue[qname]
	if !ok {
		m = make(map[Event][]Listener)
		h.perQueue[qname] = m
	}
	m[ev] = append(m[ev], l)
}

// Fire notifies the listeners of ev synchronously: first those registered
// with On, then those registered with OnQueue for the event's queue, each in
// registration order.
func (h *Hooks) Fire(ctx context.Context, ev *HookEvent) {
	if h == nil || ev == nil {
		return
	}
	h.mu.RLock()
	listeners := append([]Listener(nil), h.generic[ev.Type]...)
	if ev.Queue != nil {
		listeners = append(listeners, h.perQueue[ev.Queue.Name()][ev.Type]...)
	}
	h.mu.RUnlock()
	for _, l := range listeners {
		l.OnEvent(ctx, ev)
	}
}
