// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"sort"
	"sync"
)

// Registry maps queue names to queues.
//
// It is meant to be populated once at startup, but all methods are safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	queues map[string]Queue
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{queues: make(map[string]Queue)}
}

// Add registers q unless a queue with the same name is already registered.
// It reports whether q was added.
func (r *Registry) Add(q Queue) bool {
	if q == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.queues[q.Name()]; ok {
		return false
	}
	r.queues[q.Name()] = q
	return true
}

// Replace registers q, overwriting any queue with the same name.
func (r *Registry) Replace(q Queue) {
	if q == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[q.Name()] = q
}

// Get returns the queue registered under name.
// The error is a *QueueNotFoundError if there is none.
func (r *Registry) Get(name string) (Queue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queues[name]
	if !ok {
		return nil, errQueueNotFound("Registry.Get", name)
	}
	return q, nil
}

// Has reports whether a queue is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.queues[name]
	return ok
}

// Names returns the registered queue names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.queues))
	for name := range r.queues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Queues returns the registered queues ordered by name.
func (r *Registry) Queues() []Queue {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	qs := make([]Queue, 0, len(names))
	for _, name := range names {
		if q, ok := r.queues[name]; ok {
			qs = append(qs, q)
		}
	}
	return qs
}
