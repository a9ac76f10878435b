// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"
	"sync"
)

// MemoryQueue is a Queue kept entirely in process memory.
//
// It always exists. Dequeue fails fast when another goroutine is handling
// an entry, the same way a RedisQueue does when its lock is held.
type MemoryQueue struct {
	name string

	mu        sync.Mutex
	handlerID string
	handler   Handler
	fetcherID string
	fetcher   Fetcher
	staging   []*Entry
	list      []*Entry
	saved     bool
	busy      bool
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue returns an empty MemoryQueue. Only the handler and fetcher
// options apply.
func NewMemoryQueue(name string, opts ...QueueOption) *MemoryQueue {
	var o queueOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryQueue{
		name:      name,
		handlerID: o.handlerID,
		handler:   o.handler,
		fetcherID: o.fetcherID,
		fetcher:   o.fetcher,
	}
}

func (q *MemoryQueue) Name() string { return q.name }

func (q *MemoryQueue) Handler() Handler {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.handler
}

func (q *MemoryQueue) SetHandler(id string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlerID, q.handler = id, h
}

func (q *MemoryQueue) Fetcher() Fetcher {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fetcher
}

func (q *MemoryQueue) SetFetcher(id string, f Fetcher) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fetcherID, q.fetcher = id, f
}

func (q *MemoryQueue) Entries() []*Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*Entry(nil), q.staging...)
}

func (q *MemoryQueue) SetEntries(items []interface{}) error {
	entries, err := WrapAll(items)
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.staging = entries
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) Exists(ctx context.Context) bool { return true }

func (q *MemoryQueue) Size(ctx context.Context) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.list)
}

func (q *MemoryQueue) IsEmpty(ctx context.Context) bool { return q.Size(ctx) == 0 }

func (q *MemoryQueue) Enqueue(ctx context.Context, entry *Entry) bool {
	if entry == nil {
		return false
	}
	q.mu.Lock()
	q.list = append(q.list, entry)
	q.mu.Unlock()
	return true
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Entry, error) {
	q.mu.Lock()
	if len(q.list) == 0 {
		q.mu.Unlock()
		return nil, nil
	}
	h := q.handler
	if h == nil {
		q.mu.Unlock()
		return nil, ErrNoHandler
	}
	if q.busy {
		q.mu.Unlock()
		return nil, nil
	}
	q.busy = true
	head := q.list[0]
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.busy = false
		q.mu.Unlock()
	}()

	if err := handleSafely(ctx, h, head); err != nil {
		return nil, nil
	}
	q.mu.Lock()
	q.list = q.list[1:]
	q.mu.Unlock()
	return head, nil
}

// Save replaces the list with the staging entries.
func (q *MemoryQueue) Save(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list = append([]*Entry(nil), q.staging...)
	q.saved = true
	return nil
}

// Saved reports whether Save has been called since the last Delete.
func (q *MemoryQueue) Saved() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.saved
}

func (q *MemoryQueue) Delete(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list = nil
	q.saved = false
	return nil
}

func (q *MemoryQueue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list = nil
	return nil
}
