// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"
	"time"
)

// A Handler processes a single dequeued entry.
//
// Handle should return nil if the processing of the entry is successful.
// If Handle returns a non-nil error or panics, the entry stays at the head
// of the queue and is handed out again by a later dequeue.
type Handler interface {
	Handle(context.Context, *Entry) error
}

// The HandlerFunc type is an adapter to allow the use of
// ordinary functions as a Handler.
type HandlerFunc func(context.Context, *Entry) error

// Handle calls fn(ctx, entry)
func (fn HandlerFunc) Handle(ctx context.Context, entry *Entry) error {
	return fn(ctx, entry)
}

// A Fetcher produces new raw items to enqueue.
//
// Items that are not entries are wrapped with Wrap. Fetch may return a nil
// slice when there is nothing new.
type Fetcher interface {
	Fetch(context.Context) ([]interface{}, error)
}

// The FetcherFunc type is an adapter to allow the use of
// ordinary functions as a Fetcher.
type FetcherFunc func(context.Context) ([]interface{}, error)

// Fetch calls fn(ctx)
func (fn FetcherFunc) Fetch(ctx context.Context) ([]interface{}, error) {
	return fn(ctx)
}

// HandlerResolver looks up a handler by the identity saved in a queue's metadata.
type HandlerResolver interface {
	ResolveHandler(id string) (Handler, bool)
}

// Queue is a named FIFO of entries with an assigned handler and fetcher.
//
// RedisQueue is the persistent implementation; MemoryQueue keeps everything
// in process.
type Queue interface {
	// Name returns the unique, immutable queue name.
	Name() string

	Handler() Handler
	SetHandler(id string, h Handler)
	Fetcher() Fetcher
	SetFetcher(id string, f Fetcher)

	// Entries returns the in-memory staging entries written by the next Save.
	Entries() []*Entry
	// SetEntries wraps items and replaces the staging entries.
	SetEntries(items []interface{}) error

	// Exists reports whether the queue has been materialized.
	Exists(ctx context.Context) bool
	// Size returns the number of stored entries, or 0 if it cannot be read.
	Size(ctx context.Context) int
	IsEmpty(ctx context.Context) bool

	// Enqueue appends entry to the tail and reports whether it was stored.
	Enqueue(ctx context.Context, entry *Entry) bool
	// Dequeue handles the head entry and removes it on success.
	// It returns the handled entry, or nil if nothing was handled.
	// The error is non-nil only when the queue cannot be dequeued at all.
	Dequeue(ctx context.Context) (*Entry, error)

	// Save replaces the stored entries with the staging entries.
	Save(ctx context.Context) error
	// Delete removes the queue with its entries and lock.
	Delete(ctx context.Context) error
	// Clear removes all stored entries.
	Clear(ctx context.Context) error
}

type queueOptions struct {
	handlerID   string
	handler     Handler
	fetcherID   string
	fetcher     Fetcher
	resolver    HandlerResolver
	logger      Logger
	logLevel    LogLevel
	metrics     *Metrics
	lockTTL     time.Duration
	metadataTTL time.Duration
	trimBatch   int
}

// QueueOption specifies the queue construction behavior.
type QueueOption func(*queueOptions)

// WithHandler assigns the entry handler. The id is saved with the queue
// metadata so that a process without the handler in memory can resolve it.
func WithHandler(id string, h Handler) QueueOption {
	return func(o *queueOptions) {
		o.handlerID = id
		o.handler = h
	}
}

// WithFetcher assigns the entry fetcher and its identity.
func WithFetcher(id string, f Fetcher) QueueOption {
	return func(o *queueOptions) {
		o.fetcherID = id
		o.fetcher = f
	}
}

// WithHandlerResolver sets the resolver used when a dequeue finds no handler in memory.
func WithHandlerResolver(r HandlerResolver) QueueOption {
	return func(o *queueOptions) { o.resolver = r }
}

// WithLogger sets the queue logger and its threshold.
func WithLogger(l Logger, level LogLevel) QueueOption {
	return func(o *queueOptions) {
		o.logger = l
		o.logLevel = level
	}
}

// WithMetrics sets the collectors updated by the queue.
func WithMetrics(m *Metrics) QueueOption {
	return func(o *queueOptions) { o.metrics = m }
}

// WithLockTTL sets the lease given to the dequeue lock.
//
// If unset, zero or negative, the lease is 5 minutes.
func WithLockTTL(d time.Duration) QueueOption {
	return func(o *queueOptions) { o.lockTTL = d }
}

// WithMetadataTTL sets how long a saved metadata record lives.
//
// If unset, zero or negative, the record lives for 30 days.
func WithMetadataTTL(d time.Duration) QueueOption {
	return func(o *queueOptions) { o.metadataTTL = d }
}

// WithTrimBatchSize sets how many entries a single trim command removes when
// the list is cleared.
//
// If unset, zero or negative, 100 entries are removed per command.
func WithTrimBatchSize(n int) QueueOption {
	return func(o *queueOptions) { o.trimBatch = n }
}
