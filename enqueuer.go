// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"

	"github.com/hemant/cronqueue/internal/errors"
	"github.com/hemant/cronqueue/internal/log"
)

// Enqueuer adds new entries to existing queues.
type Enqueuer struct {
	logger *log.Logger
	hooks  *Hooks
	redact func(*Entry) interface{}
}

// NewEnqueuer returns a new Enqueuer given a configuration.
func NewEnqueuer(cfg Config) *Enqueuer {
	return &Enqueuer{
		logger: newLogger(cfg.Logger, cfg.LogLevel),
		hooks:  cfg.Hooks,
		redact: cfg.Redact,
	}
}

// Fetch pulls new items from the queue's fetcher and enqueues each of them.
//
// It returns the number of entries fetched. Entries that could not be
// stored are logged and still counted.
func (e *Enqueuer) Fetch(ctx context.Context, q Queue) (int, error) {
	var op errors.Op = "Enqueuer.Fetch"
	if q == nil {
		e.logger.Error("Unable to fetch. The queue is nil.")
		return 0, errors.E(op, errors.InvalidArgument, ErrNilQueue)
	}
	name := q.Name()
	if err := checkExists(ctx, op, q); err != nil {
		e.logger.Error("Unable to find the queue.", log.Fields{"queue": name, "error": err.Error()})
		return 0, err
	}
	f := q.Fetcher()
	if f == nil {
		e.logger.Error("Unable to fetch. No entry fetcher is assigned to the queue.", log.Fields{"queue": name})
		return 0, errors.E(op, errors.FailedPrecondition, ErrNoFetcher)
	}

	e.hooks.Fire(ctx, &HookEvent{Type: EventBeforeFetch, Queue: q})
	items, err := f.Fetch(ctx)
	if err != nil {
		e.logger.Error("An error occurred while fetching new entries.", log.Fields{"queue": name, "error": err.Error()})
		return 0, errors.E(op, errors.Unknown, err)
	}
	entries, err := WrapAll(items)
	if err != nil {
		e.logger.Error("The fetcher returned an item that cannot be enqueued.", log.Fields{"queue": name, "error": err.Error()})
		return 0, errors.E(op, errors.InvalidArgument, err)
	}
	e.hooks.Fire(ctx, &HookEvent{Type: EventAfterFetch, Queue: q, Entries: entries})

	for _, entry := range entries {
		e.Enqueue(ctx, q, entry)
	}
	e.logger.Info("Fetched new entries.", log.Fields{"queue": name, "count": len(entries)})
	return len(entries), nil
}

// Enqueue appends a single entry to q and reports whether it was stored.
func (e *Enqueuer) Enqueue(ctx context.Context, q Queue, entry *Entry) bool {
	if q == nil {
		e.logger.Error("Unable to enqueue. The queue is nil.")
		return false
	}
	name := q.Name()
	if err := checkExists(ctx, "Enqueuer.Enqueue", q); err != nil {
		e.logger.Error("Unable to find the queue.", log.Fields{"queue": name, "error": err.Error()})
		return false
	}
	e.hooks.Fire(ctx, &HookEvent{Type: EventBeforeEnqueue, Queue: q, Entries: []*Entry{entry}})
	if !q.Enqueue(ctx, entry) {
		e.logger.Error("Unable to enqueue the entry.", log.Fields{"queue": name, "entry": e.describe(entry)})
		return false
	}
	e.hooks.Fire(ctx, &HookEvent{Type: EventAfterEnqueue, Queue: q, Entries: []*Entry{entry}})
	e.logger.Debug("Enqueued.", log.Fields{"queue": name})
	return true
}

func (e *Enqueuer) describe(entry *Entry) interface{} {
	if e.redact != nil {
		return e.redact(entry)
	}
	return entry.String()
}
