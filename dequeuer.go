// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"

	"github.com/hemant/cronqueue/internal/errors"
	"github.com/hemant/cronqueue/internal/log"
)

// Dequeuer handles the head entry of existing queues.
type Dequeuer struct {
	logger *log.Logger
	hooks  *Hooks
}

// NewDequeuer returns a new Dequeuer given a configuration.
func NewDequeuer(cfg Config) *Dequeuer {
	return &Dequeuer{
		logger: newLogger(cfg.Logger, cfg.LogLevel),
		hooks:  cfg.Hooks,
	}
}

// Dequeue runs a single dequeue attempt on q. It never retries.
//
// A nil entry with a nil error means nothing was handled: the queue was
// empty, locked by another process, or the handler failed.
func (d *Dequeuer) Dequeue(ctx context.Context, q Queue) (*Entry, error) {
	var op errors.Op = "Dequeuer.Dequeue"
	if q == nil {
		d.logger.Error("Unable to dequeue. The queue is nil.")
		return nil, errors.E(op, errors.InvalidArgument, ErrNilQueue)
	}
	name := q.Name()
	if err := checkExists(ctx, op, q); err != nil {
		d.logger.Error("Unable to find the queue.", log.Fields{"queue": name, "error": err.Error()})
		return nil, err
	}

	d.hooks.Fire(ctx, &HookEvent{Type: EventBeforeDequeue, Queue: q})
	entry, err := q.Dequeue(ctx)
	if err != nil {
		d.logger.Error("An error occurred while dequeueing.", log.Fields{"queue": name, "error": err.Error()})
		return nil, errors.E(op, errors.FailedPrecondition, err)
	}
	var entries []*Entry
	if entry != nil {
		entries = []*Entry{entry}
	}
	d.hooks.Fire(ctx, &HookEvent{Type: EventAfterDequeue, Queue: q, Entries: entries})
	if entry == nil {
		d.logger.Debug("No entry was handled.", log.Fields{"queue": name})
	}
	return entry, nil
}
