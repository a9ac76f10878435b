// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"

	"github.com/hemant/cronqueue/internal/errors"
	"github.com/hemant/cronqueue/internal/log"
)

// Creator materializes queues in the store.
type Creator struct {
	logger *log.Logger
	hooks  *Hooks
}

// NewCreator returns a new Creator given a configuration.
func NewCreator(cfg Config) *Creator {
	return &Creator{
		logger: newLogger(cfg.Logger, cfg.LogLevel),
		hooks:  cfg.Hooks,
	}
}

// Create fetches the initial entries of q and saves it.
//
// Creating an existing queue overwrites all of its entries. It returns the
// number of entries written.
func (c *Creator) Create(ctx context.Context, q Queue) (int, error) {
	var op errors.Op = "Creator.Create"
	if q == nil {
		return 0, errors.E(op, errors.InvalidArgument, ErrNilQueue)
	}
	name := q.Name()
	f := q.Fetcher()
	if f == nil {
		c.logger.Error("Unable to create the queue. No entry fetcher is assigned to it.", log.Fields{"queue": name})
		return 0, errors.E(op, errors.FailedPrecondition, ErrNoFetcher)
	}

	c.hooks.Fire(ctx, &HookEvent{Type: EventBeforeFetch, Queue: q})
	items, err := f.Fetch(ctx)
	if err != nil {
		c.logger.Error("An error occurred while fetching the queue entries.", log.Fields{"queue": name, "error": err.Error()})
		return 0, errors.E(op, errors.Unknown, err)
	}
	if err := q.SetEntries(items); err != nil {
		c.logger.Error("The fetcher returned an item that cannot be queued.", log.Fields{"queue": name, "error": err.Error()})
		return 0, errors.E(op, errors.InvalidArgument, err)
	}
	entries := q.Entries()
	c.hooks.Fire(ctx, &HookEvent{Type: EventAfterFetch, Queue: q, Entries: entries})

	c.hooks.Fire(ctx, &HookEvent{Type: EventBeforeSave, Queue: q, Entries: entries})
	if err := q.Save(ctx); err != nil {
		c.logger.Error("Unable to save the queue.", log.Fields{"queue": name, "error": err.Error()})
		return 0, errors.E(op, errors.CanonicalCode(err), err)
	}
	c.hooks.Fire(ctx, &HookEvent{Type: EventAfterSave, Queue: q, Entries: entries})
	c.logger.Info("The queue is created.", log.Fields{"queue": name, "count": len(entries)})
	return len(entries), nil
}
