// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"

	"github.com/hemant/cronqueue/internal/errors"
)

var (
	// ErrNoHandler indicates that a dequeue was attempted on a queue without
	// an entry handler, in memory or in its saved metadata.
	ErrNoHandler = errors.New("cronqueue: no entry handler assigned to the queue")

	// ErrNoFetcher indicates that a fetch was attempted on a queue without an entry fetcher.
	ErrNoFetcher = errors.New("cronqueue: no entry fetcher assigned to the queue")

	// ErrNilQueue indicates that an orchestrator was called without a queue.
	ErrNilQueue = errors.New("cronqueue: queue is nil")
)

// QueueNotFoundError indicates that a queue is not registered or has not
// been materialized in the store.
type QueueNotFoundError = errors.QueueNotFoundError

// IsQueueNotFound reports whether any error in err's chain is a QueueNotFoundError.
func IsQueueNotFound(err error) bool {
	return errors.IsQueueNotFound(err)
}

func errQueueNotFound(op errors.Op, name string) error {
	return errors.E(op, errors.NotFound, &errors.QueueNotFoundError{Queue: name})
}

// existenceChecker is implemented by queues that report store failures
// while checking whether they exist.
type existenceChecker interface {
	CheckExists(ctx context.Context) (bool, error)
}

// checkExists returns a *QueueNotFoundError if q does not exist, and an
// Unknown error if the store could not tell.
func checkExists(ctx context.Context, op errors.Op, q Queue) error {
	ok := false
	if c, isChecker := q.(existenceChecker); isChecker {
		var err error
		if ok, err = c.CheckExists(ctx); err != nil {
			return errors.E(op, errors.Unknown, err)
		}
	} else {
		ok = q.Exists(ctx)
	}
	if !ok {
		return errQueueNotFound(op, q.Name())
	}
	return nil
}
