// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"
	"sync"
	"time"

	"github.com/hemant/cronqueue/internal/log"
)

// toucher is implemented by queues whose metadata record expires.
type toucher interface {
	Touch(ctx context.Context) error
}

// janitor is responsible for periodically renewing the metadata TTL of the
// drained queues.
type janitor struct {
	logger *log.Logger

	// channel to communicate back to the long running "janitor" goroutine.
	done chan struct{}

	// list of queues to keep alive.
	queues []Queue

	// interval between renewals.
	interval time.Duration
}

type janitorParams struct {
	logger   *log.Logger
	queues   []Queue
	interval time.Duration
}

func newJanitor(params janitorParams) *janitor {
	return &janitor{
		logger:   params.logger,
		done:     make(chan struct{}),
		queues:   params.queues,
		interval: params.interval,
	}
}

func (j *janitor) shutdown() {
	j.logger.Debug("Janitor shutting down...")
	// Signal the janitor goroutine to stop.
	j.done <- struct{}{}
}

func (j *janitor) start(wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		timer := time.NewTimer(j.interval)
		for {
			select {
			case <-j.done:
				j.logger.Debug("Janitor done")
				timer.Stop()
				return
			case <-timer.C:
				j.exec()
				timer.Reset(j.interval)
			}
		}
	}()
}

func (j *janitor) exec() {
	ctx := context.Background()
	for _, q := range j.queues {
		t, ok := q.(toucher)
		if !ok {
			continue
		}
		if err := t.Touch(ctx); err != nil {
			j.logger.Errorf("Failed to renew the metadata of queue %q: %v", q.Name(), err)
		}
	}
}
