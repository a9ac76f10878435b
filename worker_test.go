// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hemant/cronqueue/internal/base"
	"github.com/hemant/cronqueue/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerDrainsQueues(t *testing.T) {
	ctx := context.Background()
	h1, h2 := &recordingHandler{}, &recordingHandler{}
	q1 := NewMemoryQueue("one", WithHandler("h1", h1))
	q2 := NewMemoryQueue("two", WithHandler("h2", h2))
	for _, p := range []string{"a", "b", "c"} {
		q1.Enqueue(ctx, NewEntry([]byte(p)))
		q2.Enqueue(ctx, NewEntry([]byte(p)))
	}

	d := NewDequeuer(Config{Logger: newTestLogger()})
	w := NewWorker(d, []Queue{q1, q2}, WorkerConfig{Interval: time.Hour, Logger: newTestLogger()})
	require.NoError(t, w.Start())
	defer w.Shutdown()

	require.Eventually(t, func() bool {
		return q1.IsEmpty(ctx) && q2.IsEmpty(ctx)
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, h1.payloads())
	assert.Equal(t, []string{"a", "b", "c"}, h2.payloads())
}

func TestWorkerBatchSize(t *testing.T) {
	ctx := context.Background()
	h := &recordingHandler{}
	q := NewMemoryQueue("batch", WithHandler("h", h))
	for _, p := range []string{"1", "2", "3", "4", "5"} {
		q.Enqueue(ctx, NewEntry([]byte(p)))
	}

	w := NewWorker(NewDequeuer(Config{Logger: newTestLogger()}), []Queue{q}, WorkerConfig{
		Interval:  time.Hour,
		BatchSize: 2,
		Logger:    newTestLogger(),
	})
	require.NoError(t, w.Start())
	require.Eventually(t, func() bool { return q.Size(ctx) == 3 }, time.Second, 5*time.Millisecond)
	w.Shutdown()
	assert.Equal(t, []string{"1", "2"}, h.payloads())
}

func TestWorkerStopsOnHandlerFailure(t *testing.T) {
	ctx := context.Background()
	h := &recordingHandler{failing: true}
	q := NewMemoryQueue("failing", WithHandler("h", h))
	q.Enqueue(ctx, NewEntry([]byte("x")))

	w := NewWorker(NewDequeuer(Config{Logger: newTestLogger()}), []Queue{q}, WorkerConfig{
		Interval: time.Hour,
		Logger:   newTestLogger(),
	})
	require.NoError(t, w.Start())
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.attempts == 1
	}, time.Second, 5*time.Millisecond)
	w.Shutdown()

	assert.Equal(t, 1, h.attempts, "a failed entry is retried on the next tick only")
	assert.Equal(t, 1, q.Size(ctx))
}

func TestWorkerStateTransitions(t *testing.T) {
	q := NewMemoryQueue("state")
	w := NewWorker(NewDequeuer(Config{Logger: newTestLogger()}), []Queue{q}, WorkerConfig{
		Interval: time.Hour,
		Logger:   newTestLogger(),
	})

	require.NoError(t, w.Start())
	assert.Error(t, w.Start())

	w.Stop()
	assert.Error(t, w.Start())

	w.Shutdown()
	assert.ErrorIs(t, w.Start(), ErrWorkerClosed)

	// Shutdown is idempotent.
	w.Shutdown()
}

func TestWorkerStartValidation(t *testing.T) {
	w := NewWorker(NewDequeuer(Config{Logger: newTestLogger()}), nil, WorkerConfig{Logger: newTestLogger()})
	assert.Error(t, w.Start())

	w = NewWorker(nil, []Queue{NewMemoryQueue("q")}, WorkerConfig{Logger: newTestLogger()})
	assert.Error(t, w.Start())
}

func TestHealthChecker(t *testing.T) {
	s, client := setup(t)
	q, _ := newTestQueue(t, client, "health")

	var (
		mu   sync.Mutex
		errs []error
	)
	hc := newHealthChecker(healthcheckerParams{
		logger:   log.NewLogger(newTestLogger()),
		queues:   []Queue{q, NewMemoryQueue("mem")},
		interval: time.Second,
		healthcheckFunc: func(err error) {
			mu.Lock()
			defer mu.Unlock()
			errs = append(errs, err)
		},
	})

	hc.exec()
	s.SetError("ERR store unavailable")
	hc.exec()
	s.SetError("")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	assert.Error(t, errs[1])
}

func TestJanitorRenewsMetadata(t *testing.T) {
	s, client := setup(t)
	ctx := context.Background()
	q, _ := newTestQueue(t, client, "keepalive", WithMetadataTTL(time.Hour))
	require.NoError(t, q.Save(ctx))
	unsaved, _ := newTestQueue(t, client, "unsaved")
	s.FastForward(45 * time.Minute)

	j := newJanitor(janitorParams{
		logger:   log.NewLogger(newTestLogger()),
		queues:   []Queue{q, unsaved, NewMemoryQueue("mem")},
		interval: time.Hour,
	})
	j.exec()

	assert.Equal(t, time.Hour, s.TTL(base.MetadataKey("keepalive")))
	assert.False(t, s.Exists(base.MetadataKey("unsaved")))
}
