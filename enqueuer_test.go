// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"
	"testing"

	"github.com/hemant/cronqueue/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueuerFetch(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()
	hooks := NewHooks()
	var fetched []*Entry
	hooks.OnQueue("feed", EventAfterFetch, ListenerFunc(func(_ context.Context, ev *HookEvent) {
		fetched = ev.Entries
	}))
	e := NewEnqueuer(Config{Logger: newTestLogger(), Hooks: hooks})

	q, _ := newTestQueue(t, client, "feed", WithFetcher("static", staticFetcher("n1", map[string]int{"id": 2})))
	require.NoError(t, q.Save(ctx))

	n, err := e.Fetch(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, q.Size(ctx))
	require.Len(t, fetched, 2)
	assert.Equal(t, `{"id":2}`, fetched[1].String())

	n, err = e.Fetch(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, q.Size(ctx), "fetch is additive")
}

func TestEnqueuerFetchErrors(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()
	e := NewEnqueuer(Config{Logger: newTestLogger()})

	_, err := e.Fetch(ctx, nil)
	assert.True(t, errors.Is(err, ErrNilQueue))

	missing, _ := newTestQueue(t, client, "missing", WithFetcher("static", staticFetcher("x")))
	_, err = e.Fetch(ctx, missing)
	assert.True(t, IsQueueNotFound(err))

	noFetcher, _ := newTestQueue(t, client, "nofetcher")
	require.NoError(t, noFetcher.Save(ctx))
	_, err = e.Fetch(ctx, noFetcher)
	assert.True(t, errors.Is(err, ErrNoFetcher))

	bad, _ := newTestQueue(t, client, "bad", WithFetcher("bad", staticFetcher(func() {})))
	require.NoError(t, bad.Save(ctx))
	_, err = e.Fetch(ctx, bad)
	assert.Equal(t, errors.InvalidArgument, errors.CanonicalCode(err))
	assert.Equal(t, 0, bad.Size(ctx))
}

func TestEnqueuerStoreFailureIsNotQueueNotFound(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()
	e := NewEnqueuer(Config{Logger: newTestLogger()})
	q, store := newTestQueue(t, client, "unreachable", WithFetcher("static", staticFetcher("x")))
	store.failOn("Exists", errInjected)

	_, err := e.Fetch(ctx, q)
	require.Error(t, err)
	assert.False(t, IsQueueNotFound(err))
	assert.Equal(t, errors.Unknown, errors.CanonicalCode(err))
	assert.True(t, errors.Is(err, errInjected))

	assert.False(t, e.Enqueue(ctx, q, NewEntry([]byte("x"))))
}

func TestEnqueuerEnqueue(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()
	hooks := NewHooks()
	var events []Event
	hooks.On(EventBeforeEnqueue, ListenerFunc(func(_ context.Context, ev *HookEvent) { events = append(events, ev.Type) }))
	hooks.On(EventAfterEnqueue, ListenerFunc(func(_ context.Context, ev *HookEvent) { events = append(events, ev.Type) }))
	e := NewEnqueuer(Config{Logger: newTestLogger(), Hooks: hooks})

	q, _ := newTestQueue(t, client, "single")
	assert.False(t, e.Enqueue(ctx, q, NewEntry([]byte("early"))), "queue does not exist yet")
	assert.False(t, e.Enqueue(ctx, nil, NewEntry([]byte("x"))))

	require.NoError(t, q.Save(ctx))
	assert.True(t, e.Enqueue(ctx, q, NewEntry([]byte("x"))))
	assert.Equal(t, 1, q.Size(ctx))
	assert.Equal(t, []Event{EventBeforeEnqueue, EventAfterEnqueue}, events)
}

func TestEnqueuerEnqueueFailureIsRedacted(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()
	logger := newTestLogger()
	e := NewEnqueuer(Config{
		Logger: logger,
		Redact: func(*Entry) interface{} { return "[redacted]" },
	})

	q, store := newTestQueue(t, client, "secret")
	require.NoError(t, q.Save(ctx))
	store.failOn("ListPush", errInjected)

	assert.False(t, e.Enqueue(ctx, q, NewEntry([]byte("password=hunter2"))))
	got, ok := logger.find("Unable to enqueue the entry.")
	require.True(t, ok)
	assert.Equal(t, "[redacted]", got.fields["entry"])
}
