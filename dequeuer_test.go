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

func TestDequeuerDequeue(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()
	hooks := NewHooks()
	var after *HookEvent
	before := 0
	hooks.OnQueue("work", EventBeforeDequeue, ListenerFunc(func(context.Context, *HookEvent) { before++ }))
	hooks.OnQueue("work", EventAfterDequeue, ListenerFunc(func(_ context.Context, ev *HookEvent) { after = ev }))
	d := NewDequeuer(Config{Logger: newTestLogger(), Hooks: hooks})

	h := &recordingHandler{}
	q, _ := newTestQueue(t, client, "work", WithHandler("rec", h))
	require.NoError(t, q.SetEntries([]interface{}{"a"}))
	require.NoError(t, q.Save(ctx))

	e, err := d.Dequeue(ctx, q)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "a", e.String())
	assert.Equal(t, 1, before)
	require.NotNil(t, after)
	require.Len(t, after.Entries, 1)
	assert.True(t, after.Entries[0].Equal(e))
}

func TestDequeuerErrors(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()
	d := NewDequeuer(Config{Logger: newTestLogger()})

	_, err := d.Dequeue(ctx, nil)
	assert.True(t, errors.Is(err, ErrNilQueue))

	missing, _ := newTestQueue(t, client, "missing", WithHandler("rec", &recordingHandler{}))
	_, err = d.Dequeue(ctx, missing)
	assert.True(t, IsQueueNotFound(err))

	noHandler, _ := newTestQueue(t, client, "nohandler")
	require.NoError(t, noHandler.SetEntries([]interface{}{"a"}))
	require.NoError(t, noHandler.Save(ctx))
	_, err = d.Dequeue(ctx, noHandler)
	assert.True(t, errors.Is(err, ErrNoHandler))
}

func TestDequeuerStoreFailureIsNotQueueNotFound(t *testing.T) {
	_, client := setup(t)
	d := NewDequeuer(Config{Logger: newTestLogger()})
	q, store := newTestQueue(t, client, "unreachable", WithHandler("rec", &recordingHandler{}))
	store.failOn("Exists", errInjected)

	_, err := d.Dequeue(context.Background(), q)
	require.Error(t, err)
	assert.False(t, IsQueueNotFound(err))
	assert.Equal(t, errors.Unknown, errors.CanonicalCode(err))
}

func TestDequeuerWithMemoryQueue(t *testing.T) {
	ctx := context.Background()
	d := NewDequeuer(Config{Logger: newTestLogger()})
	q := NewMemoryQueue("mem", WithHandler("rec", &recordingHandler{}))

	e, err := d.Dequeue(ctx, q)
	require.NoError(t, err)
	assert.Nil(t, e)

	q.Enqueue(ctx, NewEntry([]byte("z")))
	e, err = d.Dequeue(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "z", e.String())
}
