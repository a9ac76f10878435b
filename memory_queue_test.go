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

func TestMemoryQueueScenario(t *testing.T) {
	ctx := context.Background()
	h := &recordingHandler{}
	q := NewMemoryQueue("mem", WithHandler("rec", h))

	assert.True(t, q.Exists(ctx))
	require.True(t, q.Enqueue(ctx, NewEntry([]byte("a"))))
	require.True(t, q.Enqueue(ctx, NewEntry([]byte("b"))))

	e, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", e.String())
	assert.Equal(t, 1, q.Size(ctx))

	e, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", e.String())
	assert.True(t, q.IsEmpty(ctx))

	e, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestMemoryQueueRedelivery(t *testing.T) {
	ctx := context.Background()
	h := &recordingHandler{failing: true}
	q := NewMemoryQueue("mem", WithHandler("rec", h))
	q.Enqueue(ctx, NewEntry([]byte("only")))

	e, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.Equal(t, 1, q.Size(ctx))

	h.setFailing(false)
	e, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "only", e.String())
}

func TestMemoryQueueWithoutHandler(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue("mem")
	q.Enqueue(ctx, NewEntry([]byte("x")))

	_, err := q.Dequeue(ctx)
	assert.True(t, errors.Is(err, ErrNoHandler))
}

func TestMemoryQueueBusyFailsFast(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	q := NewMemoryQueue("mem", WithHandler("block", HandlerFunc(func(context.Context, *Entry) error {
		close(started)
		<-release
		return nil
	})))
	q.Enqueue(ctx, NewEntry([]byte("1")))
	q.Enqueue(ctx, NewEntry([]byte("2")))

	done := make(chan *Entry)
	go func() {
		e, _ := q.Dequeue(ctx)
		done <- e
	}()
	<-started

	e, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, e)

	close(release)
	assert.Equal(t, "1", (<-done).String())
	assert.Equal(t, 1, q.Size(ctx))
}

func TestMemoryQueueSaveAndDelete(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue("mem")
	q.Enqueue(ctx, NewEntry([]byte("stale")))

	require.NoError(t, q.SetEntries([]interface{}{"x", "y", "z"}))
	require.NoError(t, q.Save(ctx))
	require.NoError(t, q.Save(ctx))
	assert.True(t, q.Saved())
	assert.Equal(t, 3, q.Size(ctx))

	require.NoError(t, q.Clear(ctx))
	assert.Equal(t, 0, q.Size(ctx))
	assert.True(t, q.Saved())

	require.NoError(t, q.Delete(ctx))
	assert.False(t, q.Saved())
	assert.True(t, q.Exists(ctx))
}
