// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"
	"fmt"
	"testing"

	"github.com/hemant/cronqueue/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatorCreate(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()
	hooks := NewHooks()
	var events []Event
	for _, ev := range []Event{EventBeforeFetch, EventAfterFetch, EventBeforeSave, EventAfterSave} {
		hooks.On(ev, ListenerFunc(func(_ context.Context, e *HookEvent) {
			events = append(events, e.Type)
		}))
	}
	c := NewCreator(Config{Logger: newTestLogger(), Hooks: hooks})
	q, _ := newTestQueue(t, client, "create", WithFetcher("static", staticFetcher("x", "y", "z")))

	n, err := c.Create(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, q.Size(ctx))
	assert.True(t, q.Exists(ctx))
	assert.Equal(t, []Event{EventBeforeFetch, EventAfterFetch, EventBeforeSave, EventAfterSave}, events)
}

func TestCreatorCreateOverwrites(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()
	c := NewCreator(Config{Logger: newTestLogger()})
	q, _ := newTestQueue(t, client, "overwrite", WithFetcher("static", staticFetcher("x", "y", "z")))
	require.True(t, q.Enqueue(ctx, NewEntry([]byte("leftover"))))

	_, err := c.Create(ctx, q)
	require.NoError(t, err)
	_, err = c.Create(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 3, q.Size(ctx))
}

func TestCreatorCreateErrors(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()
	c := NewCreator(Config{Logger: newTestLogger()})

	_, err := c.Create(ctx, nil)
	assert.True(t, errors.Is(err, ErrNilQueue))

	noFetcher, _ := newTestQueue(t, client, "nofetcher")
	_, err = c.Create(ctx, noFetcher)
	assert.True(t, errors.Is(err, ErrNoFetcher))
	assert.False(t, noFetcher.Exists(ctx))

	fetchErr := fmt.Errorf("feed unavailable")
	broken, _ := newTestQueue(t, client, "broken", WithFetcher("broken", FetcherFunc(func(context.Context) ([]interface{}, error) {
		return nil, fetchErr
	})))
	_, err = c.Create(ctx, broken)
	assert.True(t, errors.Is(err, fetchErr))
	assert.False(t, broken.Exists(ctx))

	failing, store := newTestQueue(t, client, "failing", WithFetcher("static", staticFetcher("x")))
	store.failOn("ListPush", errInjected)
	_, err = c.Create(ctx, failing)
	assert.True(t, errors.Is(err, errInjected))
	assert.False(t, failing.Exists(ctx))
}
