// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

/*
Package cronqueue provides a persistent, single-consumer queue backed by Redis.

Producers fetch items in bulk and enqueue them. A consumer, typically a
scheduled job, dequeues and handles one entry per run. A lease-style lock
guarantees that at most one process services a queue at a time, even when
scheduled runs overlap.

# Features

  - At-Least-Once Delivery: an entry is only removed after its handler succeeds
  - Single Consumer: set-if-absent lock with a lease that self-heals after a crash
  - Strict FIFO: entries are handled in the order they were enqueued
  - Idempotent Save: a save rewrites the whole list and never appends twice
  - Lifecycle Hooks: synchronous listeners around fetch, enqueue, dequeue and save

# Quick Start

Build the application context once at startup:

	app := cronqueue.NewApp(cronqueue.Config{LogLevel: cronqueue.InfoLevel})
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	q, err := app.NewRedisQueue(client, "imports",
		cronqueue.WithFetcher("feed", cronqueue.FetcherFunc(fetchFeed)),
		cronqueue.WithHandler("importer", cronqueue.HandlerFunc(importItem)),
	)
	if err != nil {
		log.Fatal(err)
	}
	app.Registry().Add(q)

Materialize the queue, then add new items as they arrive:

	n, err := app.Creator().Create(ctx, q)
	...
	n, err = app.Enqueuer().Fetch(ctx, q)

Process one entry per scheduled run:

	entry, err := app.Dequeuer().Dequeue(ctx, q)

or keep a Worker running that drains the queues on an interval:

	w := cronqueue.NewWorker(app.Dequeuer(), []cronqueue.Queue{q}, cronqueue.WorkerConfig{
		Interval: time.Minute,
	})
	if err := w.Run(); err != nil {
		log.Fatal(err)
	}

# Storage Layout

Each queue owns three keys: a metadata record holding the handler identity
and a few counters (cronqueue:{name}, 30 day TTL), the entries list
(cronqueue:{name}:entries, no expiry) and the dequeue lock
(lock:cronqueue:{name}, 5 minute lease). The metadata record and the list are
written independently; a failed save deletes the whole queue instead of
leaving the two out of sync.
*/
package cronqueue
