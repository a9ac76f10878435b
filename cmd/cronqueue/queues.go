// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/hemant/cronqueue"
	"github.com/hemant/cronqueue/internal/config"
	"github.com/redis/go-redis/v9"
)

// registerQueues builds the queues declared in cfg and adds them to the
// registry of app. Handlers are also registered in the catalog so that a
// queue saved by another process can be drained.
func registerQueues(app *cronqueue.App, client redis.UniversalClient, cfg config.Config) error {
	for _, qc := range cfg.Queues {
		handlerID, h := newHandler(app, qc)
		app.Handlers().Register(handlerID, h)

		fetcherID, f := newFetcher(qc.Fetcher)
		q, err := app.NewRedisQueue(client, qc.Name,
			cronqueue.WithLockTTL(cfg.LockTTL),
			cronqueue.WithMetadataTTL(cfg.MetadataTTL),
			cronqueue.WithTrimBatchSize(cfg.TrimBatchSize),
			cronqueue.WithHandler(handlerID, h),
			cronqueue.WithFetcher(fetcherID, f),
		)
		if err != nil {
			return fmt.Errorf("queue %q: %w", qc.Name, err)
		}
		if !app.Registry().Add(q) {
			return fmt.Errorf("queue %q is registered twice", qc.Name)
		}
	}
	return nil
}

func newFetcher(fc config.Fetcher) (string, cronqueue.Fetcher) {
	switch fc.Type {
	case config.FetcherFile:
		return "file:" + fc.Path, fileFetcher(fc.Path)
	default:
		return config.FetcherStatic, staticFetcher(fc.Items)
	}
}

func staticFetcher(items []string) cronqueue.Fetcher {
	return cronqueue.FetcherFunc(func(context.Context) ([]interface{}, error) {
		out := make([]interface{}, len(items))
		for i, it := range items {
			out[i] = it
		}
		return out, nil
	})
}

// fileFetcher reads one item per non-blank line of path.
func fileFetcher(path string) cronqueue.Fetcher {
	return cronqueue.FetcherFunc(func(ctx context.Context) ([]interface{}, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		var out []interface{}
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			out = append(out, line)
		}
		return out, sc.Err()
	})
}

func newHandler(app *cronqueue.App, qc config.Queue) (string, cronqueue.Handler) {
	switch qc.Handler.Type {
	case config.HandlerExec:
		return "exec:" + qc.Name, execHandler(qc.Handler.Command)
	default:
		return "log:" + qc.Name, logHandler(app, qc.Name)
	}
}

func logHandler(app *cronqueue.App, queue string) cronqueue.Handler {
	return cronqueue.HandlerFunc(func(_ context.Context, e *cronqueue.Entry) error {
		if l := app.DefaultLogger(); l != nil {
			l.Info("Handled an entry.", map[string]interface{}{"queue": queue, "entry": e.String()})
		}
		return nil
	})
}

// execHandler runs command with the entry payload on stdin. A non-zero exit
// status fails the entry, which stays at the head of the queue.
func execHandler(command []string) cronqueue.Handler {
	return cronqueue.HandlerFunc(func(ctx context.Context, e *cronqueue.Entry) error {
		var stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, command[0], command[1:]...)
		cmd.Stdin = bytes.NewReader(e.Payload())
		cmd.Stdout = os.Stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("%s: %w: %s", command[0], err, msg)
			}
			return fmt.Errorf("%s: %w", command[0], err)
		}
		return nil
	})
}
