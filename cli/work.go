// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hemant/cronqueue"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// WorkDefaults holds the default values of the work command flags.
type WorkDefaults struct {
	Interval    time.Duration
	BatchSize   int
	RateLimit   float64
	MetricsAddr string
}

// workDefaults can be overridden by the host program before the command
// tree is built.
var workDefaults = WorkDefaults{Interval: time.Minute}

// SetWorkDefaults overrides the default values of the work command flags.
func SetWorkDefaults(d WorkDefaults) {
	if d.Interval <= 0 {
		d.Interval = time.Minute
	}
	workDefaults = d
}

func newWorkCommand(app *cronqueue.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work [names...]",
		Short: "Drain queues on an interval until interrupted",
		Long: `Drain queues on an interval until interrupted.

Without names every registered queue is drained. SIGTERM and SIGINT shut the
worker down, SIGTSTP stops dequeuing while keeping the process alive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			queues, err := selectQueues(app, args)
			if err != nil {
				return err
			}
			interval, _ := cmd.Flags().GetDuration("interval")
			batch, _ := cmd.Flags().GetInt("batch")
			rate, _ := cmd.Flags().GetFloat64("rate")
			addr, _ := cmd.Flags().GetString("metrics-addr")

			if addr != "" {
				srv := &http.Server{Addr: addr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: metrics server: %v\n", err)
					}
				}()
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
			}

			ctx := cmd.Context()
			w := cronqueue.NewWorker(app.Dequeuer(), queues, cronqueue.WorkerConfig{
				Interval:    interval,
				BatchSize:   batch,
				RateLimit:   rate,
				BaseContext: func() context.Context { return ctx },
				Logger:      app.DefaultLogger(),
				LogLevel:    app.LogLevel(),
			})
			return w.Run()
		},
	}
	cmd.Flags().Duration("interval", workDefaults.Interval, "time between two drains of the queues")
	cmd.Flags().Int("batch", workDefaults.BatchSize, "maximum entries handled per queue on a tick (0 drains the queue)")
	cmd.Flags().Float64("rate", workDefaults.RateLimit, "maximum dequeue attempts per second (0 disables pacing)")
	cmd.Flags().String("metrics-addr", workDefaults.MetricsAddr, "address serving prometheus metrics on /metrics")
	return cmd
}

// selectQueues returns the named queues, or every registered queue.
func selectQueues(app *cronqueue.App, names []string) ([]cronqueue.Queue, error) {
	if len(names) == 0 {
		queues := app.Registry().Queues()
		if len(queues) == 0 {
			return nil, errors.New("no queues are registered")
		}
		return queues, nil
	}
	queues := make([]cronqueue.Queue, 0, len(names))
	for _, name := range names {
		q, err := app.Registry().Get(name)
		if err != nil {
			return nil, err
		}
		queues = append(queues, q)
	}
	return queues, nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
