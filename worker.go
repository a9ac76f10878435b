// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hemant/cronqueue/internal/errors"
	"github.com/hemant/cronqueue/internal/log"
	"golang.org/x/time/rate"
)

// Worker drains a set of queues on an interval.
//
// On each tick the worker dequeues from every queue in turn until a dequeue
// handles nothing or the batch size is reached. Entries that failed stay in
// their queue and are retried on the next tick.
type Worker struct {
	logger *log.Logger

	dequeuer *Dequeuer
	queues   []Queue

	state *workerState

	// wait group to wait for all goroutines to finish.
	wg            sync.WaitGroup
	drainer       *drainer
	healthchecker *healthchecker
	janitor       *janitor
}

type workerState struct {
	mu    sync.Mutex
	value workerStateValue
}

type workerStateValue int

const (
	// StateNew represents a new worker.
	workerStateNew workerStateValue = iota

	// StateActive indicates the worker is up and draining queues.
	workerStateActive

	// StateStopped indicates the worker is up but no longer draining queues.
	workerStateStopped

	// StateClosed indicates the worker has been shutdown.
	workerStateClosed
)

var workerStates = []string{
	"new",
	"active",
	"stopped",
	"closed",
}

func (s workerStateValue) String() string {
	if workerStateNew <= s && s <= workerStateClosed {
		return workerStates[s]
	}
	return "unknown status"
}

// WorkerConfig specifies the worker's queue draining behavior.
type WorkerConfig struct {
	// Interval specifies the time between two drains of the queues.
	// The first drain runs as soon as the worker starts.
	//
	// If unset, zero or a negative value, the interval is set to 1 minute.
	Interval time.Duration

	// BatchSize is the maximum number of entries handled per queue on a single tick.
	//
	// If unset, zero or a negative value, a queue is drained until a dequeue
	// handles nothing.
	BatchSize int

	// RateLimit is the maximum number of dequeue attempts per second across
	// all queues.
	//
	// If unset, zero or a negative value, dequeues are not paced.
	RateLimit float64

	// BaseContext optionally specifies a function that returns the base context for dequeues.
	//
	// If BaseContext is nil, the default is context.Background().
	BaseContext func() context.Context

	// HealthCheckFunc is called periodically with any errors encountered during ping to the
	// stores of the queues.
	HealthCheckFunc func(error)

	// HealthCheckInterval specifies the interval between healthchecks.
	//
	// If unset or zero, the interval is set to 15 seconds.
	HealthCheckInterval time.Duration

	// KeepAliveInterval specifies the interval between renewals of the
	// metadata TTL of the drained queues, so that a long lived queue does
	// not expire while it is in use.
	//
	// If unset or zero, the interval is set to 1 hour.
	KeepAliveInterval time.Duration

	// Logger specifies the logger used by the worker instance.
	//
	// If unset, default logger is used.
	Logger Logger

	// LogLevel specifies the minimum log level to enable.
	//
	// If unset, InfoLevel is used by default.
	LogLevel LogLevel
}

const (
	defaultWorkerInterval      = 1 * time.Minute
	defaultHealthCheckInterval = 15 * time.Second
	defaultKeepAliveInterval   = 1 * time.Hour
)

// ErrWorkerClosed indicates that the operation is now illegal because of the worker has been shutdown.
var ErrWorkerClosed = errors.New("cronqueue: Worker closed")

// NewWorker returns a new Worker draining queues through the given dequeuer.
func NewWorker(d *Dequeuer, queues []Queue, cfg WorkerConfig) *Worker {
	baseCtxFn := cfg.BaseContext
	if baseCtxFn == nil {
		baseCtxFn = context.Background
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultWorkerInterval
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	healthcheckInterval := cfg.HealthCheckInterval
	if healthcheckInterval == 0 {
		healthcheckInterval = defaultHealthCheckInterval
	}
	keepAliveInterval := cfg.KeepAliveInterval
	if keepAliveInterval == 0 {
		keepAliveInterval = defaultKeepAliveInterval
	}
	logger := newLogger(cfg.Logger, cfg.LogLevel)
	qs := append([]Queue(nil), queues...)

	return &Worker{
		logger:   logger,
		dequeuer: d,
		queues:   qs,
		state:    &workerState{value: workerStateNew},
		drainer: newDrainer(drainerParams{
			logger:    logger,
			dequeuer:  d,
			queues:    qs,
			interval:  interval,
			batchSize: cfg.BatchSize,
			limiter:   rate.NewLimiter(limit, 1),
			baseCtxFn: baseCtxFn,
		}),
		healthchecker: newHealthChecker(healthcheckerParams{
			logger:          logger,
			queues:          qs,
			interval:        healthcheckInterval,
			healthcheckFunc: cfg.HealthCheckFunc,
		}),
		janitor: newJanitor(janitorParams{
			logger:   logger,
			queues:   qs,
			interval: keepAliveInterval,
		}),
	}
}

// Run starts draining the queues and blocks until an os signal to exit the
// program is received. Once it receives a signal, it lets the current
// dequeue finish and shuts down all goroutines.
func (w *Worker) Run() error {
	if err := w.Start(); err != nil {
		return err
	}
	w.waitForSignals()
	w.Shutdown()
	return nil
}

// Start starts the worker goroutines and returns immediately.
func (w *Worker) Start() error {
	if w.dequeuer == nil {
		return fmt.Errorf("cronqueue: worker cannot run with nil dequeuer")
	}
	if len(w.queues) == 0 {
		return fmt.Errorf("cronqueue: worker cannot run without queues")
	}
	if err := w.start(); err != nil {
		return err
	}
	w.logger.Info("Starting processing", log.Fields{"queues": len(w.queues)})

	w.healthchecker.start(&w.wg)
	w.janitor.start(&w.wg)
	w.drainer.start(&w.wg)
	return nil
}

// Checks worker state and returns an error if pre-condition is not met.
// Otherwise it sets the worker state to active.
func (w *Worker) start() error {
	w.state.mu.Lock()
	defer w.state.mu.Unlock()
	switch w.state.value {
	case workerStateActive:
		return fmt.Errorf("cronqueue: the worker is already running")
	case workerStateStopped:
		return fmt.Errorf("cronqueue: the worker is in the stopped state. Waiting for shutdown.")
	case workerStateClosed:
		return ErrWorkerClosed
	}
	w.state.value = workerStateActive
	return nil
}

// Shutdown gracefully shuts down the worker.
func (w *Worker) Shutdown() {
	w.state.mu.Lock()
	if w.state.value == workerStateNew || w.state.value == workerStateClosed {
		w.state.mu.Unlock()
		return
	}
	w.state.value = workerStateClosed
	w.state.mu.Unlock()

	w.logger.Info("Starting graceful shutdown")
	w.drainer.shutdown()
	w.janitor.shutdown()
	w.healthchecker.shutdown()
	w.wg.Wait()
	w.logger.Info("Exiting")
}

// Stop signals the worker to stop draining queues.
func (w *Worker) Stop() {
	w.state.mu.Lock()
	if w.state.value != workerStateActive {
		w.state.mu.Unlock()
		return
	}
	w.state.value = workerStateStopped
	w.state.mu.Unlock()

	w.logger.Info("Stopping drainer")
	w.drainer.stop()
	w.logger.Info("Drainer stopped")
}

// drainer runs the dequeue loop.
type drainer struct {
	logger   *log.Logger
	dequeuer *Dequeuer
	queues   []Queue

	interval  time.Duration
	batchSize int
	limiter   *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	// closed to make the loop exit before the next drain.
	quit     chan struct{}
	quitOnce sync.Once
}

type drainerParams struct {
	logger    *log.Logger
	dequeuer  *Dequeuer
	queues    []Queue
	interval  time.Duration
	batchSize int
	limiter   *rate.Limiter
	baseCtxFn func() context.Context
}

func newDrainer(params drainerParams) *drainer {
	ctx, cancel := context.WithCancel(params.baseCtxFn())
	return &drainer{
		logger:    params.logger,
		dequeuer:  params.dequeuer,
		queues:    params.queues,
		interval:  params.interval,
		batchSize: params.batchSize,
		limiter:   params.limiter,
		ctx:       ctx,
		cancel:    cancel,
		quit:      make(chan struct{}),
	}
}

// stop makes the loop exit once the current dequeue returns.
func (d *drainer) stop() {
	d.quitOnce.Do(func() { close(d.quit) })
}

// shutdown stops the loop and cancels the context of the current dequeue.
func (d *drainer) shutdown() {
	d.logger.Debug("Drainer shutting down...")
	d.stop()
	d.cancel()
}

func (d *drainer) start(wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		timer := time.NewTimer(0)
		for {
			select {
			case <-d.quit:
				d.logger.Debug("Drainer done")
				timer.Stop()
				return
			case <-timer.C:
				d.exec()
				timer.Reset(d.interval)
			}
		}
	}()
}

func (d *drainer) stopped() bool {
	select {
	case <-d.quit:
		return true
	default:
		return false
	}
}

// exec drains every queue once.
func (d *drainer) exec() {
	for _, q := range d.queues {
		handled := 0
		for d.batchSize <= 0 || handled < d.batchSize {
			if d.stopped() {
				return
			}
			if err := d.limiter.Wait(d.ctx); err != nil {
				return
			}
			entry, err := d.dequeuer.Dequeue(d.ctx, q)
			if err != nil {
				d.logger.Errorf("Failed to dequeue from queue %q: %v", q.Name(), err)
				break
			}
			if entry == nil {
				break
			}
			handled++
		}
		if handled > 0 {
			d.logger.Info("Drained queue", log.Fields{"queue": q.Name(), "handled": handled})
		}
	}
}
