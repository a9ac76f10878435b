// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Config specifies the behavior of an App and the orchestrators it builds.
type Config struct {
	// Logger specifies the logger used by the orchestrators and the queues
	// built by the App.
	//
	// If unset, messages are written to stderr.
	Logger Logger

	// LogLevel specifies the minimum log level to enable.
	//
	// If unset, InfoLevel is used by default.
	LogLevel LogLevel

	// Hooks receives the lifecycle events fired by the orchestrators.
	//
	// If unset, the App creates an empty one.
	Hooks *Hooks

	// Redact returns what is logged in place of an entry whose enqueue failed.
	//
	// If unset, the payload is logged as a string.
	Redact func(*Entry) interface{}

	// Metrics receives the counters updated by the queues built by the App.
	//
	// If unset, nothing is recorded.
	Metrics *Metrics
}

// App is the application context: the registry, the hooks, the handler
// catalog and the orchestrators, all built once at startup.
type App struct {
	cfg      Config
	registry *Registry
	handlers *HandlerCatalog
	enqueuer *Enqueuer
	dequeuer *Dequeuer
	creator  *Creator

	mu      sync.RWMutex
	loggers map[string]Logger
}

// NewApp returns a new App given a configuration.
func NewApp(cfg Config) *App {
	if cfg.Hooks == nil {
		cfg.Hooks = NewHooks()
	}
	return &App{
		cfg:      cfg,
		registry: NewRegistry(),
		handlers: NewHandlerCatalog(),
		enqueuer: NewEnqueuer(cfg),
		dequeuer: NewDequeuer(cfg),
		creator:  NewCreator(cfg),
		loggers:  make(map[string]Logger),
	}
}

func (a *App) Registry() *Registry { return a.registry }
func (a *App) Hooks() *Hooks { return a.cfg.Hooks }
func (a *App) Handlers() *HandlerCatalog { return a.handlers }
func (a *App) Enqueuer() *Enqueuer { return a.enqueuer }
func (a *App) Dequeuer() *Dequeuer { return a.dequeuer }
func (a *App) Creator() *Creator { return a.creator }
func (a *App) Metrics() *Metrics { return a.cfg.Metrics }
func (a *App) LogLevel() LogLevel { return a.cfg.LogLevel }
func (a *App) DefaultLogger() Logger { return a.cfg.Logger }

// NewRedisQueue returns a RedisQueue that logs through the App logger,
// resolves saved handler identities through the App handler catalog and
// records into the App metrics. opts are applied after these defaults.
func (a *App) NewRedisQueue(client redis.UniversalClient, name string, opts ...QueueOption) (*RedisQueue, error) {
	defaults := []QueueOption{
		WithLogger(a.cfg.Logger, a.cfg.LogLevel),
		WithHandlerResolver(a.handlers),
		WithMetrics(a.cfg.Metrics),
	}
	return NewRedisQueue(client, name, append(defaults, opts...)...)
}

// AddLogger registers l under name so that it can be picked by name, for
// example from the command line.
func (a *App) AddLogger(name string, l Logger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loggers[name] = l
}

// Logger returns the logger registered under name.
func (a *App) Logger(name string) (Logger, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	l, ok := a.loggers[name]
	return l, ok
}

// HandlerCatalog maps handler identities to handlers.
// It implements HandlerResolver.
type HandlerCatalog struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewHandlerCatalog returns an empty HandlerCatalog.
func NewHandlerCatalog() *HandlerCatalog {
	return &HandlerCatalog{handlers: make(map[string]Handler)}
}

// Register adds h under id, replacing any handler with the same id.
func (c *HandlerCatalog) Register(id string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[id] = h
}

// ResolveHandler returns the handler registered under id.
func (c *HandlerCatalog) ResolveHandler(id string) (Handler, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.handlers[id]
	return h, ok
}

// IDs returns the registered handler identities in sorted order.
func (c *HandlerCatalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.handlers))
	for id := range c.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
