// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hemant/cronqueue/internal/base"
	"github.com/hemant/cronqueue/internal/errors"
	"github.com/hemant/cronqueue/internal/log"
	"github.com/hemant/cronqueue/internal/rdb"
	"github.com/redis/go-redis/v9"
)

// RedisQueue is a Queue persisted in redis.
//
// The metadata record, the entries list and the dequeue lock live under
// separate keys derived from the queue name. Any number of RedisQueue values
// in any number of processes may refer to the same queue; the lock makes sure
// only one of them handles an entry at a time.
type RedisQueue struct {
	name     string
	store    base.Store
	logger   *log.Logger
	metrics  *Metrics
	resolver HandlerResolver

	lockTTL     time.Duration
	metadataTTL time.Duration
	trimBatch   int

	mu        sync.Mutex
	exists    bool // guarded by mu; only Delete resets it
	handlerID string
	handler   Handler
	fetcherID string
	fetcher   Fetcher
	entries   []*Entry
}

var _ Queue = (*RedisQueue)(nil)

// NewRedisQueue returns a RedisQueue named name using the given redis client.
//
// The queue is not written to redis until it is saved.
func NewRedisQueue(client redis.UniversalClient, name string, opts ...QueueOption) (*RedisQueue, error) {
	if client == nil {
		return nil, fmt.Errorf("cronqueue: redis client must not be nil")
	}
	return newRedisQueue(rdb.NewRDB(client), name, opts...)
}

func newRedisQueue(store base.Store, name string, opts ...QueueOption) (*RedisQueue, error) {
	if err := base.ValidateQueueName(name); err != nil {
		return nil, fmt.Errorf("cronqueue: %v", err)
	}
	var o queueOptions
	for _, opt := range opts {
		opt(&o)
	}
	lockTTL := o.lockTTL
	if lockTTL <= 0 {
		lockTTL = base.DefaultLockTTL
	}
	metadataTTL := o.metadataTTL
	if metadataTTL <= 0 {
		metadataTTL = base.DefaultMetadataTTL
	}
	trimBatch := o.trimBatch
	if trimBatch <= 0 {
		trimBatch = base.DefaultTrimBatchSize
	}
	return &RedisQueue{
		name:        name,
		store:       store,
		logger:      newLogger(o.logger, o.logLevel),
		metrics:     o.metrics,
		resolver:    o.resolver,
		lockTTL:     lockTTL,
		metadataTTL: metadataTTL,
		trimBatch:   trimBatch,
		handlerID:   o.handlerID,
		handler:     o.handler,
		fetcherID:   o.fetcherID,
		fetcher:     o.fetcher,
	}, nil
}

// Name returns the queue name.
func (q *RedisQueue) Name() string { return q.name }

// Handler returns the handler held in memory, or nil.
func (q *RedisQueue) Handler() Handler {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.handler
}

// SetHandler assigns the entry handler and the identity saved with the metadata.
func (q *RedisQueue) SetHandler(id string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlerID = id
	q.handler = h
}

// Fetcher returns the fetcher held in memory, or nil.
func (q *RedisQueue) Fetcher() Fetcher {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fetcher
}

// SetFetcher assigns the entry fetcher and the identity saved with the metadata.
func (q *RedisQueue) SetFetcher(id string, f Fetcher) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fetcherID = id
	q.fetcher = f
}

// Entries returns a copy of the staging entries.
func (q *RedisQueue) Entries() []*Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*Entry(nil), q.entries...)
}

// SetEntries replaces the staging entries. Nothing is replaced if any item
// cannot be wrapped.
func (q *RedisQueue) SetEntries(items []interface{}) error {
	entries, err := WrapAll(items)
	if err != nil {
		return errors.E(errors.Op("RedisQueue.SetEntries"), errors.InvalidArgument, err)
	}
	q.mu.Lock()
	q.entries = entries
	q.mu.Unlock()
	return nil
}

// SetLogger replaces the queue logger. It must not be called concurrently
// with other methods.
func (q *RedisQueue) SetLogger(l Logger, level LogLevel) {
	q.logger = newLogger(l, level)
}

func (q *RedisQueue) fields(extra log.Fields) log.Fields {
	f := log.Fields{"queue": q.name}
	for k, v := range extra {
		f[k] = v
	}
	return f
}

// Ping checks the connection with the store.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.store.Ping(ctx)
}

// Exists reports whether the metadata record of the queue is in the store.
//
// A positive answer is cached for the lifetime of q, until Delete is called.
// Store failures are logged and reported as false.
func (q *RedisQueue) Exists(ctx context.Context) bool {
	ok, err := q.CheckExists(ctx)
	if err != nil {
		q.logger.Error("Could not check whether the queue exists.", q.fields(log.Fields{"error": err.Error()}))
		return false
	}
	return ok
}

// CheckExists is like Exists but returns store failures.
//
// A metadata record about to expire through Delete counts as absent.
func (q *RedisQueue) CheckExists(ctx context.Context) (bool, error) {
	q.mu.Lock()
	cached := q.exists
	q.mu.Unlock()
	if cached {
		return true, nil
	}
	key := base.MetadataKey(q.name)
	ok, err := q.store.Exists(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	ttl, err := q.store.TTL(ctx, key)
	if err != nil {
		return false, err
	}
	// -2ns: expired since the existence check.
	if ttl == -2 || (ttl >= 0 && ttl <= base.LockReleaseTTL) {
		return false, nil
	}
	q.mu.Lock()
	q.exists = true
	q.mu.Unlock()
	return true, nil
}

// Size returns the number of entries in the store. It returns 0 if the
// length cannot be read.
func (q *RedisQueue) Size(ctx context.Context) int {
	n, err := q.store.ListLength(ctx, base.EntriesKey(q.name))
	if err != nil {
		q.logger.Error("Could not read the queue size.", q.fields(log.Fields{"error": err.Error()}))
		return 0
	}
	q.metrics.setSize(q.name, int(n))
	return int(n)
}

// IsEmpty reports whether Size is zero.
func (q *RedisQueue) IsEmpty(ctx context.Context) bool {
	return q.Size(ctx) == 0
}

// Enqueue appends entry to the tail of the stored list.
// Failures are logged and reported as false.
func (q *RedisQueue) Enqueue(ctx context.Context, entry *Entry) bool {
	if entry == nil {
		q.logger.Error("Cannot enqueue a nil entry.", q.fields(nil))
		return false
	}
	data, err := base.EncodeEntry(entry.Payload())
	if err != nil {
		q.logger.Error("Could not encode the entry.", q.fields(log.Fields{"error": err.Error()}))
		return false
	}
	if _, err := q.store.ListPush(ctx, base.EntriesKey(q.name), string(data)); err != nil {
		q.logger.Error("Could not enqueue the entry.", q.fields(log.Fields{"error": err.Error()}))
		return false
	}
	q.metrics.incEnqueued(q.name)
	return true
}

// Save writes the staging entries and the metadata record to the store.
//
// The stored list is replaced, never appended to, so saving twice leaves the
// same content. If any write fails the whole queue is deleted and the
// failure is returned.
func (q *RedisQueue) Save(ctx context.Context) error {
	var op errors.Op = "RedisQueue.Save"
	q.mu.Lock()
	snapshot := append([]*Entry(nil), q.entries...)
	handlerID, fetcherID := q.handlerID, q.fetcherID
	q.mu.Unlock()

	values := make([]string, 0, len(snapshot))
	for _, e := range snapshot {
		data, err := base.EncodeEntry(e.Payload())
		if err != nil {
			return errors.E(op, errors.InvalidArgument, err)
		}
		values = append(values, string(data))
	}

	if err := q.trimAll(ctx); err != nil {
		return q.abortSave(ctx, op, err)
	}
	if len(values) > 0 {
		if _, err := q.store.ListPush(ctx, base.EntriesKey(q.name), values...); err != nil {
			return q.abortSave(ctx, op, err)
		}
	}

	now := time.Now().Unix()
	md := &base.Metadata{
		Version:    base.MetadataVersion,
		Name:       q.name,
		Handler:    handlerID,
		Fetcher:    fetcherID,
		CreatedAt:  now,
		SavedAt:    now,
		EntryCount: len(values),
	}
	// An instance without its own identities keeps the saved ones.
	if prev, err := q.loadMetadata(ctx); err == nil {
		if prev.CreatedAt != 0 {
			md.CreatedAt = prev.CreatedAt
		}
		if md.Handler == "" {
			md.Handler = prev.Handler
		}
		if md.Fetcher == "" {
			md.Fetcher = prev.Fetcher
		}
	}
	data, err := base.EncodeMetadata(md)
	if err != nil {
		return q.abortSave(ctx, op, err)
	}
	ok, err := q.store.SetWithExpiry(ctx, base.MetadataKey(q.name), string(data), q.metadataTTL)
	if err != nil {
		return q.abortSave(ctx, op, err)
	}
	if !ok {
		return q.abortSave(ctx, op, errors.E(errors.Internal, "metadata write was not acknowledged"))
	}

	q.mu.Lock()
	q.exists = true
	q.mu.Unlock()
	q.metrics.setSize(q.name, len(values))
	q.logger.Info("The queue is saved.", q.fields(log.Fields{"entries": len(values)}))
	return nil
}

// abortSave deletes the partially written queue and returns err wrapped,
// joined with the delete failure if there was one.
func (q *RedisQueue) abortSave(ctx context.Context, op errors.Op, err error) error {
	q.logger.Error("Could not save the queue. Deleting it.", q.fields(log.Fields{"error": err.Error()}))
	if derr := q.Delete(ctx); derr != nil {
		return errors.E(op, errors.CanonicalCode(err), errors.Join(err, derr))
	}
	return errors.E(op, errors.CanonicalCode(err), err)
}

func (q *RedisQueue) loadMetadata(ctx context.Context) (*base.Metadata, error) {
	data, err := q.store.Get(ctx, base.MetadataKey(q.name))
	if err != nil {
		return nil, err
	}
	return base.DecodeMetadata([]byte(data))
}

// Metadata returns the metadata record saved in the store.
func (q *RedisQueue) Metadata(ctx context.Context) (*base.Metadata, error) {
	md, err := q.loadMetadata(ctx)
	if errors.CanonicalCode(err) == errors.NotFound {
		return nil, errQueueNotFound("RedisQueue.Metadata", q.name)
	}
	return md, err
}

// Touch renews the TTL of the metadata record of a saved queue.
func (q *RedisQueue) Touch(ctx context.Context) error {
	if !q.Exists(ctx) {
		return errQueueNotFound("RedisQueue.Touch", q.name)
	}
	return q.store.Expire(ctx, base.MetadataKey(q.name), q.metadataTTL)
}

// Delete removes the queue from the store: the lock and the metadata record
// are expired and the entries list is trimmed to empty.
func (q *RedisQueue) Delete(ctx context.Context) error {
	var op errors.Op = "RedisQueue.Delete"
	q.mu.Lock()
	q.exists = false
	q.mu.Unlock()
	if err := q.store.ExpireAfter(ctx, base.LockKey(q.name), base.LockReleaseTTL); err != nil {
		q.logger.Error("Could not delete the queue lock.", q.fields(log.Fields{"error": err.Error()}))
		return errors.E(op, errors.CanonicalCode(err), err)
	}
	if err := q.store.ExpireAfter(ctx, base.MetadataKey(q.name), base.LockReleaseTTL); err != nil {
		q.logger.Error("Could not delete the queue metadata.", q.fields(log.Fields{"error": err.Error()}))
		return errors.E(op, errors.CanonicalCode(err), err)
	}
	if err := q.trimAll(ctx); err != nil {
		q.logger.Error("Could not delete the queue entries.", q.fields(log.Fields{"error": err.Error()}))
		return errors.E(op, errors.CanonicalCode(err), err)
	}
	q.metrics.setSize(q.name, 0)
	q.logger.Info("The queue is deleted.", q.fields(nil))
	return nil
}

// Clear removes every entry from the store, leaving the metadata record.
func (q *RedisQueue) Clear(ctx context.Context) error {
	if err := q.trimAll(ctx); err != nil {
		q.logger.Error("Could not clear the queue.", q.fields(log.Fields{"error": err.Error()}))
		return errors.E(errors.Op("RedisQueue.Clear"), errors.CanonicalCode(err), err)
	}
	q.metrics.setSize(q.name, 0)
	return nil
}

// trimAll drops entries from the tail of the list, trimBatch at a time,
// until the list is empty.
func (q *RedisQueue) trimAll(ctx context.Context) error {
	key := base.EntriesKey(q.name)
	for {
		n, err := q.store.ListLength(ctx, key)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if err := q.store.ListTrim(ctx, key, 0, -int64(q.trimBatch)-1); err != nil {
			return err
		}
	}
}

// resolveHandler returns the handler held in memory or, failing that, the
// one named by the saved metadata record.
func (q *RedisQueue) resolveHandler(ctx context.Context) (Handler, bool) {
	if h := q.Handler(); h != nil {
		return h, true
	}
	if q.resolver == nil {
		return nil, false
	}
	md, err := q.loadMetadata(ctx)
	if err != nil {
		q.logger.Debug("Could not load the queue metadata.", q.fields(log.Fields{"error": err.Error()}))
		return nil, false
	}
	if md.Handler == "" {
		return nil, false
	}
	h, ok := q.resolver.ResolveHandler(md.Handler)
	if !ok || h == nil {
		q.logger.Warn("The saved handler is not registered.", q.fields(log.Fields{"handler": md.Handler}))
		return nil, false
	}
	return h, true
}

// Dequeue handles the entry at the head of the queue and removes it once the
// handler succeeds.
//
// It returns a nil entry without an error when the queue is empty, when
// another process holds the lock, when the handler fails and on store
// failures; all of these are logged. ErrNoHandler is returned if no handler
// can be resolved.
func (q *RedisQueue) Dequeue(ctx context.Context) (entry *Entry, err error) {
	if q.IsEmpty(ctx) {
		q.logger.Debug("Nothing to dequeue. The queue is empty.", q.fields(nil))
		q.metrics.incDequeue(q.name, OutcomeEmpty)
		return nil, nil
	}

	h, ok := q.resolveHandler(ctx)
	if !ok {
		q.logger.Error("Cannot dequeue. No entry handler is assigned to the queue.", q.fields(nil))
		q.metrics.incDequeue(q.name, OutcomeError)
		return nil, ErrNoHandler
	}

	lockKey := base.LockKey(q.name)
	acquired, err := q.store.SetIfAbsent(ctx, lockKey, uuid.NewString())
	if err != nil {
		q.logger.Error("Could not acquire the queue lock.", q.fields(log.Fields{"error": err.Error()}))
		q.metrics.incDequeue(q.name, OutcomeError)
		return nil, nil
	}
	if !acquired {
		q.logger.Info("Stopping a dequeue process. The queue is locked.", q.fields(nil))
		q.metrics.incDequeue(q.name, OutcomeLocked)
		return nil, nil
	}

	outcome := OutcomeError
	defer func() {
		if rerr := q.store.ExpireAfter(ctx, lockKey, base.LockReleaseTTL); rerr != nil {
			q.logger.Error("Could not release the queue lock. It expires with its lease.",
				q.fields(log.Fields{"error": rerr.Error(), "lease": q.lockTTL.String()}))
			entry = nil
			outcome = OutcomeError
		}
		q.metrics.incDequeue(q.name, outcome)
	}()

	if err := q.store.Expire(ctx, lockKey, q.lockTTL); err != nil {
		q.logger.Error("Could not set the queue lock lease.", q.fields(log.Fields{"error": err.Error()}))
		return nil, nil
	}

	key := base.EntriesKey(q.name)
	raw, err := q.store.ListPeek(ctx, key, 0)
	if err != nil {
		q.logger.Error("Could not read the head of the queue.", q.fields(log.Fields{"error": err.Error()}))
		return nil, nil
	}
	payload, err := base.DecodeEntry([]byte(raw))
	if err != nil {
		q.logger.Error("Could not decode the head of the queue.", q.fields(log.Fields{"error": err.Error()}))
		return nil, nil
	}
	head := &Entry{payload: payload}

	if err := handleSafely(ctx, h, head); err != nil {
		q.logger.Error("The entry handler failed. The entry stays in the queue.", q.fields(log.Fields{"error": err.Error()}))
		outcome = OutcomeHandlerError
		return nil, nil
	}

	if _, err := q.store.ListPop(ctx, key); err != nil {
		q.logger.Error("Could not remove the handled entry.", q.fields(log.Fields{"error": err.Error()}))
		return nil, nil
	}
	outcome = OutcomeHandled
	q.logger.Info("Dequeued.", q.fields(nil))
	if q.IsEmpty(ctx) {
		q.logger.Notice("The queue is finished.", q.fields(nil))
	}
	return head, nil
}

// handleSafely runs h, converting a panic into an error.
func handleSafely(ctx context.Context, h Handler, e *Entry) (err error) {
	defer func() {
		if x := recover(); x != nil {
			err = fmt.Errorf("panic: %v", x)
		}
	}()
	return h.Handle(ctx, e)
}
