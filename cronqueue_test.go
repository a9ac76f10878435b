// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hemant/cronqueue/internal/base"
	"github.com/hemant/cronqueue/internal/rdb"
	"github.com/redis/go-redis/v9"
)

// releaseWait moves the miniredis clock past the lock release TTL.
const releaseWait = 2 * time.Millisecond

func setup(tb testing.TB) (*miniredis.Miniredis, redis.UniversalClient) {
	tb.Helper()
	s := miniredis.RunT(tb)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	tb.Cleanup(func() { client.Close() })
	return s, client
}

// newTestQueue returns a RedisQueue over a recording store and the store.
func newTestQueue(tb testing.TB, client redis.UniversalClient, name string, opts ...QueueOption) (*RedisQueue, *testStore) {
	tb.Helper()
	store := newTestStore(rdb.NewRDB(client))
	opts = append([]QueueOption{WithLogger(newTestLogger(), DebugLevel)}, opts...)
	q, err := newRedisQueue(store, name, opts...)
	if err != nil {
		tb.Fatalf("newRedisQueue(%q) failed: %v", name, err)
	}
	return q, store
}

// testStore wraps a base.Store, records every call and fails the methods
// listed in fail.
type testStore struct {
	base.Store

	mu       sync.Mutex
	calls    []string
	fail     map[string]error
	noAckSet bool
}

func newTestStore(s base.Store) *testStore {
	return &testStore{Store: s, fail: make(map[string]error)}
}

func (s *testStore) record(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, method)
	return s.fail[method]
}

func (s *testStore) failOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method] = err
}

func (s *testStore) count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (s *testStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *testStore) ListPush(ctx context.Context, key string, values ...string) (int64, error) {
	if err := s.record("ListPush"); err != nil {
		return 0, err
	}
	return s.Store.ListPush(ctx, key, values...)
}

func (s *testStore) ListPop(ctx context.Context, key string) (string, error) {
	if err := s.record("ListPop"); err != nil {
		return "", err
	}
	return s.Store.ListPop(ctx, key)
}

func (s *testStore) ListPeek(ctx context.Context, key string, index int64) (string, error) {
	if err := s.record("ListPeek"); err != nil {
		return "", err
	}
	return s.Store.ListPeek(ctx, key, index)
}

func (s *testStore) ListLength(ctx context.Context, key string) (int64, error) {
	if err := s.record("ListLength"); err != nil {
		return 0, err
	}
	return s.Store.ListLength(ctx, key)
}

func (s *testStore) ListTrim(ctx context.Context, key string, start, stop int64) error {
	if err := s.record("ListTrim"); err != nil {
		return err
	}
	return s.Store.ListTrim(ctx, key, start, stop)
}

func (s *testStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := s.record("Exists"); err != nil {
		return false, err
	}
	return s.Store.Exists(ctx, key)
}

func (s *testStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := s.record("TTL"); err != nil {
		return 0, err
	}
	return s.Store.TTL(ctx, key)
}

func (s *testStore) Get(ctx context.Context, key string) (string, error) {
	if err := s.record("Get"); err != nil {
		return "", err
	}
	return s.Store.Get(ctx, key)
}

func (s *testStore) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := s.record("SetWithExpiry"); err != nil {
		return false, err
	}
	s.mu.Lock()
	noAck := s.noAckSet
	s.mu.Unlock()
	if noAck {
		return false, nil
	}
	return s.Store.SetWithExpiry(ctx, key, value, ttl)
}

func (s *testStore) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	if err := s.record("SetIfAbsent"); err != nil {
		return false, err
	}
	return s.Store.SetIfAbsent(ctx, key, value)
}

func (s *testStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.record("Expire"); err != nil {
		return err
	}
	return s.Store.Expire(ctx, key, ttl)
}

func (s *testStore) ExpireAfter(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.record("ExpireAfter"); err != nil {
		return err
	}
	return s.Store.ExpireAfter(ctx, key, ttl)
}

// testLogger records every message it receives.
type testLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

func newTestLogger() *testLogger { return &testLogger{} }

func (l *testLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *testLogger) Debug(msg string, fields map[string]interface{})   { l.add("debug", msg, fields) }
func (l *testLogger) Info(msg string, fields map[string]interface{})    { l.add("info", msg, fields) }
func (l *testLogger) Notice(msg string, fields map[string]interface{})  { l.add("notice", msg, fields) }
func (l *testLogger) Warning(msg string, fields map[string]interface{}) { l.add("warning", msg, fields) }
func (l *testLogger) Error(msg string, fields map[string]interface{})   { l.add("error", msg, fields) }
func (l *testLogger) Critical(msg string, fields map[string]interface{}) {
	l.add("critical", msg, fields)
}
func (l *testLogger) Alert(msg string, fields map[string]interface{}) { l.add("alert", msg, fields) }
func (l *testLogger) Emergency(msg string, fields map[string]interface{}) {
	l.add("emergency", msg, fields)
}

// find returns the first recorded entry with the given message.
func (l *testLogger) find(msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

// recordingHandler records the payloads it handles and fails while failing is set.
type recordingHandler struct {
	mu       sync.Mutex
	handled  []string
	failing  bool
	attempts int
}

func (h *recordingHandler) Handle(ctx context.Context, e *Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attempts++
	if h.failing {
		return fmt.Errorf("handler failure")
	}
	h.handled = append(h.handled, e.String())
	return nil
}

func (h *recordingHandler) payloads() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

func (h *recordingHandler) setFailing(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failing = v
}

func staticFetcher(items ...interface{}) Fetcher {
	return FetcherFunc(func(context.Context) ([]interface{}, error) {
		return items, nil
	})
}
