// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

// Package rdb encapsulates the interactions with redis.
package rdb

import (
	"context"
	"time"

	"github.com/hemant/cronqueue/internal/base"
	"github.com/hemant/cronqueue/internal/errors"
	"github.com/redis/go-redis/v9"
)

// RDB is a client interface to query and mutate queue data in redis.
// It implements base.Store.
type RDB struct {
	client redis.UniversalClient
}

// NewRDB returns a new instance of RDB.
func NewRDB(client redis.UniversalClient) *RDB {
	return &RDB{client: client}
}

var _ base.Store = (*RDB)(nil)

// Close closes the connection with redis server.
func (r *RDB) Close() error {
	return r.client.Close()
}

// Client returns the reference to underlying redis client.
func (r *RDB) Client() redis.UniversalClient {
	return r.client
}

// Ping checks the connection with redis server.
func (r *RDB) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func commandErr(op errors.Op, cmd string, err error) error {
	return errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: cmd, Err: err})
}

// ListPush appends values to the tail of the list at key, in order.
func (r *RDB) ListPush(ctx context.Context, key string, values ...string) (int64, error) {
	var op errors.Op = "rdb.ListPush"
	if len(values) == 0 {
		return 0, errors.E(op, errors.InvalidArgument, "no values to push")
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	n, err := r.client.RPush(ctx, key, args...).Result()
	if err != nil {
		return 0, commandErr(op, "rpush", err)
	}
	return n, nil
}

// ListPop removes and returns the head of the list at key.
func (r *RDB) ListPop(ctx context.Context, key string) (string, error) {
	var op errors.Op = "rdb.ListPop"
	v, err := r.client.LPop(ctx, key).Result()
	switch {
	case err == redis.Nil:
		return "", errors.E(op, errors.NotFound, errors.ErrNoEntry)
	case err != nil:
		return "", commandErr(op, "lpop", err)
	}
	return v, nil
}

// ListPeek returns the element at index of the list at key without removing it.
func (r *RDB) ListPeek(ctx context.Context, key string, index int64) (string, error) {
	var op errors.Op = "rdb.ListPeek"
	v, err := r.client.LIndex(ctx, key, index).Result()
	switch {
	case err == redis.Nil:
		return "", errors.E(op, errors.NotFound, errors.ErrNoEntry)
	case err != nil:
		return "", commandErr(op, "lindex", err)
	}
	return v, nil
}

// ListLength returns the length of the list at key. A missing key has length 0.
func (r *RDB) ListLength(ctx context.Context, key string) (int64, error) {
	n, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, commandErr("rdb.ListLength", "llen", err)
	}
	return n, nil
}

// ListTrim trims the list at key to the range [start, stop].
func (r *RDB) ListTrim(ctx context.Context, key string, start, stop int64) error {
	if err := r.client.LTrim(ctx, key, start, stop).Err(); err != nil {
		return commandErr("rdb.ListTrim", "ltrim", err)
	}
	return nil
}

// Exists reports whether key exists.
func (r *RDB) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, commandErr("rdb.Exists", "exists", err)
	}
	return n == 1, nil
}

// TTL returns the remaining time to live of key.
// It is -2ns for a missing key and -1ns for a key without expiry.
func (r *RDB) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, commandErr("rdb.TTL", "pttl", err)
	}
	return d, nil
}

// Get returns the string value of key.
func (r *RDB) Get(ctx context.Context, key string) (string, error) {
	var op errors.Op = "rdb.Get"
	v, err := r.client.Get(ctx, key).Result()
	switch {
	case err == redis.Nil:
		return "", errors.E(op, errors.NotFound, errors.ErrNoKey)
	case err != nil:
		return "", commandErr(op, "get", err)
	}
	return v, nil
}

// SetWithExpiry sets key to value with the given TTL.
func (r *RDB) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	res, err := r.client.SetEx(ctx, key, value, ttl).Result()
	if err != nil {
		return false, commandErr("rdb.SetWithExpiry", "setex", err)
	}
	return res == "OK", nil
}

// SetIfAbsent sets key to value only if key does not exist.
// The key is written without expiry; callers set the lease afterwards.
func (r *RDB) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, commandErr("rdb.SetIfAbsent", "setnx", err)
	}
	return ok, nil
}

// Expire sets the TTL of key with second precision.
func (r *RDB) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return commandErr("rdb.Expire", "expire", err)
	}
	return nil
}

// ExpireAfter sets the TTL of key with millisecond precision.
func (r *RDB) ExpireAfter(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.PExpire(ctx, key, ttl).Err(); err != nil {
		return commandErr("rdb.ExpireAfter", "pexpire", err)
	}
	return nil
}
