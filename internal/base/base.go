// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

// Package base defines foundational types and constants used in cronqueue package.
package base

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hemant/cronqueue/internal/errors"
)

// Version of cronqueue library.
const Version = "1.0.0"

// Defaults shared by the engine and the tooling.
const (
	// DefaultLockTTL is the lease given to a dequeue lock on acquisition.
	DefaultLockTTL = 5 * time.Minute

	// DefaultMetadataTTL is how long a saved queue's metadata record lives.
	DefaultMetadataTTL = 30 * 24 * time.Hour

	// DefaultTrimBatchSize is the number of entries removed per LTRIM call
	// when a list is cleared.
	DefaultTrimBatchSize = 100

	// LockReleaseTTL is the expiry used to release a key.
	// Expiring is cheaper for the store than deleting a large value.
	LockReleaseTTL = time.Millisecond
)

// KeyPrefix is the prefix shared by every key the library writes.
const KeyPrefix = "cronqueue:"

// AllMetadataPattern matches every metadata key. Used by the inspector.
const AllMetadataPattern = KeyPrefix + "{*}"

// ValidateQueueName validates a given qname to be used as a queue name.
// Returns nil if valid, otherwise returns non-nil error.
func ValidateQueueName(qname string) error {
	if len(strings.TrimSpace(qname)) == 0 {
		return fmt.Errorf("queue name must contain one or more characters")
	}
	return nil
}

// MetadataKey returns the redis key holding the metadata record of the queue.
func MetadataKey(qname string) string {
	return KeyPrefix + "{" + qname + "}"
}

// EntriesKey returns the redis key of the list holding the queue entries.
func EntriesKey(qname string) string {
	return MetadataKey(qname) + ":entries"
}

// LockKey returns the redis key of the dequeue lock of the queue.
func LockKey(qname string) string {
	return "lock:" + MetadataKey(qname)
}

// QueueNameFromMetadataKey extracts the queue name from a metadata key.
// It returns false if key is not a metadata key.
func QueueNameFromMetadataKey(key string) (string, bool) {
	if !strings.HasPrefix(key, KeyPrefix+"{") || !strings.HasSuffix(key, "}") {
		return "", false
	}
	name := key[len(KeyPrefix)+1 : len(key)-1]
	if name == "" {
		return "", false
	}
	return name, true
}

// MetadataVersion is the current version of the metadata record layout.
const MetadataVersion = 1

// Metadata is the record stored under MetadataKey.
// It never contains the entry list.
type Metadata struct {
	// Version of the record layout.
	Version int `json:"version"`

	// Name of the queue.
	Name string `json:"name"`

	// Handler is the identity of the handler assigned to the queue.
	//
	// Empty string indicates that no handler identity was saved.
	Handler string `json:"handler,omitempty"`

	// Fetcher is the identity of the fetcher assigned to the queue.
	Fetcher string `json:"fetcher,omitempty"`

	// CreatedAt is the time the queue was first saved in Unix time.
	CreatedAt int64 `json:"created_at,omitempty"`

	// SavedAt is the time of the last save in Unix time.
	SavedAt int64 `json:"saved_at,omitempty"`

	// EntryCount is the number of entries written by the last save.
	EntryCount int `json:"entry_count"`
}

// EncodeMetadata marshals the given metadata record and returns an encoded bytes.
func EncodeMetadata(md *Metadata) ([]byte, error) {
	if md == nil {
		return nil, fmt.Errorf("cannot encode nil metadata")
	}
	return json.Marshal(md)
}

// DecodeMetadata unmarshals the given bytes and returns a decoded metadata record.
func DecodeMetadata(data []byte) (*Metadata, error) {
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, err
	}
	if md.Version > MetadataVersion {
		return nil, errors.E(errors.FailedPrecondition, fmt.Sprintf("unsupported metadata version %d", md.Version))
	}
	return &md, nil
}

// EntryMessageVersion is the current version of the entry wire format.
const EntryMessageVersion = 1

// EntryMessage is the serialized form of an entry.
// Serialized data of this type gets written to the entries list.
type EntryMessage struct {
	// Version of the wire format.
	Version int `json:"v"`

	// Payload is the opaque entry data.
	Payload []byte `json:"payload"`
}

// EncodeEntry marshals the given payload into an entry message.
func EncodeEntry(payload []byte) ([]byte, error) {
	return json.Marshal(&EntryMessage{Version: EntryMessageVersion, Payload: payload})
}

// DecodeEntry unmarshals the given bytes and returns the entry payload.
func DecodeEntry(data []byte) ([]byte, error) {
	var msg EntryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Version != EntryMessageVersion {
		return nil, fmt.Errorf("unsupported entry message version %d", msg.Version)
	}
	return msg.Payload, nil
}

// Store is the list-based cache store the queue engine persists into.
//
// Every method returns an error on transport failure. Methods reading a
// missing key or list position return an error with the NotFound code.
//
// See rdb.RDB as a reference implementation.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	// ListPush appends values to the tail of the list, preserving their order,
	// and returns the new length.
	ListPush(ctx context.Context, key string, values ...string) (int64, error)
	// ListPop removes and returns the head of the list.
	ListPop(ctx context.Context, key string) (string, error)
	// ListPeek returns the element at index without removing it.
	ListPeek(ctx context.Context, key string, index int64) (string, error)
	ListLength(ctx context.Context, key string) (int64, error)
	// ListTrim keeps only the elements between start and stop, inclusive.
	ListTrim(ctx context.Context, key string, start, stop int64) error

	Exists(ctx context.Context, key string) (bool, error)
	// TTL returns the remaining time to live of key with millisecond
	// precision: -2ns if key does not exist, -1ns if it has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Get(ctx context.Context, key string) (string, error)
	// SetWithExpiry writes value and reports whether the store acknowledged it.
	SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// SetIfAbsent writes value only if key does not exist, atomically.
	// It reports whether the value was written.
	SetIfAbsent(ctx context.Context, key, value string) (bool, error)
	// Expire sets a TTL with second precision.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// ExpireAfter sets a TTL with millisecond precision.
	ExpireAfter(ctx context.Context, key string, ttl time.Duration) error
}
