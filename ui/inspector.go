// Package main provides a web-based monitoring UI for cronqueue queues.
package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hemant/cronqueue/internal/base"
	"github.com/redis/go-redis/v9"
)

// Inspector provides read-only access to the queues stored in Redis.
type Inspector struct {
	client redis.UniversalClient
}

// NewInspector creates a new Inspector with the given Redis client.
func NewInspector(client redis.UniversalClient) *Inspector {
	return &Inspector{client: client}
}

// QueueInfo holds information about a saved queue.
type QueueInfo struct {
	Name      string        `json:"name"`
	Size      int64         `json:"size"`
	Locked    bool          `json:"locked"`
	LockTTL   time.Duration `json:"lock_ttl"`
	Handler   string        `json:"handler,omitempty"`
	Fetcher   string        `json:"fetcher,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	SavedAt   time.Time     `json:"saved_at"`
	ExpiresIn time.Duration `json:"expires_in"`
	Saved     int           `json:"saved_entries"`
}

// EntryInfo holds a stored entry and its position in the queue.
type EntryInfo struct {
	Position int64  `json:"position"`
	Payload  string `json:"payload"`
	Error    string `json:"error,omitempty"`
}

// DashboardStats holds dashboard statistics.
type DashboardStats struct {
	TotalQueues  int   `json:"total_queues"`
	TotalEntries int64 `json:"total_entries"`
	LockedQueues int   `json:"locked_queues"`
}

// ErrQueueNotFound is returned for a queue without a metadata record.
var ErrQueueNotFound = errors.New("queue not found")

// QueueNames returns the names of every saved queue, sorted.
func (i *Inspector) QueueNames(ctx context.Context) ([]string, error) {
	var (
		names  []string
		cursor uint64
	)
	for {
		keys, next, err := i.client.Scan(ctx, cursor, base.AllMetadataPattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan queues: %w", err)
		}
		for _, key := range keys {
			if name, ok := base.QueueNameFromMetadataKey(key); ok {
				names = append(names, name)
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(names)
	return names, nil
}

// GetQueues returns information about all saved queues.
func (i *Inspector) GetQueues(ctx context.Context) ([]QueueInfo, error) {
	names, err := i.QueueNames(ctx)
	if err != nil {
		return nil, err
	}
	queues := make([]QueueInfo, 0, len(names))
	for _, name := range names {
		info, err := i.GetQueue(ctx, name)
		if errors.Is(err, ErrQueueNotFound) {
			// Expired between the scan and the read.
			continue
		}
		if err != nil {
			return nil, err
		}
		queues = append(queues, info)
	}
	return queues, nil
}

// GetQueue returns information about the named queue.
func (i *Inspector) GetQueue(ctx context.Context, qname string) (QueueInfo, error) {
	pipe := i.client.Pipeline()
	mdCmd := pipe.Get(ctx, base.MetadataKey(qname))
	mdTTL := pipe.PTTL(ctx, base.MetadataKey(qname))
	sizeCmd := pipe.LLen(ctx, base.EntriesKey(qname))
	lockTTL := pipe.PTTL(ctx, base.LockKey(qname))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return QueueInfo{}, fmt.Errorf("failed to read queue %q: %w", qname, err)
	}

	data, err := mdCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return QueueInfo{}, ErrQueueNotFound
	}
	if err != nil {
		return QueueInfo{}, err
	}
	md, err := base.DecodeMetadata(data)
	if err != nil {
		return QueueInfo{}, fmt.Errorf("queue %q has an invalid metadata record: %w", qname, err)
	}

	info := QueueInfo{
		Name:      qname,
		Size:      sizeCmd.Val(),
		Handler:   md.Handler,
		Fetcher:   md.Fetcher,
		Saved:     md.EntryCount,
		ExpiresIn: mdTTL.Val(),
	}
	if md.CreatedAt > 0 {
		info.CreatedAt = time.Unix(md.CreatedAt, 0)
	}
	if md.SavedAt > 0 {
		info.SavedAt = time.Unix(md.SavedAt, 0)
	}
	// PTTL is -2 for a missing key and -1 for a key without expiry.
	if ttl := lockTTL.Val(); ttl != -2 {
		info.Locked = true
		if ttl > 0 {
			info.LockTTL = ttl
		}
	}
	return info, nil
}

// GetEntries returns up to limit entries from the head of the queue.
func (i *Inspector) GetEntries(ctx context.Context, qname string, limit int) ([]EntryInfo, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw, err := i.client.LRange(ctx, base.EntriesKey(qname), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read entries of %q: %w", qname, err)
	}
	entries := make([]EntryInfo, len(raw))
	for idx, data := range raw {
		entries[idx].Position = int64(idx)
		payload, err := base.DecodeEntry([]byte(data))
		if err != nil {
			entries[idx].Error = err.Error()
			continue
		}
		entries[idx].Payload = string(payload)
	}
	return entries, nil
}

// GetDashboardStats returns aggregated statistics for the dashboard.
func (i *Inspector) GetDashboardStats(ctx context.Context) (DashboardStats, error) {
	queues, err := i.GetQueues(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	stats := DashboardStats{TotalQueues: len(queues)}
	for _, q := range queues {
		stats.TotalEntries += q.Size
		if q.Locked {
			stats.LockedQueues++
		}
	}
	return stats, nil
}
