package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/climascope/climascope/pkg/report"
)

// ReportCache caches decoded run reports by run ID. Get returns nil on a miss.
type ReportCache interface {
	Get(ctx context.Context, runID string) (*report.Report, error)
	Put(ctx context.Context, rep *report.Report) error
}

// MemoryReportCache is a thread-safe LRU cache for loaded reports.
type MemoryReportCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*report.Report
	order   []string // oldest first
}

// NewMemoryReportCache creates a cache with the given maximum number of
// entries. If maxSize <= 0, it defaults to 20.
func NewMemoryReportCache(maxSize int) *MemoryReportCache {
	if maxSize <= 0 {
		maxSize = 20
	}
	return &MemoryReportCache{
		maxSize: maxSize,
		entries: make(map[string]*report.Report),
	}
}

func (c *MemoryReportCache) Get(_ context.Context, runID string) (*report.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rep, ok := c.entries[runID]
	if !ok {
		return nil, nil
	}
	c.moveToEnd(runID)
	return rep, nil
}

// Put adds a report, evicting the least recently used entry if full.
func (c *MemoryReportCache) Put(_ context.Context, rep *report.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := rep.RunID
	if _, ok := c.entries[id]; ok {
		c.entries[id] = rep
		c.moveToEnd(id)
		return nil
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[id] = rep
	c.order = append(c.order, id)
	return nil
}

func (c *MemoryReportCache) moveToEnd(id string) {
	for i, k := range c.order {
		if k == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, id)
			return
		}
	}
}

// RedisReportCache shares reports across daemon replicas.
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReportCache parses a redis:// URL and returns a cache using it.
func NewRedisReportCache(url string, ttl time.Duration) (*RedisReportCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisReportCacheWithClient(redis.NewClient(opts), ttl), nil
}

// NewRedisReportCacheWithClient wraps an existing client.
func NewRedisReportCacheWithClient(client *redis.Client, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{client: client, ttl: ttl}
}

func reportKey(runID string) string {
	return "climascope:report:" + runID
}

func (c *RedisReportCache) Get(ctx context.Context, runID string) (*report.Report, error) {
	data, err := c.client.Get(ctx, reportKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", runID, err)
	}
	return report.Decode(data)
}

func (c *RedisReportCache) Put(ctx context.Context, rep *report.Report) error {
	data, err := rep.Marshal()
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := c.client.Set(ctx, reportKey(rep.RunID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", rep.RunID, err)
	}
	return nil
}

// Ping checks connectivity.
func (c *RedisReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *RedisReportCache) Close() error {
	return c.client.Close()
}
