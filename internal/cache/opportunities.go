package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeenCache remembers which opportunities already produced a position so a
// re-detected opportunity is not tracked twice.
type SeenCache interface {
	// MarkNew records key and reports whether it was unseen.
	MarkNew(ctx context.Context, key string) (bool, error)
	// Forget removes key, e.g. when position creation failed after marking.
	Forget(ctx context.Context, key string) error
	Close() error
}

type redisSeenCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisSeenCache builds a cache keyed by opportunity id.
func NewRedisSeenCache(addr, password string, db int, ttl time.Duration, prefix string) (SeenCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if ttl <= 0 {
		ttl = 240 * time.Hour
	}
	if prefix == "" {
		prefix = "arb_seen"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisSeenCache{client: client, ttl: ttl, prefix: prefix}, nil
}

func (c *redisSeenCache) key(id string) string {
	return fmt.Sprintf("%s:%s", c.prefix, id)
}

func (c *redisSeenCache) MarkNew(ctx context.Context, id string) (bool, error) {
	if c == nil || c.client == nil {
		return true, nil
	}
	return c.client.SetNX(ctx, c.key(id), time.Now().UTC().Unix(), c.ttl).Result()
}

func (c *redisSeenCache) Forget(ctx context.Context, id string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *redisSeenCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

type memorySeenCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	seen map[string]time.Time
}

// NewMemorySeenCache is the single-process SeenCache used when no redis
// address is configured. Entries expire after ttl; ttl <= 0 keeps them forever.
func NewMemorySeenCache(ttl time.Duration, now func() time.Time) SeenCache {
	if now == nil {
		now = time.Now
	}
	return &memorySeenCache{ttl: ttl, now: now, seen: make(map[string]time.Time)}
}

func (c *memorySeenCache) MarkNew(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if at, ok := c.seen[id]; ok && (c.ttl <= 0 || now.Sub(at) < c.ttl) {
		return false, nil
	}
	c.seen[id] = now
	return true, nil
}

func (c *memorySeenCache) Forget(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seen, id)
	return nil
}

func (c *memorySeenCache) Close() error {
	return nil
}
