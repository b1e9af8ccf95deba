package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hetulpatel/arbhunter/internal/models"
)

// CategoryCache stores market type classifications by normalized event name.
type CategoryCache interface {
	Get(ctx context.Context, key string) (models.MarketType, bool, error)
	Set(ctx context.Context, key string, mt models.MarketType) error
	Close() error
}

type redisCategoryCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCategoryCache(addr, password string, db int, ttl time.Duration, prefix string) (CategoryCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if ttl <= 0 {
		ttl = 720 * time.Hour
	}
	if prefix == "" {
		prefix = "event_category"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisCategoryCache{client: client, ttl: ttl, prefix: prefix}, nil
}

func (c *redisCategoryCache) key(k string) string {
	return fmt.Sprintf("%s:%s", c.prefix, k)
}

func (c *redisCategoryCache) Get(ctx context.Context, key string) (models.MarketType, bool, error) {
	if c == nil || c.client == nil {
		return "", false, nil
	}
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	mt, ok := models.ParseMarketType(val)
	return mt, ok, nil
}

func (c *redisCategoryCache) Set(ctx context.Context, key string, mt models.MarketType) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.key(key), string(mt), c.ttl).Err()
}

func (c *redisCategoryCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

type memoryCategoryCache struct {
	mu   sync.RWMutex
	data map[string]models.MarketType
}

// NewMemoryCategoryCache keeps classifications for the life of the process.
func NewMemoryCategoryCache() CategoryCache {
	return &memoryCategoryCache{data: make(map[string]models.MarketType)}
}

func (c *memoryCategoryCache) Get(_ context.Context, key string) (models.MarketType, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	mt, ok := c.data[key]
	return mt, ok, nil
}

func (c *memoryCategoryCache) Set(_ context.Context, key string, mt models.MarketType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = mt
	return nil
}

func (c *memoryCategoryCache) Close() error {
	return nil
}
