package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hetulpatel/arbhunter/internal/models"
)

func TestMemorySeenCache(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemorySeenCache(time.Hour, func() time.Time { return now })
	ctx := context.Background()

	fresh, err := c.MarkNew(ctx, "opp-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = c.MarkNew(ctx, "opp-1")
	require.NoError(t, err)
	assert.False(t, fresh)

	now = now.Add(2 * time.Hour)
	fresh, err = c.MarkNew(ctx, "opp-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	require.NoError(t, c.Forget(ctx, "opp-1"))
	fresh, err = c.MarkNew(ctx, "opp-1")
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestMemorySeenCacheNoTTL(t *testing.T) {
	c := NewMemorySeenCache(0, nil)
	ctx := context.Background()
	fresh, _ := c.MarkNew(ctx, "x")
	assert.True(t, fresh)
	fresh, _ = c.MarkNew(ctx, "x")
	assert.False(t, fresh)
}

func TestMemoryCategoryCache(t *testing.T) {
	c := NewMemoryCategoryCache()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "fed rate cut")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "fed rate cut", models.MarketEconomic))
	mt, ok, err := c.Get(ctx, "fed rate cut")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.MarketEconomic, mt)
}

func TestRedisCachesRequireAddr(t *testing.T) {
	_, err := NewRedisSeenCache("", "", 0, 0, "")
	assert.Error(t, err)
	_, err = NewRedisCategoryCache("", "", 0, 0, "")
	assert.Error(t, err)
}

func TestRedisSeenCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c, err := NewRedisSeenCache(addr, os.Getenv("REDIS_PASSWORD"), 0, time.Minute, "arb_seen_test")
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	key := uuid.NewString()
	fresh, err := c.MarkNew(ctx, key)
	require.NoError(t, err)
	assert.True(t, fresh)
	fresh, err = c.MarkNew(ctx, key)
	require.NoError(t, err)
	assert.False(t, fresh)
	require.NoError(t, c.Forget(ctx, key))
}
