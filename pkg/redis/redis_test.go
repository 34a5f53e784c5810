package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mfrank/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	cfg := MFAPIRateLimit(5)

	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), cfg))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	var result []string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", []string{"a"}, TTLMedium))

	gen, err := cache.Generation(ctx, RecommendationGeneration)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)
	gen, err = cache.Bump(ctx, RecommendationGeneration)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	n, err := cache.InvalidatePrefix(ctx, RecommendationPrefix)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRecommendationKey(t *testing.T) {
	tests := []struct {
		name       string
		generation int64
		metric     string
		category   string
		limit      int
		expected   string
	}{
		{"all categories", 0, "6m", "", 10, "recommend:0:6M:all:10"},
		{"with category", 3, "SHARPE", "Index Fund", 5, "recommend:3:SHARPE:Index Fund:5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RecommendationKey(tt.generation, tt.metric, tt.category, tt.limit))
		})
	}
}

// liveClient connects to REDIS_ADDR or skips
func liveClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return &Client{rdb: rdb, enabled: true}
}

func TestCache_Live(t *testing.T) {
	client := liveClient(t)
	cache := NewCache(client, "mfrank-test")
	ctx := context.Background()

	key := RecommendationKey(0, "1Y", "", 2)
	require.NoError(t, cache.Set(ctx, key, []string{"120503", "118834"}, time.Minute))

	var got []string
	found, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"120503", "118834"}, got)

	n, err := cache.InvalidatePrefix(ctx, RecommendationPrefix)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	found, err = cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_GenerationLive(t *testing.T) {
	client := liveClient(t)
	cache := NewCache(client, "mfrank-test-"+time.Now().Format("150405.000"))
	ctx := context.Background()

	gen, err := cache.Generation(ctx, RecommendationGeneration)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	bumped, err := cache.Bump(ctx, RecommendationGeneration)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bumped)

	// prefix invalidation leaves the counter alone
	_, err = cache.InvalidatePrefix(ctx, RecommendationPrefix)
	require.NoError(t, err)
	gen, err = cache.Generation(ctx, RecommendationGeneration)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
}

func TestRateLimiter_Live(t *testing.T) {
	client := liveClient(t)
	limiter := NewRateLimiter(client, "mfrank-test")
	cfg := RateLimitConfig{Key: "burst-" + time.Now().Format("150405.000"), Limit: 2, Window: time.Second}
	ctx := context.Background()

	allowed, _, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, remaining, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
}
