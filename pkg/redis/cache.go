package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value. A miss is (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Generation returns the current value of the named counter; 0 when unset
func (c *Cache) Generation(ctx context.Context, name string) (int64, error) {
	if !c.client.Enabled() {
		return 0, nil
	}

	gen, err := c.client.Redis().Get(ctx, c.fullKey(generationKey(name))).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation failed: %w", err)
	}
	return gen, nil
}

// Bump advances the named counter. Keys built from an older generation are
// never read again.
func (c *Cache) Bump(ctx context.Context, name string) (int64, error) {
	if !c.client.Enabled() {
		return 0, nil
	}

	gen, err := c.client.Redis().Incr(ctx, c.fullKey(generationKey(name))).Result()
	if err != nil {
		return 0, fmt.Errorf("cache bump failed: %w", err)
	}
	return gen, nil
}

func generationKey(name string) string {
	return "gen:" + name
}

// InvalidatePrefix removes every cached key starting with keyPrefix.
// Returns the number of keys removed.
func (c *Cache) InvalidatePrefix(ctx context.Context, keyPrefix string) (int, error) {
	if !c.client.Enabled() {
		return 0, nil
	}

	rdb := c.client.Redis()
	pattern := c.fullKey(keyPrefix) + "*"

	removed := 0
	var cursor uint64
	for {
		keys, next, err := rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("cache scan failed: %w", err)
		}
		if len(keys) > 0 {
			n, err := rdb.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("cache delete failed: %w", err)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

// TTLMedium bounds how long a recommendation result is served from cache
const TTLMedium = 10 * time.Minute

const (
	// RecommendationPrefix is shared by every recommendation cache key
	RecommendationPrefix = "recommend:"
	// RecommendationGeneration names the counter bumped after every commit
	RecommendationGeneration = "recommend"
)

// RecommendationKey builds the cache key for one recommendation query
// under the given store generation
func RecommendationKey(generation int64, metric string, category string, limit int) string {
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("%s%d:%s:%s:%d", RecommendationPrefix, generation, strings.ToUpper(metric), category, limit)
}
