package cache

import (
	"context"
	"fmt"
	"sync/atomic"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// RedisCache is the shared-backend cache for multi-instance
// deployments.
type RedisCache struct {
	client *redis.Client
	config *config.CacheConfig
	hits   int64
	misses int64
}

// NewRedisCache connects to redis and verifies the connection.
func NewRedisCache(cfg *config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisCache{
		client: client,
		config: cfg,
	}, nil
}

// Get returns the cached value for key, or ErrCacheDisabled on a miss.
func (s *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			atomic.AddInt64(&s.misses, 1)
			return nil, common.ErrCacheDisabled
		}
		return nil, fmt.Errorf("get cache: %w", err)
	}
	atomic.AddInt64(&s.hits, 1)
	return data, nil
}

// Set stores value under key with the configured TTL.
func (s *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("set cache: %w", err)
	}
	return nil
}

// Stats reports hit/miss counters.
func (s *RedisCache) Stats() map[string]interface{} {
	hits := atomic.LoadInt64(&s.hits)
	misses := atomic.LoadInt64(&s.misses)
	hitRatio := 0.0
	if hits+misses > 0 {
		hitRatio = float64(hits) / float64(hits+misses)
	}
	return map[string]interface{}{
		"backend":   "redis",
		"hits":      hits,
		"misses":    misses,
		"hit_ratio": hitRatio,
	}
}

// Close closes the redis connection.
func (s *RedisCache) Close() error {
	return s.client.Close()
}
