package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"
)

func testConfig(maxSize int, ttl time.Duration) *config.CacheConfig {
	return &config.CacheConfig{
		Enabled:         true,
		Backend:         "memory",
		MaxSize:         maxSize,
		TTL:             ttl,
		CleanupInterval: time.Hour,
	}
}

func TestMemoryCacheSetGet(t *testing.T) {
	t.Parallel()
	m := NewMemoryCache(testConfig(10, time.Minute))
	defer m.Close()
	ctx := context.Background()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, common.ErrCacheDisabled) {
		t.Fatalf("miss should return cache-disabled sentinel, got %v", err)
	}

	if err := m.Set(ctx, "k", []byte("value")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("got %q", got)
	}

	stats := m.Stats()
	if stats["hits"].(int64) != 1 || stats["misses"].(int64) != 1 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	t.Parallel()
	m := NewMemoryCache(testConfig(10, 10*time.Millisecond))
	defer m.Close()
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, err := m.Get(ctx, "k"); !errors.Is(err, common.ErrCacheDisabled) {
		t.Fatalf("expired entry should miss, got %v", err)
	}
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	t.Parallel()
	m := NewMemoryCache(testConfig(2, time.Minute))
	defer m.Close()
	ctx := context.Background()

	if err := m.Set(ctx, "a", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := m.Set(ctx, "b", []byte("2")); err != nil {
		t.Fatal(err)
	}
	// Touch "a" so "b" becomes the LRU victim.
	if _, err := m.Get(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	if err := m.Set(ctx, "c", []byte("3")); err != nil {
		t.Fatalf("set with eviction: %v", err)
	}

	if _, err := m.Get(ctx, "a"); err != nil {
		t.Fatal("recently used entry was evicted")
	}
	if _, err := m.Get(ctx, "b"); !errors.Is(err, common.ErrCacheDisabled) {
		t.Fatal("expected LRU entry to be evicted")
	}
}

func TestKeyStableAndScoped(t *testing.T) {
	t.Parallel()

	a := Key("hh1:u1", map[string]string{"q": "pasta", "page": "1"})
	b := Key("hh1:u1", map[string]string{"page": "1", "q": "pasta"})
	if a != b {
		t.Fatal("key must not depend on map iteration order")
	}

	if a == Key("hh2:u1", map[string]string{"q": "pasta", "page": "1"}) {
		t.Fatal("different scopes must produce different keys")
	}
	if a == Key("hh1:u1", map[string]string{"q": "pizza", "page": "1"}) {
		t.Fatal("different params must produce different keys")
	}

	// Empty values are canonicalized away.
	if a != Key("hh1:u1", map[string]string{"q": "pasta", "page": "1", "cuisine": ""}) {
		t.Fatal("empty params must not change the key")
	}
}
