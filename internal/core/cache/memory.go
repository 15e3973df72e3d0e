package cache

import (
	"context"
	"sync"
	"time"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryCache is an in-process TTL cache with LRU eviction once full.
type MemoryCache struct {
	config *config.CacheConfig
	mu     sync.Mutex
	store  map[string]memoryEntry
	stats  cacheStats
	done   chan struct{}
}

type memoryEntry struct {
	value       []byte
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	errors    int64
}

// NewMemoryCache creates the memory backend and starts its cleanup
// goroutine.
func NewMemoryCache(cfg *config.CacheConfig) *MemoryCache {
	m := &MemoryCache{
		config: cfg,
		store:  make(map[string]memoryEntry),
		done:   make(chan struct{}),
	}
	go m.runCleanup()

	common.LogInfo("memory cache initialized",
		zap.Int("max_size", cfg.MaxSize),
		zap.Duration("ttl", cfg.TTL),
		zap.Duration("cleanup_interval", cfg.CleanupInterval),
	)
	return m
}

// Get returns the cached value for key, or ErrCacheDisabled on a miss
// or expired entry.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[key]
	if !exists {
		m.stats.misses++
		return nil, common.ErrCacheDisabled
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.store, key)
		m.stats.evictions++
		m.stats.misses++
		return nil, common.ErrCacheDisabled
	}

	entry.lastAccess = time.Now()
	entry.accessCount++
	m.store[key] = entry
	m.stats.hits++
	return entry.value, nil
}

// Set stores value under key with the configured TTL, evicting expired
// then least-recently-used entries when the cache is full.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.store) >= m.config.MaxSize {
		m.cleanupLocked()
		if len(m.store) >= m.config.MaxSize {
			m.evictLRULocked()
		}
		if len(m.store) >= m.config.MaxSize {
			m.stats.errors++
			common.LogWarn("cache full", zap.Int("size", len(m.store)))
			return common.ErrCacheFull
		}
	}

	now := time.Now()
	m.store[key] = memoryEntry{
		value:      value,
		expiresAt:  now.Add(m.config.TTL),
		lastAccess: now,
	}
	return nil
}

func (m *MemoryCache) runCleanup() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanupLocked()
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

func (m *MemoryCache) cleanupLocked() int {
	now := time.Now()
	count := 0
	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}
	if count > 0 {
		common.LogDebug("cleaned up expired cache entries",
			zap.Int("count", count),
			zap.Int("remaining", len(m.store)),
		)
	}
	return count
}

// evictLRULocked removes the least-accessed entry, oldest access as the
// tiebreak.
func (m *MemoryCache) evictLRULocked() {
	var victim string
	var victimAccess time.Time
	var victimCount int

	for key, entry := range m.store {
		if victim == "" ||
			entry.accessCount < victimCount ||
			(entry.accessCount == victimCount && entry.lastAccess.Before(victimAccess)) {
			victim = key
			victimAccess = entry.lastAccess
			victimCount = entry.accessCount
		}
	}
	if victim != "" {
		delete(m.store, victim)
		m.stats.evictions++
	}
}

// Stats reports hit/miss/eviction counters and current size.
func (m *MemoryCache) Stats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.stats.hits + m.stats.misses
	hitRatio := 0.0
	if total > 0 {
		hitRatio = float64(m.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"backend":   "memory",
		"size":      len(m.store),
		"max_size":  m.config.MaxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"errors":    m.stats.errors,
		"hit_ratio": hitRatio,
	}
}

// Close stops the cleanup goroutine and drops all entries.
func (m *MemoryCache) Close() error {
	close(m.done)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]memoryEntry)
	return nil
}
