// Package cache provides the search result cache with interchangeable
// memory and redis backends. Entries expire by TTL only; writes to the
// store never invalidate them early.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"meal-planner/internal/infrastructure/config"
)

// Cache is the backend-neutral contract used by the handlers.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Stats() map[string]interface{}
	Close() error
}

// New builds the configured backend, or nil when caching is disabled.
func New(cfg *config.Config) (Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	switch cfg.Cache.Backend {
	case "redis":
		return NewRedisCache(&cfg.Cache)
	case "memory":
		return NewMemoryCache(&cfg.Cache), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}

// Key derives a stable cache key from the household scope and the
// canonicalized query parameters.
func Key(scope string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		if params[name] == "" {
			continue
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
		b.WriteByte('&')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("search:%s:%s", scope, hex.EncodeToString(sum[:]))
}
