// Package cache stores short-lived snapshots such as the property catalogue.
package cache

import (
	"context"
	"time"

	"github.com/elonfeng/roomivo/internal/config"
)

// Cache is a string key/value store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New returns a redis-backed cache when an address is configured, otherwise memory.
func New(cfg config.CacheConfig) Cache {
	if cfg.RedisAddr != "" {
		return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}
	return NewMemory()
}
