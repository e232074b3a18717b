package repository

import (
	"context"
	"time"
)

// CacheStore abstracts short-lived key-value state such as cached stats rollups.
// Implementations: Redis (production, shared across instances) or in-memory
// (local dev / single instance).
type CacheStore interface {
	// Get returns ok=false on a miss or an expired entry.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
