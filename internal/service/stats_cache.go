package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizcoach/referralhub/internal/repository"
)

const statsKeyAll = "stats:all"

func statsKey(linkID *uuid.UUID) string {
	if linkID == nil {
		return statsKeyAll
	}
	return "stats:link:" + linkID.String()
}

// StatsCache keeps recent Stats rollups in a CacheStore. It is best effort:
// cache failures are logged and the caller falls back to the ledger. A nil
// *StatsCache is valid and caches nothing.
//
// Each key carries an in-process generation bumped by Invalidate. A rollup
// computed under an older generation is never written back, so a reader that
// raced a signup cannot repopulate the key with pre-signup numbers.
type StatsCache struct {
	store  repository.CacheStore
	ttl    time.Duration
	logger *zap.Logger

	mu   sync.Mutex
	gens map[string]uint64
}

// NewStatsCache returns nil when ttl is zero, disabling caching.
func NewStatsCache(store repository.CacheStore, ttl time.Duration, logger *zap.Logger) *StatsCache {
	if store == nil || ttl <= 0 {
		return nil
	}
	return &StatsCache{store: store, ttl: ttl, logger: logger, gens: make(map[string]uint64)}
}

// generation must be read before the rollup it guards is computed.
func (c *StatsCache) generation(linkID *uuid.UUID) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[statsKey(linkID)]
}

func (c *StatsCache) get(ctx context.Context, linkID *uuid.UUID) (*Stats, bool) {
	if c == nil {
		return nil, false
	}
	raw, ok, err := c.store.Get(ctx, statsKey(linkID))
	if err != nil {
		c.logger.Warn("stats cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var stats Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		c.logger.Warn("stats cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return &stats, true
}

func (c *StatsCache) put(ctx context.Context, linkID *uuid.UUID, gen uint64, stats *Stats) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	key := statsKey(linkID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		c.logger.Debug("stats cache write skipped, invalidated during compute", zap.String("key", key))
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("stats cache write failed", zap.Error(err))
	}
}

// Invalidate drops the global rollup and the per-link rollups of linkIDs.
func (c *StatsCache) Invalidate(ctx context.Context, linkIDs ...uuid.UUID) {
	if c == nil {
		return
	}
	keys := []string{statsKeyAll}
	for i := range linkIDs {
		keys = append(keys, statsKey(&linkIDs[i]))
	}
	c.mu.Lock()
	for _, k := range keys {
		c.gens[k]++
	}
	c.mu.Unlock()
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}
