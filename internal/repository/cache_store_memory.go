package repository

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type memoryCacheStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryCacheStore() CacheStore {
	return newMemoryCacheStore(time.Now)
}

func newMemoryCacheStore(now func() time.Time) *memoryCacheStore {
	return &memoryCacheStore{
		entries: make(map[string]memEntry),
		now:     now,
	}
}

func (s *memoryCacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if entry.expired(s.now()) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores a copy of value; ttl <= 0 keeps the entry until deleted.
func (s *memoryCacheStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memEntry{value: append([]byte(nil), value...)}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

func (s *memoryCacheStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}
