package service

import (
	"context"
	"sync"
	"time"
)

// RateCacheStore holds cached exchange-rate payloads with a TTL. The
// in-memory store is the process-wide default; a Redis-backed store can be
// swapped in via configuration.
type RateCacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type rateCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

type InMemoryRateCacheStore struct {
	mu    sync.RWMutex
	store map[string]rateCacheEntry
}

func NewInMemoryRateCacheStore() *InMemoryRateCacheStore {
	return &InMemoryRateCacheStore{store: make(map[string]rateCacheEntry)}
}

func (s *InMemoryRateCacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := time.Now().UTC()
	s.mu.RLock()
	entry, ok := s.store[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if now.After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.store, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), entry.payload...), true, nil
}

func (s *InMemoryRateCacheStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[key] = rateCacheEntry{
		payload:   append([]byte(nil), value...),
		expiresAt: time.Now().UTC().Add(ttl),
	}
	return nil
}
