package cache

import (
	"context"
	"sync"
	"time"
)

// InMemoryIdempotencyStore implements IdempotencyStore with a map guarded by a mutex.
// Expired entries are dropped lazily on access and by Sweep.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewInMemoryIdempotencyStore creates an empty in-memory store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// MarkProcessed returns true if the key was newly marked
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiresAt, ok := s.entries[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	s.entries[key] = now.Add(ttl)
	return true, nil
}

// Release forgets key
func (s *InMemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Sweep removes expired entries and returns how many were dropped
func (s *InMemoryIdempotencyStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Close is a no-op
func (s *InMemoryIdempotencyStore) Close() error {
	return nil
}

var _ IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
