package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryStoreSize bounds the in-memory store so a long-lived process
// degraded to memory-only caching cannot grow without limit.
const DefaultMemoryStoreSize = 4096

type memoryEntry struct {
	artifactName string
	expiresAt    time.Time
}

// MemoryStore is a process-local Store backed by a size-bounded LRU.
// It serves as the fallback when the persistent store is unavailable and as
// the only store when no database is configured.
type MemoryStore struct {
	entries *expirable.LRU[string, memoryEntry]
}

// Ensure MemoryStore implements the Store interface
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore holding at most size entries.
// A non-positive size uses DefaultMemoryStoreSize.
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = DefaultMemoryStoreSize
	}
	// TTL handling is per-entry via expiresAt; the LRU only bounds size.
	return &MemoryStore{
		entries: expirable.NewLRU[string, memoryEntry](size, nil, 0),
	}
}

// Get implements Store.Get. Expired entries are removed before reporting
// the key absent.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	entry, ok := s.entries.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		s.entries.Remove(key)
		return "", ErrNotFound
	}
	return entry.artifactName, nil
}

// Set implements Store.Set.
func (s *MemoryStore) Set(ctx context.Context, key, artifactName string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.entries.Add(key, memoryEntry{
		artifactName: artifactName,
		expiresAt:    time.Now().Add(ttl),
	})
	return nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.entries.Remove(key)
	return nil
}
