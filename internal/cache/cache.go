// Package cache maps derived export-request keys to previously produced
// artifact names so repeat requests can be served without regenerating.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL bounds the lifetime of a cache entry unless overridden per write.
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned by Get when no live entry exists for the key:
// never written, expired, or the backing store has no copy.
var ErrNotFound = errors.New("cache entry not found")

// Store is the capability interface for the artifact cache. Implementations
// must evict expired entries on read before reporting them absent; a
// dangling expired pointer must never surface to a caller.
type Store interface {
	// Get returns the artifact name for the key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set upserts an entry with expiry now + ttl. A non-positive ttl
	// means DefaultTTL.
	Set(ctx context.Context, key, artifactName string, ttl time.Duration) error

	// Delete removes an entry. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
