// Package postgres implements the persistent artifact cache on PostgreSQL,
// plus the schema migrations it needs.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maplab/geoexport-api/internal/cache"
	"github.com/maplab/geoexport-api/internal/platform/logger"
)

// DBTX is the database capability the store needs: satisfied by *sql.DB and
// *sql.Tx, so callers control transaction boundaries.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// CacheStore is the PostgreSQL-backed artifact cache. Expired rows are
// deleted on read before being reported absent.
type CacheStore struct {
	db     DBTX
	logger *slog.Logger
}

// Ensure CacheStore implements the cache.Store interface
var _ cache.Store = (*CacheStore)(nil)

// NewCacheStore creates a CacheStore over the given connection or
// transaction. If logger is nil, a default logger is used.
func NewCacheStore(db DBTX, logger *slog.Logger) *CacheStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheStore{
		db:     db,
		logger: logger.With(slog.String("component", "cache_store")),
	}
}

// Get implements cache.Store.Get.
func (s *CacheStore) Get(ctx context.Context, key string) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var artifactName string
	var expiresAt time.Time
	query := `SELECT artifact_name, expires_at FROM artifact_cache WHERE key = $1`
	err := s.db.QueryRowContext(ctx, query, key).Scan(&artifactName, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", cache.ErrNotFound
		}
		log.Error("failed to read cache entry",
			slog.String("cache_key", key),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to read cache entry: %w", err)
	}

	if !expiresAt.After(time.Now().UTC()) {
		// Expired rows are removed on read, never surfaced.
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM artifact_cache WHERE key = $1`, key); err != nil {
			log.Warn("failed to delete expired cache entry",
				slog.String("cache_key", key),
				slog.String("error", err.Error()))
		}
		return "", cache.ErrNotFound
	}

	return artifactName, nil
}

// Set implements cache.Store.Set.
func (s *CacheStore) Set(ctx context.Context, key, artifactName string, ttl time.Duration) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO artifact_cache (key, artifact_name, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET artifact_name = excluded.artifact_name,
		    created_at = excluded.created_at,
		    expires_at = excluded.expires_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, artifactName, now, now.Add(ttl)); err != nil {
		log.Error("failed to upsert cache entry",
			slog.String("cache_key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}

	log.Debug("cache entry written",
		slog.String("cache_key", key),
		slog.String("artifact_name", artifactName),
		slog.Duration("ttl", ttl))
	return nil
}

// Delete implements cache.Store.Delete. Deleting an absent key is not an
// error.
func (s *CacheStore) Delete(ctx context.Context, key string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM artifact_cache WHERE key = $1`, key); err != nil {
		log.Error("failed to delete cache entry",
			slog.String("cache_key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}
