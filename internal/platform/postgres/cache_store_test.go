package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplab/geoexport-api/internal/cache"
)

// openTestDB connects to the integration database, or skips the test when
// GEOEXPORT_TEST_DATABASE_URL is not set.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("GEOEXPORT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("GEOEXPORT_TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	require.NoError(t, Migrate(db))

	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM artifact_cache`)
		_ = db.Close()
	})
	return db
}

func TestCacheStore_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := NewCacheStore(db, nil)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, store.Set(ctx, "key-1", "export-a.zip", time.Hour))
	name, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "export-a.zip", name)

	// Upsert replaces the artifact for the same key.
	require.NoError(t, store.Set(ctx, "key-1", "export-b.zip", time.Hour))
	name, err = store.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "export-b.zip", name)

	require.NoError(t, store.Delete(ctx, "key-1"))
	_, err = store.Get(ctx, "key-1")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete(ctx, "key-1"))
}

func TestCacheStore_ExpiredRowEvictedOnRead(t *testing.T) {
	db := openTestDB(t)
	store := NewCacheStore(db, nil)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key-exp", "export-c.zip", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err := store.Get(ctx, "key-exp")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	// The expired row was physically removed, not just filtered.
	var count int
	require.NoError(t, db.QueryRow(
		`SELECT count(*) FROM artifact_cache WHERE key = 'key-exp'`).Scan(&count))
	assert.Equal(t, 0, count)
}
