package cleanup

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSweeper(t *testing.T, ttl time.Duration) *Sweeper {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(ttl, time.Minute, logger)
}

func writeTempArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export-test.zip")
	require.NoError(t, os.WriteFile(path, []byte("zip bytes"), 0o644))
	return path
}

func TestSweeper_DeletesExpiredExactlyOnce(t *testing.T) {
	t.Parallel()

	sweeper := newTestSweeper(t, 40*time.Millisecond)
	path := writeTempArtifact(t)

	sweeper.Schedule(path, 40*time.Millisecond)
	assert.Equal(t, 1, sweeper.PendingCount())

	// Before the deadline the file survives a sweep.
	sweeper.Sweep()
	_, err := os.Stat(path)
	assert.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	sweeper.Sweep()

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file should be removed after its deadline")
	assert.Equal(t, 0, sweeper.PendingCount())

	// Sweeping again with the file already gone must not error or panic.
	assert.NotPanics(t, sweeper.Sweep)
}

func TestSweeper_MissingFileIsNotFatal(t *testing.T) {
	t.Parallel()

	sweeper := newTestSweeper(t, 10*time.Millisecond)
	path := filepath.Join(t.TempDir(), "never-created.zip")

	sweeper.Schedule(path, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	assert.NotPanics(t, sweeper.Sweep)
	assert.Equal(t, 0, sweeper.PendingCount())
}

func TestSweeper_SweepWithNothingPending(t *testing.T) {
	t.Parallel()

	sweeper := newTestSweeper(t, time.Hour)
	assert.NotPanics(t, sweeper.Sweep)
}

func TestSweeper_DefaultTTLApplied(t *testing.T) {
	t.Parallel()

	sweeper := newTestSweeper(t, time.Hour)
	path := writeTempArtifact(t)

	// Zero ttl means the sweeper default, so an immediate sweep keeps it.
	sweeper.Schedule(path, 0)
	sweeper.Sweep()

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSweeper_RescheduleResetsDeadline(t *testing.T) {
	t.Parallel()

	sweeper := newTestSweeper(t, time.Hour)
	path := writeTempArtifact(t)

	sweeper.Schedule(path, 20*time.Millisecond)
	sweeper.Schedule(path, time.Hour)

	time.Sleep(40 * time.Millisecond)
	sweeper.Sweep()

	_, err := os.Stat(path)
	assert.NoError(t, err, "rescheduled file must survive the old deadline")
	assert.Equal(t, 1, sweeper.PendingCount())
}

func TestSweeper_StartStop(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := New(10*time.Millisecond, 15*time.Millisecond, logger)
	path := writeTempArtifact(t)

	sweeper.Schedule(path, 10*time.Millisecond)
	sweeper.Start()
	// Double start is a no-op.
	sweeper.Start()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond)

	sweeper.Stop()
	assert.NotPanics(t, sweeper.Stop)
}
