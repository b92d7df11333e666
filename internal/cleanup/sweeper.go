// Package cleanup reclaims generated artifacts after their retention window
// has elapsed. Deletions are scheduled, not immediate; a periodic sweep
// removes files whose deadline has passed.
package cleanup

import (
	"log/slog"
	"os"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultArtifactTTL is how long a generated artifact stays downloadable
// before it becomes eligible for deletion.
const DefaultArtifactTTL = 24 * time.Hour

// DefaultSweepInterval is how often pending deletions are scanned. It is
// deliberately much shorter than the artifact TTL.
const DefaultSweepInterval = 10 * time.Minute

// Sweeper tracks pending artifact deletions keyed by file path and removes
// the files once their deadline passes. A file already missing at sweep
// time is a warning, not an error; any other removal failure is logged and
// never stops the sweep.
type Sweeper struct {
	pending  *gocache.Cache
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	stopped chan struct{}
	running bool
}

// New creates a Sweeper with the given default TTL and sweep interval.
// Non-positive values use the package defaults. If logger is nil, a default
// logger is used.
func New(defaultTTL, interval time.Duration, logger *slog.Logger) *Sweeper {
	if defaultTTL <= 0 {
		defaultTTL = DefaultArtifactTTL
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sweeper{
		// Cleanup interval zero disables go-cache's own janitor; the
		// sweeper drives expiry itself so it can be stopped cleanly.
		pending:  gocache.New(defaultTTL, 0),
		interval: interval,
		logger:   logger.With(slog.String("component", "cleanup_sweeper")),
	}
	s.pending.OnEvicted(func(path string, _ interface{}) {
		s.removeFile(path)
	})
	return s
}

// Schedule records a future deletion for the file. A non-positive ttl uses
// the sweeper's default. Re-scheduling an already pending path resets its
// deadline.
func (s *Sweeper) Schedule(path string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.pending.Set(path, struct{}{}, ttl)

	s.logger.Debug("artifact deletion scheduled",
		slog.String("path", path),
		slog.Duration("ttl", ttl))
}

// PendingCount reports the number of deletions currently tracked,
// including any whose deadline has passed but which have not been swept.
func (s *Sweeper) PendingCount() int {
	return s.pending.ItemCount()
}

// Sweep removes every pending file whose deadline has passed. Idempotent
// and safe to invoke with zero pending deletions.
func (s *Sweeper) Sweep() {
	s.pending.DeleteExpired()
}

// Start launches the periodic sweep loop. Starting twice is a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.stopped = make(chan struct{})

	go func(stopCh, stopped chan struct{}) {
		defer close(stopped)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-stopCh:
				return
			}
		}
	}(s.stopCh, s.stopped)

	s.logger.Debug("cleanup sweeper started", slog.Duration("interval", s.interval))
}

// Stop halts the sweep loop. Safe to call repeatedly or before Start.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	<-s.stopped
	s.running = false

	s.logger.Debug("cleanup sweeper stopped")
}

// removeFile deletes one expired artifact from disk.
func (s *Sweeper) removeFile(path string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		s.logger.Info("expired artifact removed", slog.String("path", path))
	case os.IsNotExist(err):
		// Another process may have removed it already.
		s.logger.Warn("expired artifact already gone", slog.String("path", path))
	default:
		s.logger.Error("failed to remove expired artifact",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}
