// Package jobs tracks the lifecycle state of asynchronous export jobs for
// short-lived polling. The store is process-local; entries are purged after
// a bounded retention window.
package jobs

import (
	"log/slog"
	"sync"
	"time"

	"github.com/maplab/geoexport-api/internal/domain"
)

// DefaultRetention bounds how long a finished or abandoned job remains
// pollable. It is independent of the artifact cache TTL.
const DefaultRetention = 2 * time.Hour

// maxErrorLen bounds the failure message surfaced to pollers.
const maxErrorLen = 500

// Store holds job lifecycle state keyed by job id. All mutations are
// whole-value transitions guarded by a single lock; unknown ids are logged
// at error level and never panic.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]*domain.Job
	retention time.Duration
	logger    *slog.Logger

	sweepMu  sync.Mutex
	stopCh   chan struct{}
	stopped  chan struct{}
	sweeping bool
}

// New creates a Store with the given retention window. A non-positive
// retention uses DefaultRetention. If logger is nil, a default logger is used.
func New(retention time.Duration, logger *slog.Logger) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		jobs:      make(map[string]*domain.Job),
		retention: retention,
		logger:    logger.With(slog.String("component", "job_store")),
	}
}

// Create inserts a new job in the queued state with zero progress.
func (s *Store) Create(id string) *domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := domain.NewJob(id)
	s.jobs[id] = job

	s.logger.Debug("job created", slog.String("job_id", id))
	return copyJob(job)
}

// CreateCompleted inserts a job directly in the completed terminal state.
// Used by the synchronous-fallback path, which never passes through the
// queued or processing states. Upserts if the id already exists.
func (s *Store) CreateCompleted(id string, result domain.JobResult) *domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := domain.NewJob(id)
	job.Status = domain.JobStatusCompleted
	job.Progress = 100
	job.Result = &result
	job.UpdatedAt = time.Now().UTC()
	s.jobs[id] = job

	s.logger.Debug("job created in terminal completed state", slog.String("job_id", id))
	return copyJob(job)
}

// CreateFailed inserts a job directly in the failed terminal state.
func (s *Store) CreateFailed(id, message string) *domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := domain.NewJob(id)
	job.Status = domain.JobStatusFailed
	job.Error = truncate(message)
	job.UpdatedAt = time.Now().UTC()
	s.jobs[id] = job

	s.logger.Debug("job created in terminal failed state", slog.String("job_id", id))
	return copyJob(job)
}

// UpdateStatus moves the job to the given status, updating progress when
// provided. The transition guard is intentionally permissive: a terminal job
// receiving further ticks is logged as an anomaly but the store stays
// consistent. Unknown ids are logged at error level.
func (s *Store) UpdateStatus(id string, status domain.JobStatus, progress *int) {
	if !domain.IsValidJobStatus(status) {
		s.logger.Error("rejected unknown job status",
			slog.String("job_id", id),
			slog.String("status", string(status)))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		s.logger.Error("status update for unknown job",
			slog.String("job_id", id),
			slog.String("status", string(status)))
		return
	}

	if job.IsTerminal() {
		s.logger.Warn("status update on terminal job",
			slog.String("job_id", id),
			slog.String("current_status", string(job.Status)),
			slog.String("requested_status", string(status)))
	}

	job.Status = status
	if progress != nil {
		job.Progress = clampProgress(*progress)
	}
	job.UpdatedAt = time.Now().UTC()
}

// Complete marks the job completed with the given result and full progress.
// Unknown ids are logged at error level.
func (s *Store) Complete(id string, result domain.JobResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		s.logger.Error("completion for unknown job", slog.String("job_id", id))
		return
	}

	job.Status = domain.JobStatusCompleted
	job.Progress = 100
	job.Result = &result
	job.UpdatedAt = time.Now().UTC()

	s.logger.Info("job completed",
		slog.String("job_id", id),
		slog.String("filename", result.Filename))
}

// Fail marks the job failed with the given message, bounded in length.
// Unknown ids are logged at error level.
func (s *Store) Fail(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		s.logger.Error("failure for unknown job",
			slog.String("job_id", id),
			slog.String("message", message))
		return
	}

	job.Status = domain.JobStatusFailed
	job.Error = truncate(message)
	job.UpdatedAt = time.Now().UTC()

	s.logger.Info("job failed", slog.String("job_id", id), slog.String("error", job.Error))
}

// Get returns a copy of the job, or false if unknown.
func (s *Store) Get(id string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *copyJob(job), true
}

// Len reports the number of tracked jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// StartSweeper launches the background retention sweep at the given
// interval. Starting an already running sweeper is a no-op.
func (s *Store) StartSweeper(interval time.Duration) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	if s.sweeping {
		return
	}
	s.sweeping = true
	s.stopCh = make(chan struct{})
	s.stopped = make(chan struct{})

	go func(stopCh, stopped chan struct{}) {
		defer close(stopped)
		ticker := time.NewTicker(interval)
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

	s.logger.Debug("job retention sweeper started",
		slog.Duration("interval", interval),
		slog.Duration("retention", s.retention))
}

// StopSweeper stops the background sweep. Safe to call repeatedly or when
// the sweeper never started.
func (s *Store) StopSweeper() {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	if !s.sweeping {
		return
	}
	close(s.stopCh)
	<-s.stopped
	s.sweeping = false
}

// Sweep purges jobs not updated within the retention window. Idempotent and
// safe to invoke directly.
func (s *Store) Sweep() {
	cutoff := time.Now().UTC().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("purged expired jobs", slog.Int("count", removed))
	}
}

func copyJob(job *domain.Job) *domain.Job {
	dup := *job
	if job.Result != nil {
		result := *job.Result
		dup.Result = &result
	}
	return &dup
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func truncate(message string) string {
	if len(message) > maxErrorLen {
		return message[:maxErrorLen]
	}
	return message
}
