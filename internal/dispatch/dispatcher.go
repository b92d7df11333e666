// Package dispatch submits export work to the external task queue and falls
// back to synchronous in-process generation when the queue is unprovisioned
// or inaccessible.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maplab/geoexport-api/internal/cache"
	"github.com/maplab/geoexport-api/internal/cleanup"
	"github.com/maplab/geoexport-api/internal/domain"
	"github.com/maplab/geoexport-api/internal/export"
	"github.com/maplab/geoexport-api/internal/jobs"
	"github.com/maplab/geoexport-api/internal/queue"
	"github.com/maplab/geoexport-api/internal/service/tasktoken"
)

// Config carries the dispatcher's wiring that is not a service dependency.
type Config struct {
	// CallbackURL is the externally reachable webhook endpoint the queue
	// will invoke.
	CallbackURL string

	// DownloadBaseURL is the externally visible prefix under which
	// artifacts are served.
	DownloadBaseURL string

	// ExportDir is the flat directory generated artifacts are written to.
	ExportDir string

	// CacheTTL bounds the lifetime of cache entries written on the
	// synchronous path. Non-positive means cache.DefaultTTL.
	CacheTTL time.Duration

	// ArtifactTTL bounds how long artifacts written on the synchronous
	// path stay on disk.
	ArtifactTTL time.Duration
}

// Dispatcher submits generation requests to the external queue, seeding job
// state, or executes them synchronously when the queue cannot be used.
type Dispatcher struct {
	queue   queue.TaskQueue // nil when no queue coordinates are configured
	jobs    *jobs.Store
	cache   cache.Store
	engine  export.Engine
	sweeper *cleanup.Sweeper
	tokens  tasktoken.Service
	cfg     Config
	logger  *slog.Logger
}

// New creates a Dispatcher. A nil taskQueue means the environment has no
// queue coordinates at all; every dispatch then runs synchronously without
// touching the network. If logger is nil, a default logger is used.
func New(
	taskQueue queue.TaskQueue,
	jobStore *jobs.Store,
	cacheStore cache.Store,
	engine export.Engine,
	sweeper *cleanup.Sweeper,
	tokens tasktoken.Service,
	cfg Config,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:   taskQueue,
		jobs:    jobStore,
		cache:   cacheStore,
		engine:  engine,
		sweeper: sweeper,
		tokens:  tokens,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch accepts a validated export request and its precomputed cache
// key. It returns the job id for polling, with AlreadyCompleted set when
// the synchronous fallback ran. Provisioning and permission failures from
// the queue trigger the fallback; any other enqueue error is a hard failure.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.ExportRequest, key string) (domain.DispatchResult, error) {
	jobID := uuid.NewString()
	filename := export.NewArtifactName()
	outputPath := filepath.Join(d.cfg.ExportDir, filename)
	downloadURL := joinURL(d.cfg.DownloadBaseURL, filename)

	if d.queue == nil {
		// No queue coordinates configured: skip the network entirely.
		d.logger.Info("queue not configured, running export synchronously",
			slog.String("job_id", jobID))
		return d.runSync(ctx, req, key, jobID, filename, outputPath, downloadURL)
	}

	token, err := d.tokens.Generate(ctx)
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("failed to generate task token: %w", err)
	}

	payload := domain.TaskPayload{
		TaskID:        jobID,
		ExportRequest: req,
		OutputFile:    outputPath,
		Filename:      filename,
		CacheKey:      key,
		DownloadURL:   downloadURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("failed to encode task payload: %w", err)
	}

	// Seed job state before the enqueue so a fast webhook callback always
	// finds the job.
	d.jobs.Create(jobID)

	handle, err := d.queue.Enqueue(ctx, queue.Message{
		Payload:     body,
		CallbackURL: d.cfg.CallbackURL,
		AuthToken:   token,
	})
	if err != nil {
		if queue.TriggersFallback(err) {
			d.logger.Warn("queue unavailable, falling back to synchronous export",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()))
			return d.runSync(ctx, req, key, jobID, filename, outputPath, downloadURL)
		}

		// Ambiguous errors never fall back silently; keep the seeded job
		// consistent and surface the failure.
		d.jobs.Fail(jobID, "failed to enqueue export task")
		return domain.DispatchResult{}, fmt.Errorf("failed to enqueue export task: %w", err)
	}

	d.logger.Info("export task enqueued",
		slog.String("job_id", jobID),
		slog.String("task_handle", handle))
	return domain.DispatchResult{JobID: jobID, AlreadyCompleted: false}, nil
}

// runSync executes the generation engine in-process and records a terminal
// job, bypassing the queued and processing states.
func (d *Dispatcher) runSync(
	ctx context.Context,
	req domain.ExportRequest,
	key, jobID, filename, outputPath, downloadURL string,
) (domain.DispatchResult, error) {
	if err := os.MkdirAll(d.cfg.ExportDir, 0o755); err != nil {
		d.jobs.CreateFailed(jobID, "failed to prepare export directory")
		return domain.DispatchResult{}, fmt.Errorf("failed to prepare export directory: %w", err)
	}

	err := d.engine.Generate(ctx, req, outputPath)
	if err == nil {
		if _, statErr := os.Stat(outputPath); statErr != nil {
			// The engine reported success but left no file behind.
			err = fmt.Errorf("engine produced no output file %s", filename)
		}
	}
	if err != nil {
		d.logger.Error("synchronous export failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		d.jobs.CreateFailed(jobID, err.Error())
		return domain.DispatchResult{}, err
	}

	if cacheErr := d.cache.Set(ctx, key, filename, d.cfg.CacheTTL); cacheErr != nil {
		// Cache trouble never fails the request.
		d.logger.Warn("failed to write cache entry after synchronous export",
			slog.String("cache_key", key),
			slog.String("error", cacheErr.Error()))
	}
	d.sweeper.Schedule(outputPath, d.cfg.ArtifactTTL)
	d.jobs.CreateCompleted(jobID, domain.JobResult{URL: downloadURL, Filename: filename})

	d.logger.Info("synchronous export completed",
		slog.String("job_id", jobID),
		slog.String("filename", filename))
	return domain.DispatchResult{JobID: jobID, AlreadyCompleted: true}, nil
}

func joinURL(base, filename string) string {
	return strings.TrimSuffix(base, "/") + "/" + filename
}
