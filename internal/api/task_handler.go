package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/maplab/geoexport-api/internal/api/shared"
	"github.com/maplab/geoexport-api/internal/cache"
	"github.com/maplab/geoexport-api/internal/cleanup"
	"github.com/maplab/geoexport-api/internal/domain"
	"github.com/maplab/geoexport-api/internal/export"
	"github.com/maplab/geoexport-api/internal/jobs"
	"github.com/maplab/geoexport-api/internal/redact"
)

// TaskHandlerConfig carries the webhook handler's non-dependency wiring.
type TaskHandlerConfig struct {
	// ExportDir is the flat directory artifacts are written to. The output
	// path is always recomputed from the payload's filename against this
	// directory; the payload's own path is never trusted.
	ExportDir string

	// CacheTTL bounds the lifetime of the cache entry written on success.
	CacheTTL time.Duration

	// ArtifactTTL bounds how long the produced artifact stays on disk.
	ArtifactTTL time.Duration
}

// TaskHandler is the webhook endpoint the task queue invokes. It drives the
// job through processing to a terminal state; every failure becomes a
// terminal failed job, never a dangling processing one.
type TaskHandler struct {
	jobs    *jobs.Store
	cache   cache.Store
	engine  export.Engine
	sweeper *cleanup.Sweeper
	cfg     TaskHandlerConfig
	logger  *slog.Logger
}

// NewTaskHandler creates a TaskHandler. If logger is nil, a default logger
// is used.
func NewTaskHandler(
	jobStore *jobs.Store,
	cacheStore cache.Store,
	engine export.Engine,
	sweeper *cleanup.Sweeper,
	cfg TaskHandlerConfig,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		jobs:    jobStore,
		cache:   cacheStore,
		engine:  engine,
		sweeper: sweeper,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "task_handler")),
	}
}

// ProcessTask handles POST /tasks/process.
func (h *TaskHandler) ProcessTask(w http.ResponseWriter, r *http.Request) {
	var payload domain.TaskPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if payload.TaskID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(domain.ErrMissingTaskID))
		return
	}

	// Queue retries may arrive before or after local bookkeeping; create
	// the job if this process has never seen it.
	if _, ok := h.jobs.Get(payload.TaskID); !ok {
		h.logger.Warn("webhook invoked for unknown job, creating it",
			slog.String("task_id", payload.TaskID))
		h.jobs.Create(payload.TaskID)
	}

	progress := 10
	h.jobs.UpdateStatus(payload.TaskID, domain.JobStatusProcessing, &progress)

	url, filename, err := h.generate(r, payload)
	if err != nil {
		h.logger.Error("task processing failed",
			slog.String("task_id", payload.TaskID),
			slog.String("error", redact.Error(err)))
		h.jobs.Fail(payload.TaskID, err.Error())
		shared.RespondWithJSON(w, r, http.StatusInternalServerError, TaskResponse{
			Status: "failed",
			TaskID: payload.TaskID,
			Error:  err.Error(),
		})
		return
	}

	h.jobs.Complete(payload.TaskID, domain.JobResult{URL: url, Filename: filename})
	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{
		Status:   "success",
		TaskID:   payload.TaskID,
		URL:      url,
		Filename: filename,
	})
}

// generate runs the engine and records the artifact in the cache and the
// cleanup schedule. Returns the download URL and filename on success.
func (h *TaskHandler) generate(r *http.Request, payload domain.TaskPayload) (string, string, error) {
	filename, err := export.SafeFilename(payload.Filename)
	if err != nil {
		return "", "", fmt.Errorf("rejected artifact filename: %w", err)
	}
	outputPath := filepath.Join(h.cfg.ExportDir, filename)

	if err := os.MkdirAll(h.cfg.ExportDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to prepare export directory: %w", err)
	}

	if err := h.engine.Generate(r.Context(), payload.ExportRequest, outputPath); err != nil {
		return "", "", err
	}
	if _, err := os.Stat(outputPath); err != nil {
		return "", "", fmt.Errorf("engine produced no output file %s", filename)
	}

	if payload.CacheKey != "" {
		if err := h.cache.Set(r.Context(), payload.CacheKey, filename, h.cfg.CacheTTL); err != nil {
			// Cache trouble never fails the task.
			h.logger.Warn("failed to write cache entry",
				slog.String("cache_key", payload.CacheKey),
				slog.String("error", err.Error()))
		}
	}
	h.sweeper.Schedule(outputPath, h.cfg.ArtifactTTL)

	return payload.DownloadURL, filename, nil
}
