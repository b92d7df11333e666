// Package service orchestrates export requests: validation, cache-key
// derivation, artifact cache checks, and handoff to the task dispatcher,
// for single requests and batches.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/maplab/geoexport-api/internal/cache"
	"github.com/maplab/geoexport-api/internal/cachekey"
	"github.com/maplab/geoexport-api/internal/domain"
	"github.com/maplab/geoexport-api/internal/jobs"
)

// Dispatcher submits a validated request for generation. Implemented by
// dispatch.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.ExportRequest, key string) (domain.DispatchResult, error)
}

// Outcome describes how a single export request was resolved. Exactly one of
// the three shapes applies: a cache hit (Cached, URL set), a synchronous
// completion (AlreadyCompleted, JobID and URL set), or a queued job (JobID
// set, poll for the result).
type Outcome struct {
	Cached           bool
	AlreadyCompleted bool
	JobID            string
	URL              string
}

// BatchRowError reports a single rejected batch row by its zero-based index.
type BatchRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// BatchResult aggregates per-row outcomes and per-row errors for a batch.
// Rows are processed in order; a failing row never aborts the rest.
type BatchResult struct {
	Results []Outcome
	Errors  []BatchRowError
}

// Config carries the export service's non-dependency wiring.
type Config struct {
	// ExportDir is the flat directory cached artifacts are verified against.
	ExportDir string

	// DownloadBaseURL is the externally visible prefix under which
	// artifacts are served.
	DownloadBaseURL string
}

// ExportService resolves export requests against the artifact cache and the
// task dispatcher. Concurrent identical requests (same cache key) share one
// in-flight resolution through a single-flight group.
type ExportService struct {
	validate   *validator.Validate
	cache      cache.Store
	jobs       *jobs.Store
	dispatcher Dispatcher
	flight     singleflight.Group
	cfg        Config
	logger     *slog.Logger
}

// NewExportService creates an ExportService. If logger is nil, a default
// logger is used.
func NewExportService(
	cacheStore cache.Store,
	jobStore *jobs.Store,
	dispatcher Dispatcher,
	cfg Config,
	logger *slog.Logger,
) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		validate:   validator.New(),
		cache:      cacheStore,
		jobs:       jobStore,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "export_service")),
	}
}

// Process resolves one export request: validate, derive the cache key, serve
// from cache when the artifact still exists on disk, otherwise dispatch.
// Concurrent calls with the same derived key join the same resolution.
func (s *ExportService) Process(ctx context.Context, req domain.ExportRequest) (Outcome, error) {
	if err := s.validate.Struct(req); err != nil {
		return Outcome{}, fmt.Errorf("%w: %s", domain.ErrValidation, validationMessage(err))
	}

	key, err := cachekey.Derive(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to derive cache key: %w", err)
	}

	result, err, shared := s.flight.Do(key, func() (interface{}, error) {
		return s.resolve(ctx, req, key)
	})
	if err != nil {
		return Outcome{}, err
	}
	if shared {
		s.logger.Debug("request joined in-flight resolution", slog.String("cache_key", key))
	}
	return result.(Outcome), nil
}

// resolve runs the cache-check then dispatch sequence for one key. Called
// under the single-flight group.
func (s *ExportService) resolve(ctx context.Context, req domain.ExportRequest, key string) (Outcome, error) {
	name, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		path := filepath.Join(s.cfg.ExportDir, name)
		if _, statErr := os.Stat(path); statErr == nil {
			s.logger.Info("cache hit",
				slog.String("cache_key", key),
				slog.String("filename", name))
			return Outcome{Cached: true, URL: joinURL(s.cfg.DownloadBaseURL, name)}, nil
		}
		// The cache points at an artifact that no longer exists on disk.
		// Drop the entry and regenerate.
		s.logger.Warn("cache entry references missing artifact, self-healing",
			slog.String("cache_key", key),
			slog.String("filename", name))
		if delErr := s.cache.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to delete stale cache entry",
				slog.String("cache_key", key),
				slog.String("error", delErr.Error()))
		}
	case errors.Is(err, cache.ErrNotFound):
		// Plain miss.
	default:
		// Cache trouble degrades to a miss, never fails the request.
		s.logger.Warn("cache lookup failed, treating as miss",
			slog.String("cache_key", key),
			slog.String("error", err.Error()))
	}

	res, err := s.dispatcher.Dispatch(ctx, req, key)
	if err != nil {
		return Outcome{}, err
	}

	if res.AlreadyCompleted {
		out := Outcome{AlreadyCompleted: true, JobID: res.JobID}
		if job, ok := s.jobs.Get(res.JobID); ok && job.Result != nil {
			out.URL = job.Result.URL
		}
		return out, nil
	}
	return Outcome{JobID: res.JobID}, nil
}

// ProcessBatch resolves each row independently and in order. Row failures,
// validation or otherwise, are collected and never abort the remaining rows.
// Returns domain.ErrEmptyBatch for an empty batch and domain.ErrBatchRejected
// when no row succeeded.
func (s *ExportService) ProcessBatch(ctx context.Context, rows []domain.ExportRequest) (BatchResult, error) {
	if len(rows) == 0 {
		return BatchResult{}, domain.ErrEmptyBatch
	}

	batch := BatchResult{
		Results: make([]Outcome, 0, len(rows)),
		Errors:  make([]BatchRowError, 0),
	}
	for i, row := range rows {
		out, err := s.Process(ctx, row)
		if err != nil {
			s.logger.Warn("batch row failed",
				slog.Int("row", i),
				slog.String("error", err.Error()))
			batch.Errors = append(batch.Errors, BatchRowError{Row: i, Message: err.Error()})
			continue
		}
		batch.Results = append(batch.Results, out)
	}

	if len(batch.Results) == 0 {
		return batch, domain.ErrBatchRejected
	}
	return batch, nil
}

// validationMessage flattens validator errors into a single readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("field '%s' failed on '%s'", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func joinURL(base, filename string) string {
	return strings.TrimSuffix(base, "/") + "/" + filename
}
