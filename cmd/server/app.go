package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maplab/geoexport-api/internal/cache"
	"github.com/maplab/geoexport-api/internal/cleanup"
	"github.com/maplab/geoexport-api/internal/config"
	"github.com/maplab/geoexport-api/internal/dispatch"
	"github.com/maplab/geoexport-api/internal/export"
	"github.com/maplab/geoexport-api/internal/jobs"
	"github.com/maplab/geoexport-api/internal/platform/postgres"
	"github.com/maplab/geoexport-api/internal/queue"
	"github.com/maplab/geoexport-api/internal/service"
	"github.com/maplab/geoexport-api/internal/service/tasktoken"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB // nil when running without a database

	cacheStore cache.Store
	jobStore   *jobs.Store
	sweeper    *cleanup.Sweeper
	tokens     tasktoken.Service
	engine     export.Engine
	taskQueue  queue.TaskQueue // nil when no queue coordinates are configured

	dispatcher    *dispatch.Dispatcher
	exportService *service.ExportService
}

// newApplication creates an application instance with all dependencies
// initialized. Core dependencies (configuration, logger, optional database
// connection) must be established before calling this.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.tokens, err = tasktoken.NewService(
		cfg.Auth.TaskTokenSecret,
		time.Duration(cfg.Auth.TaskTokenLifetimeMinutes)*time.Minute,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize task token service: %w", err)
	}

	// The in-memory store doubles as the fallback behind the database.
	memoryCache := cache.NewMemoryStore(cfg.Export.MemoryCacheSize)
	if db != nil {
		app.cacheStore = cache.NewFailover(postgres.NewCacheStore(db, logger), memoryCache, logger)
	} else {
		app.cacheStore = memoryCache
	}

	app.jobStore = jobs.New(
		time.Duration(cfg.Export.JobRetentionMinutes)*time.Minute, logger)
	app.jobStore.StartSweeper(
		time.Duration(cfg.Export.SweepIntervalSeconds) * time.Second)

	app.sweeper = cleanup.New(
		time.Duration(cfg.Export.ArtifactTTLMinutes)*time.Minute,
		time.Duration(cfg.Export.SweepIntervalSeconds)*time.Second,
		logger)
	app.sweeper.Start()

	app.engine = export.NewCommandEngine(cfg.Export.EngineCommand, nil, logger)

	if cfg.Queue.Configured() {
		app.taskQueue, err = queue.NewCloudTasksQueue(
			ctx, cfg.Queue.Project, cfg.Queue.Location, cfg.Queue.QueueID, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		logger.Info("Task queue initialized",
			"project", cfg.Queue.Project,
			"queue", cfg.Queue.QueueID)
	} else {
		logger.Warn("no task queue configured, all exports run synchronously")
	}

	baseURL := strings.TrimSuffix(cfg.Server.PublicBaseURL, "/")
	app.dispatcher = dispatch.New(
		app.taskQueue, app.jobStore, app.cacheStore, app.engine,
		app.sweeper, app.tokens,
		dispatch.Config{
			CallbackURL:     baseURL + "/tasks/process",
			DownloadBaseURL: baseURL + "/downloads",
			ExportDir:       cfg.Export.Dir,
			CacheTTL:        time.Duration(cfg.Export.CacheTTLMinutes) * time.Minute,
			ArtifactTTL:     time.Duration(cfg.Export.ArtifactTTLMinutes) * time.Minute,
		}, logger)

	app.exportService = service.NewExportService(
		app.cacheStore, app.jobStore, app.dispatcher,
		service.Config{
			ExportDir:       cfg.Export.Dir,
			DownloadBaseURL: baseURL + "/downloads",
		}, logger)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.sweeper != nil {
		app.sweeper.Stop()
	}
	if app.jobStore != nil {
		app.jobStore.StopSweeper()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
