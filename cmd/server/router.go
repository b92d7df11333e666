package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maplab/geoexport-api/internal/api"
	apiMiddleware "github.com/maplab/geoexport-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	exportHandler := api.NewExportHandler(app.exportService, app.logger)
	jobHandler := api.NewJobHandler(app.jobStore)
	taskHandler := api.NewTaskHandler(
		app.jobStore, app.cacheStore, app.engine, app.sweeper,
		api.TaskHandlerConfig{
			ExportDir:   app.config.Export.Dir,
			CacheTTL:    time.Duration(app.config.Export.CacheTTLMinutes) * time.Minute,
			ArtifactTTL: time.Duration(app.config.Export.ArtifactTTLMinutes) * time.Minute,
		}, app.logger)
	downloadHandler := api.NewDownloadHandler(app.config.Export.Dir)
	taskAuth := apiMiddleware.NewTaskAuthMiddleware(app.tokens)

	// General API traffic shares one limiter.
	r.Group(func(r chi.Router) {
		r.Use(apiMiddleware.RateLimit(
			app.config.Export.APIRateLimit, int(app.config.Export.APIRateLimit)))

		r.Post("/exports", exportHandler.CreateExport)
		r.Post("/exports/batch", exportHandler.CreateBatch)
		r.Get("/jobs/{id}", jobHandler.GetJob)
	})

	// The webhook is queue infrastructure: authenticated and more tightly
	// rate limited than end-user traffic.
	r.Group(func(r chi.Router) {
		r.Use(apiMiddleware.RateLimit(
			app.config.Export.WebhookRateLimit, int(app.config.Export.WebhookRateLimit)))
		r.Use(taskAuth.Authenticate)

		r.Post("/tasks/process", taskHandler.ProcessTask)
	})

	r.Get("/downloads/{filename}", downloadHandler.GetArtifact)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
