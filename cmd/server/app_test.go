package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplab/geoexport-api/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Port:          8080,
			LogLevel:      "info",
			PublicBaseURL: "http://localhost:8080",
		},
		Auth: config.AuthConfig{
			TaskTokenSecret:          "0123456789abcdef0123456789abcdef",
			TaskTokenLifetimeMinutes: 60,
		},
		Export: config.ExportConfig{
			Dir:                  t.TempDir(),
			EngineCommand:        "geoexport-engine",
			CacheTTLMinutes:      60,
			ArtifactTTLMinutes:   60,
			JobRetentionMinutes:  60,
			SweepIntervalSeconds: 600,
			MemoryCacheSize:      64,
			APIRateLimit:         50,
			WebhookRateLimit:     10,
		},
	}
}

func TestNewApplication_MemoryOnly(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app, err := newApplication(context.Background(), testConfig(t), logger, nil)
	require.NoError(t, err)
	defer app.cleanup()

	assert.Nil(t, app.db)
	assert.Nil(t, app.taskQueue)
	assert.NotNil(t, app.cacheStore)
	assert.NotNil(t, app.dispatcher)
	assert.NotNil(t, app.exportService)
}

func TestNewApplication_ShortSecret(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := testConfig(t)
	cfg.Auth.TaskTokenSecret = "short"

	_, err := newApplication(context.Background(), cfg, logger, nil)
	assert.Error(t, err)
}

func TestSetupRouter_Health(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app, err := newApplication(context.Background(), testConfig(t), logger, nil)
	require.NoError(t, err)
	defer app.cleanup()

	router := app.setupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestSetupRouter_WebhookRequiresAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app, err := newApplication(context.Background(), testConfig(t), logger, nil)
	require.NoError(t, err)
	defer app.cleanup()

	router := app.setupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks/process", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
