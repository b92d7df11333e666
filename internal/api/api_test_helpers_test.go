package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/maplab/geoexport-api/internal/api"
	apimiddleware "github.com/maplab/geoexport-api/internal/api/middleware"
	"github.com/maplab/geoexport-api/internal/cache"
	"github.com/maplab/geoexport-api/internal/cleanup"
	"github.com/maplab/geoexport-api/internal/dispatch"
	"github.com/maplab/geoexport-api/internal/domain"
	"github.com/maplab/geoexport-api/internal/jobs"
	"github.com/maplab/geoexport-api/internal/queue"
	"github.com/maplab/geoexport-api/internal/service"
	"github.com/maplab/geoexport-api/internal/service/tasktoken"
)

const testDownloadBase = "https://geoexport.example.com/downloads"

// testQueue captures enqueued messages or returns a fixed error.
type testQueue struct {
	mu       sync.Mutex
	err      error
	messages []queue.Message
}

func (q *testQueue) Enqueue(ctx context.Context, msg queue.Message) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.messages = append(q.messages, msg)
	return "queues/test/tasks/1", nil
}

func (q *testQueue) lastMessage(t *testing.T) queue.Message {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	require.NotEmpty(t, q.messages)
	return q.messages[len(q.messages)-1]
}

// testEngine counts invocations and writes a zip placeholder, or fails.
type testEngine struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *testEngine) Generate(ctx context.Context, req domain.ExportRequest, outputPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return e.err
	}
	return os.WriteFile(outputPath, []byte("zip bytes"), 0o644)
}

func (e *testEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type apiFixture struct {
	router    http.Handler
	queue     *testQueue
	engine    *testEngine
	cache     cache.Store
	jobs      *jobs.Store
	tokens    tasktoken.Service
	exportDir string
}

// newAPIFixture wires the full handler stack against in-memory dependencies
// and a stub queue and engine.
func newAPIFixture(t *testing.T, q *testQueue) *apiFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exportDir := t.TempDir()
	jobStore := jobs.New(time.Hour, logger)
	cacheStore := cache.NewMemoryStore(64)
	sweeper := cleanup.New(time.Hour, time.Minute, logger)
	engine := &testEngine{}
	tokens, err := tasktoken.NewService("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)

	var taskQueue queue.TaskQueue
	if q != nil {
		taskQueue = q
	}
	dispatcher := dispatch.New(taskQueue, jobStore, cacheStore, engine, sweeper, tokens, dispatch.Config{
		CallbackURL:     "https://geoexport.example.com/tasks/process",
		DownloadBaseURL: testDownloadBase,
		ExportDir:       exportDir,
		CacheTTL:        time.Hour,
		ArtifactTTL:     time.Hour,
	}, logger)

	exportService := service.NewExportService(cacheStore, jobStore, dispatcher, service.Config{
		ExportDir:       exportDir,
		DownloadBaseURL: testDownloadBase,
	}, logger)

	exportHandler := api.NewExportHandler(exportService, logger)
	jobHandler := api.NewJobHandler(jobStore)
	taskHandler := api.NewTaskHandler(jobStore, cacheStore, engine, sweeper, api.TaskHandlerConfig{
		ExportDir:   exportDir,
		CacheTTL:    time.Hour,
		ArtifactTTL: time.Hour,
	}, logger)
	downloadHandler := api.NewDownloadHandler(exportDir)

	r := chi.NewRouter()
	r.Use(apimiddleware.TraceMiddleware)
	r.Post("/exports", exportHandler.CreateExport)
	r.Post("/exports/batch", exportHandler.CreateBatch)
	r.Get("/jobs/{id}", jobHandler.GetJob)
	r.Get("/downloads/{filename}", downloadHandler.GetArtifact)
	r.Group(func(r chi.Router) {
		r.Use(apimiddleware.NewTaskAuthMiddleware(tokens).Authenticate)
		r.Post("/tasks/process", taskHandler.ProcessTask)
	})

	return &apiFixture{
		router:    r,
		queue:     q,
		engine:    engine,
		cache:     cacheStore,
		jobs:      jobStore,
		tokens:    tokens,
		exportDir: exportDir,
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func circleBody() map[string]interface{} {
	return map[string]interface{}{
		"lat":    -22.15,
		"lon":    -42.92,
		"radius": 500,
		"mode":   "circle",
	}
}
