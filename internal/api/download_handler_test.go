package api_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetArtifact_ServesFile(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(f.exportDir, "export-a.zip"), []byte("zip bytes"), 0o644))

	w := f.do(t, http.MethodGet, "/downloads/export-a.zip", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "zip bytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "export-a.zip")
}

func TestGetArtifact_Missing(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, nil)

	w := f.do(t, http.MethodGet, "/downloads/export-missing.zip", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetArtifact_TraversalRejected(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, nil)

	// Dot-prefixed names are rejected before the filesystem is touched.
	w := f.do(t, http.MethodGet, "/downloads/.hidden", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
