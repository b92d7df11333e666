package export

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplab/geoexport-api/internal/domain"
)

func testRequest() domain.ExportRequest {
	lat, lon, radius := -22.15, -42.92, 500.0
	return domain.ExportRequest{
		Lat:    &lat,
		Lon:    &lon,
		Radius: &radius,
		Mode:   domain.SelectionModeCircle,
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestCommandEngine_WritesOutput(t *testing.T) {
	t.Parallel()
	requireShell(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	outputPath := filepath.Join(t.TempDir(), "export-test.zip")

	// The stand-in engine copies its stdin to the output path it is given.
	engine := NewCommandEngine("sh", []string{"-c", `cat > "$1"`, "engine"}, logger)

	err := engine.Generate(context.Background(), testRequest(), outputPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"mode":"circle"`)
	assert.Contains(t, string(raw), `"radius":500`)
}

func TestCommandEngine_FailureCapturesStderr(t *testing.T) {
	t.Parallel()
	requireShell(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewCommandEngine("sh", []string{"-c", `echo "boundary out of range" >&2; exit 3`, "engine"}, logger)

	err := engine.Generate(context.Background(), testRequest(), filepath.Join(t.TempDir(), "out.zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boundary out of range")
}

func TestCommandEngine_MissingBinary(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewCommandEngine("definitely-not-a-real-engine-binary", nil, logger)

	err := engine.Generate(context.Background(), testRequest(), filepath.Join(t.TempDir(), "out.zip"))
	assert.Error(t, err)
}
