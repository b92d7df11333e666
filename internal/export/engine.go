// Package export defines the boundary to the artifact-generation engine and
// the naming rules for generated artifacts.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/maplab/geoexport-api/internal/domain"
)

// Engine produces a geospatial export file for a request. On success a
// readable file exists at outputPath; on failure an error with a
// human-readable message is returned. There is no streaming or partial
// output contract.
type Engine interface {
	Generate(ctx context.Context, req domain.ExportRequest, outputPath string) error
}

// CommandEngine invokes an external generator binary. The request is passed
// as JSON on stdin and the output path as the final argument. Stderr is
// captured into the returned error message.
type CommandEngine struct {
	command string
	args    []string
	logger  *slog.Logger
}

// Ensure CommandEngine implements the Engine interface
var _ Engine = (*CommandEngine)(nil)

// NewCommandEngine creates an engine that shells out to the given command.
// If logger is nil, a default logger is used.
func NewCommandEngine(command string, args []string, logger *slog.Logger) *CommandEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandEngine{
		command: command,
		args:    args,
		logger:  logger.With(slog.String("component", "export_engine")),
	}
}

// Generate implements Engine.Generate.
func (e *CommandEngine) Generate(ctx context.Context, req domain.ExportRequest, outputPath string) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode engine input: %w", err)
	}

	args := make([]string, 0, len(e.args)+1)
	args = append(args, e.args...)
	args = append(args, outputPath)

	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug("invoking export engine",
		slog.String("command", e.command),
		slog.String("output_path", outputPath))

	if err := cmd.Run(); err != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = err.Error()
		}
		return fmt.Errorf("export engine failed: %s", message)
	}

	return nil
}
