// Package logger provides structured logging for the application: a JSON
// slog logger configured from server settings, plus context helpers for
// carrying a request-scoped logger.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/maplab/geoexport-api/internal/config"
)

// Setup initializes the application's logging system from the provided
// configuration: a structured JSON logger at the configured level, set as
// the process default. Returns the configured logger.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo

		tmpLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, nil
}
