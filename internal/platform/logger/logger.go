package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/docdistill/internal/config"
)

// Setup initializes and configures the application's logging system based on
// the provided configuration. It creates a structured JSON logger with the
// appropriate log level, sets it as the default logger for the application,
// and returns it for explicit injection into components.
func Setup(cfg config.LogConfig) (*slog.Logger, error) {
	return setupWithWriter(cfg, os.Stderr)
}

// setupWithWriter is the testable core of Setup: it builds the logger against
// an arbitrary writer so tests can capture output.
func setupWithWriter(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, ok := parseLevel(cfg.Level)
	if !ok {
		// An invalid level is not fatal: fall back to info and warn about it
		// once the logger exists.
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	log := slog.New(handler)

	// Set as default so package-level slog helpers route to the same handler.
	slog.SetDefault(log)

	if !ok && cfg.Level != "" {
		log.Warn("invalid log level configured, using default level",
			"configured_level", cfg.Level,
			"default_level", "info")
	}

	return log, nil
}

// parseLevel maps a configured level string (case-insensitive) to a
// slog.Level. The second return value reports whether the string was
// recognized.
func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
