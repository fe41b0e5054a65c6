package toolconfig

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogging configures the global slog default logger from a resolved
// ToolConfig's LogLevel/LogFormat. All log output goes to os.Stderr, to
// keep a pack's stdout stream (smap read) clean.
func SetupLogging(cfg *ToolConfig) {
	SetupLoggingWithWriter(cfg, os.Stderr)
}

// SetupLoggingWithWriter is SetupLogging with an explicit writer, for tests.
// Idempotent: safe to call more than once, each call replaces the previous
// global logger.
func SetupLoggingWithWriter(cfg *ToolConfig, w io.Writer) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a child logger derived from the global default logger
// with a "component" attribute, matching every other package's logging
// convention in this module.
func NewLogger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
