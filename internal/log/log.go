// Package log builds the JSON-lines slog loggers used by searchpick.
//
// Lines look like:
//
//	{"ts":"2026-01-15T10:30:00Z","level":"INFO","msg":"server started","socket_path":"/run/user/1000/searchpick/items.sock"}
//
// SEARCHPICK_DEBUG=1 forces debug level regardless of configuration.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo)
	Level slog.Level

	// Debug enables debug level logging (overrides Level)
	Debug bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelInfo,
	}
}

// New creates a JSON-lines structured logger.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := cfg.Level
	if cfg.Debug || os.Getenv("SEARCHPICK_DEBUG") == "1" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Key = "ts"
			}
			return a
		},
	}
	return slog.New(slog.NewJSONHandler(output, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a config level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// OpenFile opens path for appending, creating its directory. The caller
// closes the returned file.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// StartupInfo holds what the item server logs when it starts.
type StartupInfo struct {
	Version      string
	ConfigPath   string
	DatabasePath string
	SocketPath   string
	Items        int
	PID          int
}

// LogStartup logs server startup information.
func LogStartup(logger *slog.Logger, info StartupInfo) {
	logger.Info("server started",
		"version", info.Version,
		"config_path", info.ConfigPath,
		"database_path", info.DatabasePath,
		"socket_path", info.SocketPath,
		"items", info.Items,
		"pid", info.PID,
	)
}

// LogShutdown logs server shutdown.
func LogShutdown(logger *slog.Logger, reason string) {
	logger.Info("server shutting down", "reason", reason)
}

// LogSQLiteError logs SQLite errors.
func LogSQLiteError(logger *slog.Logger, operation string, err error) {
	logger.Error("sqlite error", "operation", operation, "error", err)
}
