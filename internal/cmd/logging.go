package cmd

import (
	"io"
	"log/slog"

	"github.com/runger/searchpick/internal/config"
	applog "github.com/runger/searchpick/internal/log"
)

// newLogger builds the command logger. log.file wins; otherwise logs go to
// fallback, or to the cache log file when fallback is nil (the picker owns
// the terminal). The returned func closes any opened file.
func newLogger(cfg *config.Config, paths *config.Paths, fallback io.Writer) (*slog.Logger, func(), error) {
	level, err := applog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	path := cfg.Log.File
	if path == "" && fallback != nil {
		return applog.New(&applog.Config{Output: fallback, Level: level}), func() {}, nil
	}
	if path == "" {
		path = paths.LogFile()
	}

	f, err := applog.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	logger := applog.New(&applog.Config{Output: f, Level: level})
	return logger, func() { f.Close() }, nil
}
