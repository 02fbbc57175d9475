package cmd

import (
	"fmt"
	"time"

	"github.com/runger/searchpick/internal/config"
	"github.com/runger/searchpick/internal/search"
	"github.com/runger/searchpick/internal/source"
)

// itemSources is what the picker binds to for one source kind.
type itemSources struct {
	loader  search.Loader
	fetcher search.Fetcher // nil when the source cannot page
	close   func() error
}

func (s *itemSources) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// openSources builds the loader and fetcher for cfg.Source.Kind.
func openSources(cfg *config.Config, paths *config.Paths) (*itemSources, error) {
	initial := cfg.Picker.InitialItems

	switch cfg.Source.Kind {
	case config.SourceSQLite:
		store, err := source.NewSQLiteStore(dbPath(cfg, paths))
		if err != nil {
			return nil, fmt.Errorf("sqlite source: %w", err)
		}
		return &itemSources{loader: store.Loader(initial), fetcher: store, close: store.Close}, nil

	case config.SourceRemote:
		timeout := time.Duration(cfg.Source.TimeoutMs) * time.Millisecond
		remote := source.NewRemoteSource(socketPath(cfg, paths), timeout)
		return &itemSources{loader: remote.Loader(initial), fetcher: remote}, nil

	case config.SourceCommand:
		cs, err := source.NewCommandSource(cfg.Source.Command)
		if err != nil {
			return nil, fmt.Errorf("command source: %w", err)
		}
		return &itemSources{loader: cs}, nil

	case config.SourceFile:
		if cfg.Source.File == "" {
			return nil, fmt.Errorf("file source: source.file is not set")
		}
		return &itemSources{loader: source.FileLoader(cfg.Source.File)}, nil

	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
