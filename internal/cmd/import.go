package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	applog "github.com/runger/searchpick/internal/log"
	"github.com/runger/searchpick/internal/search"
	"github.com/runger/searchpick/internal/source"
)

// maxParallelParse bounds how many item files are parsed at once.
const maxParallelParse = 4

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Load item files into the item database",
	Long: `Load YAML, TOML, or JSON item files into the local item database.

Each file holds a list of items:

  items:
    - id: 1
      title: Deploy staging
      subtitle: make deploy ENV=staging

All files are imported as one batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, paths, _, err := loadConfig()
	if err != nil {
		return err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	logger, closeLog, err := newLogger(cfg, paths, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	items, err := loadItemFiles(ctx, args)
	if err != nil {
		return err
	}

	store, err := source.NewSQLiteStore(dbPath(cfg, paths))
	if err != nil {
		return err
	}
	defer store.Close()

	batch, err := store.Import(ctx, items)
	if err != nil {
		if source.IsBusy(err) {
			applog.LogSQLiteError(logger, "import", err)
			return fmt.Errorf("item database is busy, try again: %w", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%sImported%s %d items from %d file(s)\n", colorGreen, colorReset, len(items), len(args))
	fmt.Fprintf(out, "  batch: %s\n", batch)
	return nil
}

// loadItemFiles parses paths concurrently and returns their items in
// argument order.
func loadItemFiles(ctx context.Context, paths []string) ([]*search.Item, error) {
	results := make([][]*search.Item, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelParse)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items, err := source.LoadFile(path)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*search.Item
	for _, items := range results {
		all = append(all, items...)
	}
	return all, nil
}
