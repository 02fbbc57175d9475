package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	applog "github.com/runger/searchpick/internal/log"
	"github.com/runger/searchpick/internal/source"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the item database to remote pickers",
	Long: `Serve the local item database over a unix socket.

Pickers configured with source.kind=remote page through the items
served here. The server runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, paths, cfgPath, err := loadConfig()
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
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := dbPath(cfg, paths)
	store, err := source.NewSQLiteStore(db)
	if err != nil {
		applog.LogSQLiteError(logger, "open", err)
		return err
	}
	defer store.Close()

	count, err := store.Count(ctx)
	if err != nil {
		applog.LogSQLiteError(logger, "count", err)
		return err
	}

	sock := socketPath(cfg, paths)
	server, err := source.NewServer(&source.ServerConfig{
		Fetcher:    store,
		SocketPath: sock,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	if err := server.Listen(); err != nil {
		return err
	}

	applog.LogStartup(logger, applog.StartupInfo{
		Version:      Version,
		ConfigPath:   cfgPath,
		DatabasePath: db,
		SocketPath:   sock,
		Items:        count,
		PID:          os.Getpid(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Release the watcher below however Serve ends.
		defer stop()
		return server.Serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		applog.LogShutdown(logger, context.Cause(gctx).Error())
		return nil
	})
	return g.Wait()
}
