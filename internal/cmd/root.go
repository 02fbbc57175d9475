// Package cmd implements the searchpick command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runger/searchpick/internal/config"
)

// cfgFile overrides the config file location.
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "searchpick",
	Short: "incremental search picker over paged item sources",
	Long: `searchpick - incremental search picker over paged item sources
  - type to filter, arrows to move, more rows load as you scroll
  - items come from a local database, an item server, a command or a file`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return applyColorMode()
	},
}

// ExitError ends the process with Code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// errCancelled is returned by pick when the user dismisses the picker.
var errCancelled = &ExitError{Code: 1}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/searchpick/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "color output: auto, always, or never")

	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file named by --config, or the default one.
func loadConfig() (*config.Config, *config.Paths, string, error) {
	paths := config.DefaultPaths()
	path := cfgFile
	if path == "" {
		path = paths.ConfigFile()
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, paths, path, nil
}

// dbPath returns the item database path from config or the default.
func dbPath(cfg *config.Config, paths *config.Paths) string {
	if cfg.Source.DBPath != "" {
		return cfg.Source.DBPath
	}
	return paths.DatabaseFile()
}

// socketPath returns the item server socket path from config or the default.
func socketPath(cfg *config.Config, paths *config.Paths) string {
	if cfg.Source.SocketPath != "" {
		return cfg.Source.SocketPath
	}
	return paths.SocketFile()
}
