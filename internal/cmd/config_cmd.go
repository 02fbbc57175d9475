package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/searchpick/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set searchpick configuration values.

Without arguments, lists all configuration keys.
With one argument, shows the value of that key.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/searchpick/config.yaml (XDG compliant).

Keys are in the format: section.key
Sections: picker, source, log

Examples:
  searchpick config                          # List all keys
  searchpick config picker.page_size         # Get the page size
  searchpick config picker.page_size 50      # Reveal 50 rows per page
  searchpick config source.kind remote       # Page through a running server`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, _, path, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch len(args) {
	case 0:
		return listConfig(out, cfg, path)
	case 1:
		return getConfig(out, cfg, args[0])
	case 2:
		return setConfig(out, cfg, path, args[0], args[1])
	}
	return nil
}

func listConfig(w io.Writer, cfg *config.Config, path string) error {
	fmt.Fprintf(w, "%sConfiguration Keys%s\n", colorBold, colorReset)
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintln(w)

	var failedKeys []string
	for _, key := range config.ListKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			failedKeys = append(failedKeys, key)
			continue
		}

		displayValue := value
		if displayValue == "" {
			displayValue = colorDim + "(not set)" + colorReset
		}
		fmt.Fprintf(w, "  %s%s%s = %s\n", colorCyan, key, colorReset, displayValue)
	}

	if len(failedKeys) > 0 {
		fmt.Fprintf(w, "\n%sWarning:%s Failed to retrieve keys: %s\n", colorYellow, colorReset, strings.Join(failedKeys, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Config file: %s\n", path)
	return nil
}

func getConfig(w io.Writer, cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}

	if value == "" {
		fmt.Fprintf(w, "%s(not set)%s\n", colorDim, colorReset)
	} else {
		fmt.Fprintln(w, value)
	}
	return nil
}

func setConfig(w io.Writer, cfg *config.Config, path, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.SaveToFile(path); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s%s%s = %s\n", colorCyan, key, colorReset, value)
	fmt.Fprintf(w, "Saved to: %s\n", path)
	return nil
}
