package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/searchpick/internal/config"
	"github.com/runger/searchpick/internal/search"
	"github.com/runger/searchpick/internal/tui"
)

// Output formats for the selected items.
const (
	formatPlain = "plain"
	formatJSON  = "json"
)

var (
	pickQuery    string
	pickSource   string
	pickPageSize int
	pickMulti    bool
	pickFormat   string
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Open the picker and print the selection",
	Long: `Open an incremental search picker over the configured item source.

The picker draws on /dev/tty, so stdout carries only the selection and
searchpick can be used inside $(...).

Keys:
  type          filter the list
  up/down       move (ctrl+p/ctrl+n also work)
  pgup/pgdn     move a page
  enter         select (toggle with --multi)
  ctrl+s        submit the checked items (--multi)
  esc, ctrl+c   cancel

Exit status is 0 when something was selected and 1 when cancelled.`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

func init() {
	pickCmd.Flags().StringVarP(&pickQuery, "query", "q", "", "initial query")
	pickCmd.Flags().StringVar(&pickSource, "source", "", "item source kind (sqlite, remote, command, file)")
	pickCmd.Flags().IntVar(&pickPageSize, "page-size", 0, "rows revealed per page (default from config)")
	pickCmd.Flags().BoolVarP(&pickMulti, "multi", "m", false, "check several items and submit them together")
	pickCmd.Flags().StringVar(&pickFormat, "format", formatPlain, "output format (plain, json)")
}

func runPick(cmd *cobra.Command, args []string) error {
	if pickFormat != formatPlain && pickFormat != formatJSON {
		return fmt.Errorf("invalid --format %q (want plain or json)", pickFormat)
	}
	if err := checkTTY(); err != nil {
		return err
	}
	if err := checkTERM(); err != nil {
		return err
	}
	if err := checkTermWidth(); err != nil {
		return err
	}

	cfg, paths, _, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyPickFlags(cfg); err != nil {
		return err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	lockFD, err := acquireLock(paths.LockFile())
	if err != nil {
		return err
	}
	defer releaseLock(lockFD)

	logger, closeLog, err := newLogger(cfg, paths, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	src, err := openSources(cfg, paths)
	if err != nil {
		return err
	}
	defer src.Close()

	searchCfg := cfg.SearchConfig()
	if src.fetcher == nil {
		searchCfg.FetchesFromServer = false
	}

	model, err := tui.New(tui.Options{
		Search:  searchCfg,
		Fetcher: src.fetcher,
		Loader:  src.loader,
		Logger:  logger,
		Query:   pickQuery,
	})
	if err != nil {
		return err
	}

	// stdout carries the selection, so the picker draws on the terminal.
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("cannot open /dev/tty: %w", err)
	}
	defer tty.Close()

	// stdout may be a pipe; take the color profile from the terminal.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
		tea.WithContext(cmd.Context()),
	)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	m, ok := finalModel.(tui.Model)
	if !ok {
		return errors.New("unexpected model type")
	}

	if m.IsCancelled() {
		logger.Debug("picker cancelled")
		return errCancelled
	}
	items := m.Result()
	if len(items) == 0 {
		return errCancelled
	}
	logger.Debug("picker finished", "selected", len(items))
	return writeResult(cmd.OutOrStdout(), items, pickFormat)
}

// applyPickFlags layers the pick flags over the loaded config.
func applyPickFlags(cfg *config.Config) error {
	if pickSource != "" {
		cfg.Source.Kind = pickSource
	}
	if pickPageSize > 0 {
		cfg.Picker.PageSize = pickPageSize
	}
	if pickMulti {
		cfg.Picker.SelectionMode = search.Multiple.String()
		cfg.Picker.SubmitVisible = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// resultItem is the JSON shape of a selected item.
type resultItem struct {
	ID       int    `json:"id"`
	SubID    int    `json:"sub_id,omitempty"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

// writeResult prints the selected items, one title per line or as a JSON
// array.
func writeResult(w io.Writer, items []*search.Item, format string) error {
	switch format {
	case formatJSON:
		out := make([]resultItem, 0, len(items))
		for _, it := range items {
			out = append(out, resultItem{
				ID:       it.ID,
				SubID:    it.SubID,
				Title:    it.Title,
				Subtitle: it.Subtitle,
				Payload:  it.Payload,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		for _, it := range items {
			if _, err := fmt.Fprintln(w, it.Title); err != nil {
				return err
			}
		}
		return nil
	}
}
