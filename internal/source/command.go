package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/google/shlex"

	"github.com/runger/searchpick/internal/search"
)

// ErrEmptyCommand is returned when a command line has no words.
var ErrEmptyCommand = errors.New("empty command")

// CommandSource produces items from the standard output of an external
// command. Each non-blank line is one item; a tab separates the title from
// an optional subtitle.
type CommandSource struct {
	argv []string
	dir  string
}

// NewCommandSource splits cmdline with shell quoting rules.
func NewCommandSource(cmdline string) (*CommandSource, error) {
	argv, err := shlex.Split(cmdline)
	if err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return &CommandSource{argv: argv}, nil
}

// WithDir sets the working directory the command runs in.
func (c *CommandSource) WithDir(dir string) *CommandSource {
	c.dir = dir
	return c
}

// Args returns the parsed argument vector.
func (c *CommandSource) Args() []string {
	return append([]string(nil), c.argv...)
}

// Load runs the command and parses its output.
func (c *CommandSource) Load(ctx context.Context) ([]*search.Item, error) {
	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Dir = c.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("run %s: %w: %s", c.argv[0], err, msg)
		}
		return nil, fmt.Errorf("run %s: %w", c.argv[0], err)
	}
	return ParseLines(bytes.NewReader(out))
}

// ParseLines reads one item per non-blank line. Items are numbered from 1
// in the order they appear.
func ParseLines(r io.Reader) ([]*search.Item, error) {
	var items []*search.Item
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		title, subtitle, _ := strings.Cut(scanner.Text(), "\t")
		title = CleanText(title)
		if title == "" {
			continue
		}
		it := search.NewItem(len(items)+1, title)
		it.Subtitle = CleanText(subtitle)
		items = append(items, it)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return items, nil
}
