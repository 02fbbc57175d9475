package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv points every searchpick path at a fresh temp directory.
type testEnv struct {
	dir    string
	config string
	db     string
}

func isolateEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(dir, "run"))
	t.Setenv("SEARCHPICK_DEBUG", "")
	t.Setenv("SEARCHPICK_LOG_LEVEL", "")
	t.Setenv("SEARCHPICK_SOCKET", "")
	t.Setenv("NO_COLOR", "1")

	env := testEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.yaml"),
		db:     filepath.Join(dir, "items.db"),
	}
	t.Setenv("SEARCHPICK_DB", env.db)
	return env
}

// resetGlobals restores flag-bound package state when the test ends.
// Cobra keeps flag values between Execute calls on the same command tree.
func resetGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		cfgFile = ""
		colorMode = "auto"
		pickQuery = ""
		pickSource = ""
		pickPageSize = 0
		pickMulti = false
		pickFormat = formatPlain
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
}

// runCommand executes the root command with args and returns stdout.
func runCommand(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	resetGlobals(t)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

var testSocketCounter atomic.Uint64

// testSocketPath stays short enough for the unix socket path limit.
func testSocketPath() string {
	id := testSocketCounter.Add(1)
	return fmt.Sprintf("/tmp/searchpick-cmd-%d-%d.sock", os.Getpid(), id)
}
