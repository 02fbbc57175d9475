package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/runger/searchpick/internal/search"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Picker.PageSize != 25 {
		t.Errorf("Expected page_size=25, got %d", cfg.Picker.PageSize)
	}
	if cfg.Picker.DebounceMs != 250 {
		t.Errorf("Expected debounce_ms=250, got %d", cfg.Picker.DebounceMs)
	}
	if cfg.Picker.SelectionMode != "single" {
		t.Errorf("Expected selection_mode=single, got %s", cfg.Picker.SelectionMode)
	}
	if cfg.Picker.SubmitVisible || cfg.Picker.FetchFromServer {
		t.Error("Expected submit_visible and fetch_from_server off by default")
	}
	if cfg.Source.Kind != SourceSQLite {
		t.Errorf("Expected source.kind=sqlite, got %s", cfg.Source.Kind)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected log.level=info, got %s", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigGet(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		key      string
		expected string
	}{
		{"picker.page_size", "25"},
		{"picker.selection_mode", "single"},
		{"picker.submit_visible", "false"},
		{"picker.show_loader_on_select", "false"},
		{"picker.fetch_from_server", "false"},
		{"picker.debounce_ms", "250"},
		{"picker.initial_items", "100"},
		{"source.kind", "sqlite"},
		{"source.db_path", ""},
		{"source.timeout_ms", "2000"},
		{"log.level", "info"},
		{"log.file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) error: %v", tt.key, err)
			}
			if got != tt.expected {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestConfigGet_AllListedKeys(t *testing.T) {
	cfg := DefaultConfig()
	for _, key := range ListKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error: %v", key, err)
		}
	}
}

func TestConfigGet_UnknownKey(t *testing.T) {
	cfg := DefaultConfig()

	for _, key := range []string{"picker.nope", "source.nope", "log.nope", "daemon.log_level"} {
		if _, err := cfg.Get(key); !errors.Is(err, ErrUnknownKey) {
			t.Errorf("Get(%q) expected ErrUnknownKey, got %v", key, err)
		}
	}
	if _, err := cfg.Get("no-dot"); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestConfigSet(t *testing.T) {
	tests := []struct {
		key      string
		value    string
		expected string
	}{
		{"picker.page_size", "40", "40"},
		{"picker.page_size", "0", "1"},
		{"picker.page_size", "9999", "500"},
		{"picker.selection_mode", "Multiple", "multiple"},
		{"picker.submit_visible", "true", "true"},
		{"picker.show_loader_on_select", "1", "true"},
		{"picker.fetch_from_server", "true", "true"},
		{"picker.debounce_ms", "-5", "0"},
		{"picker.debounce_ms", "100000", "5000"},
		{"picker.initial_items", "10", "10"},
		{"source.kind", "remote", "remote"},
		{"source.command", "git log --oneline", "git log --oneline"},
		{"source.timeout_ms", "50", "50"},
		{"log.level", "debug", "debug"},
		{"log.file", "/tmp/x.log", "/tmp/x.log"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q, %q) error: %v", tt.key, tt.value, err)
			}
			got, _ := cfg.Get(tt.key)
			if got != tt.expected {
				t.Errorf("after Set(%q, %q), Get = %q, want %q", tt.key, tt.value, got, tt.expected)
			}
		})
	}
}

func TestConfigSet_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"picker.page_size", "many"},
		{"picker.selection_mode", "some"},
		{"picker.submit_visible", "maybe"},
		{"picker.initial_items", "-1"},
		{"source.kind", "ftp"},
		{"source.timeout_ms", "soon"},
		{"log.level", "verbose"},
		{"log.color", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.Set(tt.key, tt.value); err == nil {
				t.Errorf("Set(%q, %q) expected error", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Picker.PageSize != 25 {
		t.Errorf("expected defaults, got page_size=%d", cfg.Picker.PageSize)
	}
}

func TestLoadFromFile_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `picker:
  page_size: 10
  selection_mode: multiple
  submit_visible: true
source:
  kind: command
  command: ls -1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Picker.PageSize != 10 {
		t.Errorf("page_size = %d, want 10", cfg.Picker.PageSize)
	}
	if cfg.Picker.DebounceMs != 250 {
		t.Errorf("debounce_ms default lost: %d", cfg.Picker.DebounceMs)
	}
	if cfg.Source.Command != "ls -1" {
		t.Errorf("command = %q", cfg.Source.Command)
	}

	sc := cfg.SearchConfig()
	if sc.SelectionMode != search.Multiple || !sc.SubmitVisible {
		t.Errorf("SearchConfig = %+v", sc)
	}
	if sc.Debounce != 250*time.Millisecond {
		t.Errorf("Debounce = %v", sc.Debounce)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("picker: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(bad); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("expected parse error, got %v", err)
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("source:\n  kind: carrier-pigeon\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(invalid); err == nil || !strings.Contains(err.Error(), "source.kind") {
		t.Errorf("expected source.kind error, got %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	if err := cfg.Set("picker.page_size", "77"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.Picker.PageSize != 77 {
		t.Errorf("page_size = %d, want 77", loaded.Picker.PageSize)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SEARCHPICK_LOG_LEVEL", "warn")
	t.Setenv("SEARCHPICK_SOCKET", "/tmp/alt.sock")
	t.Setenv("SEARCHPICK_DB", "/tmp/alt.db")
	t.Setenv("SEARCHPICK_DEBUG", "")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %s, want warn", cfg.Log.Level)
	}
	if cfg.Source.SocketPath != "/tmp/alt.sock" {
		t.Errorf("socket_path = %s", cfg.Source.SocketPath)
	}
	if cfg.Source.DBPath != "/tmp/alt.db" {
		t.Errorf("db_path = %s", cfg.Source.DBPath)
	}
}

func TestApplyEnvOverrides_Debug(t *testing.T) {
	t.Setenv("SEARCHPICK_LOG_LEVEL", "")
	t.Setenv("SEARCHPICK_DEBUG", "1")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %s, want debug", cfg.Log.Level)
	}
}
