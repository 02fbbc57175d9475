package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runger/searchpick/internal/search"
)

// ErrUnknownKey is returned by Get and Set for keys outside ListKeys.
var ErrUnknownKey = errors.New("unknown config key")

// Source kinds.
const (
	SourceSQLite  = "sqlite"
	SourceRemote  = "remote"
	SourceCommand = "command"
	SourceFile    = "file"
)

const (
	minPageSize   = 1
	maxPageSize   = 500
	maxDebounceMs = 5000
)

// Config represents the searchpick configuration.
type Config struct {
	Picker PickerConfig `yaml:"picker"`
	Source SourceConfig `yaml:"source"`
	Log    LogConfig    `yaml:"log"`
}

// PickerConfig holds the list controller settings.
type PickerConfig struct {
	PageSize           int    `yaml:"page_size"`             // Items revealed per page
	SelectionMode      string `yaml:"selection_mode"`        // single or multiple
	SubmitVisible      bool   `yaml:"submit_visible"`        // Checkboxes + submit instead of direct pick
	ShowLoaderOnSelect bool   `yaml:"show_loader_on_select"` // Keep open with a loader after a direct pick
	FetchFromServer    bool   `yaml:"fetch_from_server"`     // Ask the source for more pages when memory is exhausted
	DebounceMs         int    `yaml:"debounce_ms"`           // Quiet period before filtering
	InitialItems       int    `yaml:"initial_items"`         // Rows loaded at bind time (sqlite/remote)
}

// SourceConfig selects where items come from.
type SourceConfig struct {
	Kind       string `yaml:"kind"`        // sqlite, remote, command, or file
	DBPath     string `yaml:"db_path"`     // SQLite item store (empty = default)
	SocketPath string `yaml:"socket_path"` // Item server socket (empty = default)
	Command    string `yaml:"command"`     // Command line whose stdout lines become items
	File       string `yaml:"file"`        // YAML, TOML, or JSON item file
	TimeoutMs  int    `yaml:"timeout_ms"`  // Per-fetch timeout for remote sources
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Log file path (empty = default)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Picker: PickerConfig{
			PageSize:      search.DefaultPageSize,
			SelectionMode: search.Single.String(),
			DebounceMs:    int(search.DefaultDebounce / time.Millisecond),
			InitialItems:  100,
		},
		Source: SourceConfig{
			Kind:      SourceSQLite,
			TimeoutMs: 2000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFromFile(DefaultPaths().ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks enumerations and clamps numeric ranges.
func (c *Config) Validate() error {
	if c.Picker.PageSize < minPageSize {
		c.Picker.PageSize = minPageSize
	}
	if c.Picker.PageSize > maxPageSize {
		c.Picker.PageSize = maxPageSize
	}
	if c.Picker.DebounceMs < 0 {
		c.Picker.DebounceMs = 0
	}
	if c.Picker.DebounceMs > maxDebounceMs {
		c.Picker.DebounceMs = maxDebounceMs
	}
	if c.Picker.InitialItems < 0 {
		return errors.New("picker.initial_items must be >= 0")
	}
	if _, err := search.ParseSelectionMode(c.Picker.SelectionMode); err != nil {
		return fmt.Errorf("picker.selection_mode must be single or multiple (got: %s)", c.Picker.SelectionMode)
	}
	if !isValidSourceKind(c.Source.Kind) {
		return fmt.Errorf("source.kind must be sqlite, remote, command, or file (got: %s)", c.Source.Kind)
	}
	if c.Source.TimeoutMs < 0 {
		return errors.New("source.timeout_ms must be >= 0")
	}
	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}
	return nil
}

// SearchConfig converts the picker section into the controller config.
func (c *Config) SearchConfig() search.Config {
	mode, _ := search.ParseSelectionMode(c.Picker.SelectionMode)
	return search.Config{
		PageSize:           c.Picker.PageSize,
		SelectionMode:      mode,
		SubmitVisible:      c.Picker.SubmitVisible,
		ShowLoaderOnSelect: c.Picker.ShowLoaderOnSelect,
		FetchesFromServer:  c.Picker.FetchFromServer,
		Debounce:           time.Duration(c.Picker.DebounceMs) * time.Millisecond,
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SEARCHPICK_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("SEARCHPICK_LOG_LEVEL"); v != "" && isValidLogLevel(v) {
		c.Log.Level = v
	}
	if v := os.Getenv("SEARCHPICK_SOCKET"); v != "" {
		c.Source.SocketPath = v
	}
	if v := os.Getenv("SEARCHPICK_DB"); v != "" {
		c.Source.DBPath = v
	}
}

// ListKeys returns every settable key.
func ListKeys() []string {
	return []string{
		"picker.page_size",
		"picker.selection_mode",
		"picker.submit_visible",
		"picker.show_loader_on_select",
		"picker.fetch_from_server",
		"picker.debounce_ms",
		"picker.initial_items",
		"source.kind",
		"source.db_path",
		"source.socket_path",
		"source.command",
		"source.file",
		"source.timeout_ms",
		"log.level",
		"log.file",
	}
}

// Get retrieves a configuration value by dot-separated key.
// For example: "picker.page_size" or "source.kind"
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "picker":
		return c.getPickerField(field)
	case "source":
		return c.getSourceField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "picker":
		return c.setPickerField(field, value)
	case "source":
		return c.setSourceField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

func splitKey(key string) (string, string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return parts[0], parts[1], nil
}

func (c *Config) getPickerField(field string) (string, error) {
	switch field {
	case "page_size":
		return strconv.Itoa(c.Picker.PageSize), nil
	case "selection_mode":
		return c.Picker.SelectionMode, nil
	case "submit_visible":
		return strconv.FormatBool(c.Picker.SubmitVisible), nil
	case "show_loader_on_select":
		return strconv.FormatBool(c.Picker.ShowLoaderOnSelect), nil
	case "fetch_from_server":
		return strconv.FormatBool(c.Picker.FetchFromServer), nil
	case "debounce_ms":
		return strconv.Itoa(c.Picker.DebounceMs), nil
	case "initial_items":
		return strconv.Itoa(c.Picker.InitialItems), nil
	default:
		return "", fmt.Errorf("%w: picker.%s", ErrUnknownKey, field)
	}
}

func (c *Config) setPickerField(field, value string) error {
	switch field {
	case "page_size":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for page_size: %w", err)
		}
		c.Picker.PageSize = min(max(v, minPageSize), maxPageSize)
	case "selection_mode":
		mode, err := search.ParseSelectionMode(value)
		if err != nil {
			return fmt.Errorf("invalid selection_mode: %w", err)
		}
		c.Picker.SelectionMode = mode.String()
	case "submit_visible":
		return setBool(&c.Picker.SubmitVisible, field, value)
	case "show_loader_on_select":
		return setBool(&c.Picker.ShowLoaderOnSelect, field, value)
	case "fetch_from_server":
		return setBool(&c.Picker.FetchFromServer, field, value)
	case "debounce_ms":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for debounce_ms: %w", err)
		}
		c.Picker.DebounceMs = min(max(v, 0), maxDebounceMs)
	case "initial_items":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid value for initial_items: %q", value)
		}
		c.Picker.InitialItems = v
	default:
		return fmt.Errorf("%w: picker.%s", ErrUnknownKey, field)
	}
	return nil
}

func (c *Config) getSourceField(field string) (string, error) {
	switch field {
	case "kind":
		return c.Source.Kind, nil
	case "db_path":
		return c.Source.DBPath, nil
	case "socket_path":
		return c.Source.SocketPath, nil
	case "command":
		return c.Source.Command, nil
	case "file":
		return c.Source.File, nil
	case "timeout_ms":
		return strconv.Itoa(c.Source.TimeoutMs), nil
	default:
		return "", fmt.Errorf("%w: source.%s", ErrUnknownKey, field)
	}
}

func (c *Config) setSourceField(field, value string) error {
	switch field {
	case "kind":
		if !isValidSourceKind(value) {
			return fmt.Errorf("invalid kind: %s (must be sqlite, remote, command, or file)", value)
		}
		c.Source.Kind = value
	case "db_path":
		c.Source.DBPath = value
	case "socket_path":
		c.Source.SocketPath = value
	case "command":
		c.Source.Command = value
	case "file":
		c.Source.File = value
	case "timeout_ms":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid value for timeout_ms: %q", value)
		}
		c.Source.TimeoutMs = v
	default:
		return fmt.Errorf("%w: source.%s", ErrUnknownKey, field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("%w: log.%s", ErrUnknownKey, field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("%w: log.%s", ErrUnknownKey, field)
	}
	return nil
}

func setBool(dst *bool, field, value string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", field, err)
	}
	*dst = v
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidSourceKind(kind string) bool {
	switch kind {
	case SourceSQLite, SourceRemote, SourceCommand, SourceFile:
		return true
	default:
		return false
	}
}
