// Package config provides configuration management for searchpick.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "searchpick"

// Paths locates the files searchpick reads and writes.
type Paths struct {
	ConfigDir  string // config.yaml
	DataDir    string // items.db, the imported item store
	CacheDir   string // searchpick.log and the picker lock
	RuntimeDir string // items.sock while `searchpick serve` runs
}

// DefaultPaths resolves the directories from the XDG variables, falling
// back to dot-directories under $HOME. Without XDG_RUNTIME_DIR the socket
// lives in ~/.searchpick/run. Windows uses %APPDATA% and %LOCALAPPDATA%.
func DefaultPaths() *Paths {
	home := homeDir()

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}

		return &Paths{
			ConfigDir:  filepath.Join(appData, appName),
			DataDir:    filepath.Join(localAppData, appName),
			CacheDir:   filepath.Join(localAppData, appName, "cache"),
			RuntimeDir: filepath.Join(localAppData, appName, "run"),
		}
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		cacheHome = filepath.Join(home, ".cache")
	}

	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = filepath.Join(home, "."+appName, "run")
	} else {
		runtimeDir = filepath.Join(runtimeDir, appName)
	}

	return &Paths{
		ConfigDir:  filepath.Join(configHome, appName),
		DataDir:    filepath.Join(dataHome, appName),
		CacheDir:   filepath.Join(cacheHome, appName),
		RuntimeDir: runtimeDir,
	}
}

// ConfigFile returns the path to the main configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// DatabaseFile returns the path to the SQLite item store.
func (p *Paths) DatabaseFile() string {
	return filepath.Join(p.DataDir, "items.db")
}

// SocketFile returns the path to the item server's Unix domain socket.
func (p *Paths) SocketFile() string {
	return filepath.Join(p.RuntimeDir, "items.sock")
}

// LockFile is flocked by `searchpick pick` so only one picker draws at a time.
func (p *Paths) LockFile() string {
	return filepath.Join(p.CacheDir, "picker.lock")
}

// LogFile is where commands log when log.file is unset and the terminal
// is taken by the picker.
func (p *Paths) LogFile() string {
	return filepath.Join(p.CacheDir, "searchpick.log")
}

// EnsureDirectories creates the four directories if missing.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.CacheDir, p.RuntimeDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return os.Getenv("USERPROFILE")
		}
		return os.Getenv("HOME")
	}
	return home
}
