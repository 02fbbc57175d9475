//go:build !windows

package cmd

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// minTermWidth is the narrowest terminal the picker will draw in.
const minTermWidth = 20

// checkTTY verifies that /dev/tty is openable.
func checkTTY() error {
	f, err := os.Open("/dev/tty")
	if err != nil {
		return fmt.Errorf("no TTY available: %w", err)
	}
	f.Close()
	return nil
}

// checkTERM verifies that the TERM environment variable is not "dumb".
func checkTERM() error {
	if os.Getenv("TERM") == "dumb" {
		return fmt.Errorf("TERM=dumb is not supported")
	}
	return nil
}

// checkTermWidth verifies that the terminal is wide enough to draw in.
func checkTermWidth() error {
	f, err := os.Open("/dev/tty")
	if err != nil {
		return fmt.Errorf("cannot check terminal width: %w", err)
	}
	defer f.Close()

	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return fmt.Errorf("cannot get terminal size: %w", err)
	}
	return checkWidth(int(ws.Col))
}

func checkWidth(cols int) error {
	if cols < minTermWidth {
		return fmt.Errorf("terminal too narrow (%d columns, need at least %d)", cols, minTermWidth)
	}
	return nil
}

// acquireLock takes an exclusive advisory lock on path so only one picker
// draws on the terminal at a time. The returned descriptor stays open for
// the life of the process.
func acquireLock(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return -1, fmt.Errorf("cannot open lock file: %w", err)
	}

	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("another searchpick picker is running")
	}
	return fd, nil
}

// releaseLock releases the advisory file lock.
func releaseLock(fd int) {
	if fd >= 0 {
		_ = unix.Flock(fd, unix.LOCK_UN)
		_ = unix.Close(fd)
	}
}
