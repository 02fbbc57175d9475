//go:build windows

package cmd

import "errors"

var errNoUnixTerminal = errors.New("the picker needs a unix terminal")

func checkTTY() error { return errNoUnixTerminal }

func checkTERM() error { return nil }

func checkTermWidth() error { return errNoUnixTerminal }

func acquireLock(string) (int, error) { return -1, errNoUnixTerminal }

func releaseLock(int) {}
