// Package main is the entry point for the searchpick CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/runger/searchpick/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "searchpick: %v\n", err)
		os.Exit(2)
	}
}
