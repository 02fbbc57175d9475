package cmd

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
)

// ANSI color codes for command output. They are cleared in init() when
// stdout cannot show color.
var (
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[0;33m"
	colorCyan   = "\033[0;36m"
	colorDim    = "\033[2m"
	colorBold   = "\033[1m"
	colorReset  = "\033[0m"
)

// colorMode is set by the --color flag: auto, always, or never.
var colorMode = "auto"

func init() {
	if shouldDisableColors() {
		disableColors()
	}
}

func shouldDisableColors() bool {
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	if os.Getenv("TERM") == "dumb" {
		return true
	}
	// Pipes and redirects report the Ascii profile.
	return termenv.NewOutput(os.Stdout).ColorProfile() == termenv.Ascii
}

// applyColorMode enables or disables colors according to colorMode.
func applyColorMode() error {
	switch colorMode {
	case "always":
		enableColors()
	case "never":
		disableColors()
	case "auto", "":
		if shouldDisableColors() {
			disableColors()
		} else {
			enableColors()
		}
	default:
		return fmt.Errorf("invalid --color %q (want auto, always, or never)", colorMode)
	}
	return nil
}

func enableColors() {
	colorRed = "\033[0;31m"
	colorGreen = "\033[0;32m"
	colorYellow = "\033[0;33m"
	colorCyan = "\033[0;36m"
	colorDim = "\033[2m"
	colorBold = "\033[1m"
	colorReset = "\033[0m"
}

func disableColors() {
	colorRed = ""
	colorGreen = ""
	colorYellow = ""
	colorCyan = ""
	colorDim = ""
	colorBold = ""
	colorReset = ""
}
