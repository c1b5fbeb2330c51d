package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode selects the bubbletea progress view for bundle runs.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch mode := uiMode(strings.TrimSpace(strings.ToLower(value))); mode {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// progressEnabled decides whether bundle draws the progress view. In auto
// mode it needs a terminal on stdout, and JSON diagnostics keep stdout for
// themselves.
func progressEnabled(mode uiMode, format diagFormat, targets int) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	if format == diagFormatJSON || targets == 0 {
		return false
	}
	return isTerminal(os.Stdout)
}
