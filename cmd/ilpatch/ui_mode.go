package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// progressMode is the value of the --ui flag.
type progressMode string

const (
	progressAuto progressMode = "auto"
	progressOn   progressMode = "on"
	progressOff  progressMode = "off"
)

func parseProgressMode(value string) (progressMode, error) {
	switch m := progressMode(strings.ToLower(strings.TrimSpace(value))); m {
	case "":
		return progressAuto, nil
	case progressAuto, progressOn, progressOff:
		return m, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// showProgress reports whether the patch run renders the progress view on
// out. "on" forces it; "auto" needs an interactive terminal and no --quiet.
func (m progressMode) showProgress(out io.Writer, quiet bool) bool {
	switch m {
	case progressOn:
		return true
	case progressOff:
		return false
	}
	if quiet {
		return false
	}
	f, ok := out.(*os.File)
	return ok && isTerminal(f)
}
