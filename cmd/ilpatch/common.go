package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ilpatch/internal/config"
	"ilpatch/internal/diag"
	"ilpatch/internal/diagfmt"
	"ilpatch/internal/observ"
	"ilpatch/internal/rewrite"
)

func applyColorMode(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(mode) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto", "":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

func useColor() bool { return !color.NoColor }

func quiet(cmd *cobra.Command) bool {
	q, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && q
}

// loadConfig resolves the configuration for the current directory,
// honouring --config and the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Resolve(explicit, wd, os.Getenv)
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ruleCode picks the diagnostic code for a failed rule construction.
func ruleCode(err error) diag.Code {
	var pe *rewrite.PatternError
	switch {
	case errors.As(err, &pe):
		if strings.HasPrefix(pe.Field, "replace") {
			return diag.RwBadReplacePattern
		}
		return diag.RwBadMatchPattern
	case errors.Is(err, config.ErrMissing):
		return diag.CfgMissingField
	}
	return diag.CfgInvalid
}

func newBag(cmd *cobra.Command) *diag.Bag {
	limit, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil || limit <= 0 {
		limit = 100
	}
	return diag.NewBag(limit)
}

// printDiagnostics writes collected diagnostics to stderr. Warnings are
// dropped under --quiet, errors never are.
func printDiagnostics(cmd *cobra.Command, bag *diag.Bag) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	if quiet(cmd) && !bag.HasErrors() {
		return
	}
	bag.Sort()
	diagfmt.Pretty(cmd.ErrOrStderr(), bag, diagfmt.PrettyOpts{
		Color:     useColor(),
		PathMode:  diagfmt.PathModeAuto,
		ShowNotes: true,
	})
}

// newTimer returns a timer when --timings is set, nil otherwise. A nil
// timer records nothing.
func newTimer(cmd *cobra.Command) *observ.Timer {
	on, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil || !on {
		return nil
	}
	return observ.NewTimer()
}

func printTimings(cmd *cobra.Command, t *observ.Timer) {
	if t == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), t.Summary())
}
