package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ilpatch/internal/cache"
	"ilpatch/internal/config"
	"ilpatch/internal/diag"
	"ilpatch/internal/diagfmt"
	"ilpatch/internal/normalize"
	"ilpatch/internal/patch"
)

var patchCmd = &cobra.Command{
	Use:   "patch <il-file>...",
	Short: "Rewrite strings in disassembled IL and its text resources",
	Long: `Normalizes each .il file, then applies the rewrite rule to ldstr operands,
static literal string fields and the text resources (.js by default) found
next to it. Patched IL is written to <name>.patched.il and resources are
replaced in place, but only when at least one substitution was made.

The rule comes from --match-pattern/--replace-regex/--replace-content, the
[rewrite] section of ilpatch.toml, or ILPATCH_TARGET_URL and
ILPATCH_REPLACEMENT_URL.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPatch,
}

func init() {
	patchCmd.Flags().String("match-pattern", "", "regex selecting the strings to change")
	patchCmd.Flags().String("replace-regex", "", "regex applied inside each match")
	patchCmd.Flags().String("replace-content", "", "replacement for --replace-regex ($1 expands groups)")
	patchCmd.Flags().String("resolve-dir", "", "directory holding the dumped resources (default: next to each .il file)")
	patchCmd.Flags().StringSlice("resource-ext", nil, "resource extensions to rewrite (default .js)")
	patchCmd.Flags().String("output-suffix", "", "suffix inserted before .il in output names (default .patched)")
	patchCmd.Flags().Int("jobs", 0, "max parallel files (0=auto)")
	patchCmd.Flags().Bool("strict", false, "fail on truncated IL instead of reconstructing it")
	patchCmd.Flags().Bool("dry-run", false, "report substitutions without writing anything")
	patchCmd.Flags().Bool("no-cache", false, "ignore and do not update the run cache")
	patchCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	patchCmd.Flags().String("stats", "pretty", "summary format (pretty|json|none)")
}

func runPatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyPatchFlags(cmd, &cfg)

	bag := newBag(cmd)
	defer printDiagnostics(cmd, bag)
	reporter := diag.BagReporter{Bag: bag}

	rule, err := cfg.Rewrite.Rule()
	if err != nil {
		diag.ReportError(reporter, ruleCode(err), diag.Span{File: cfg.Path}, err.Error()).Emit()
		return err
	}

	statsFlag, _ := cmd.Flags().GetString("stats")
	statsFormat, err := diagfmt.ParseStatsFormat(statsFlag)
	if err != nil {
		return err
	}
	uiFlag, _ := cmd.Flags().GetString("ui")
	mode, err := parseProgressMode(uiFlag)
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	for _, p := range args {
		if _, err := os.Stat(p); err != nil {
			diag.ReportError(reporter, diag.IOLoadFileError, diag.Span{File: p}, "input not found").Emit()
			return fmt.Errorf("input %s: %w", p, err)
		}
	}

	opts := patch.Options{
		Rule: rule,
		Normalize: normalize.Options{
			Keyword:  cfg.Normalize.Keyword,
			Strict:   cfg.Normalize.Strict,
			Reporter: reporter,
		},
		ChunkSize:    cfg.Normalize.ChunkSize,
		ResolveDir:   cfg.Patch.ResolveDir,
		ResourceExt:  cfg.Patch.ResourceExt,
		OutputSuffix: cfg.Patch.OutputSuffix,
		Jobs:         cfg.Patch.Jobs,
		DryRun:       dryRun,
		Reporter:     reporter,
	}
	if cfg.Cache.Enabled && !noCache && !dryRun {
		store, err := openCache(cfg.Cache)
		if err != nil {
			diag.ReportWarning(reporter, diag.IOWriteFileError, diag.Span{File: cfg.Cache.Dir}, "run cache disabled: "+err.Error()).Emit()
		} else {
			opts.Cache = store
		}
	}

	timer := newTimer(cmd)
	defer printTimings(cmd, timer)

	var res *patch.Result
	err = timer.Measure("patch", func() error {
		var perr error
		if out := cmd.OutOrStdout(); mode.showProgress(out, quiet(cmd)) {
			res, perr = runPatchWithUI(cmd.Context(), out, "patching", args, opts)
		} else {
			res, perr = patch.Run(cmd.Context(), args, opts)
		}
		return perr
	})
	if err != nil {
		if errors.Is(err, normalize.ErrIncomplete) {
			return fmt.Errorf("patch aborted: %w", err)
		}
		return err
	}

	if statsFormat == diagfmt.StatsNone || (quiet(cmd) && statsFormat == diagfmt.StatsPretty) {
		return nil
	}
	return diagfmt.PatchSummary(cmd.OutOrStdout(), res, statsFormat, useColor())
}

// applyPatchFlags lets explicit flags win over the config file.
func applyPatchFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("match-pattern") {
		cfg.Rewrite.MatchPattern, _ = f.GetString("match-pattern")
	}
	if f.Changed("replace-regex") {
		cfg.Rewrite.ReplacePattern, _ = f.GetString("replace-regex")
	}
	if f.Changed("replace-content") {
		cfg.Rewrite.Replacement, _ = f.GetString("replace-content")
	}
	if f.Changed("resolve-dir") {
		cfg.Patch.ResolveDir, _ = f.GetString("resolve-dir")
	}
	if f.Changed("resource-ext") {
		cfg.Patch.ResourceExt, _ = f.GetStringSlice("resource-ext")
	}
	if f.Changed("output-suffix") {
		cfg.Patch.OutputSuffix, _ = f.GetString("output-suffix")
	}
	if f.Changed("jobs") {
		cfg.Patch.Jobs, _ = f.GetInt("jobs")
	}
	if f.Changed("strict") {
		cfg.Normalize.Strict, _ = f.GetBool("strict")
	}
}

func openCache(cc config.CacheConfig) (*cache.Store, error) {
	dir := cc.Dir
	if dir == "" {
		base, err := cache.DefaultDir("ilpatch")
		if err != nil {
			return nil, err
		}
		dir = base
	}
	return cache.Open(dir)
}
