package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ilpatch/internal/patch"
)

var replaceCmd = &cobra.Command{
	Use:   "replace <in> <out>",
	Short: "Replace target URLs in a text file",
	Long: `Rewrites every URL listed in ILPATCH_TARGET_URL (or [rewrite].target_urls)
to point at ILPATCH_REPLACEMENT_URL, keeping the path. The output is only
written when something changed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rule, err := cfg.Rewrite.URLRule()
		if err != nil {
			return err
		}
		timer := newTimer(cmd)
		defer printTimings(cmd, timer)

		var wrote bool
		err = timer.Measure("replace", func() error {
			var rerr error
			wrote, rerr = patch.RewriteFile(args[0], args[1], rule)
			return rerr
		})
		if err != nil {
			return fmt.Errorf("replace %s: %w", args[0], err)
		}
		if quiet(cmd) {
			return nil
		}
		if wrote {
			fmt.Fprintf(cmd.OutOrStdout(), "Written file: %s\n", args[1])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Unchanged: %s\n", args[0])
		}
		return nil
	},
}
