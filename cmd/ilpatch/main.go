package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ilpatch/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ilpatch",
	Short: "Normalize and patch string literals in disassembled .NET IL",
	Long: `ilpatch merges concatenated ldstr fragments in ildasm output and
rewrites URLs or other patterns in string loads, literal fields and
embedded text resources.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareRun,
}

// traceCleanup is replaced by prepareRun once the tracer and profilers
// are up.
var traceCleanup = func(failed bool) {}

func init() {
	// Добавляем команды
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(replaceCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("config", "", "path to ilpatch.toml (default: nearest one above the working directory)")

	rootCmd.PersistentFlags().String("trace", "", "write trace events to file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace output format (auto|text|ndjson)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept in ring mode")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0*time.Second, "emit heartbeat events at this interval (0 disables)")

	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
}

// main sets the command version and executes the root command.
// If command execution returns an error, the process exits with status code 1.
func main() {
	rootCmd.Version = version.Version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	traceCleanup(err != nil)
	if err != nil {
		os.Exit(1)
	}
}

// prepareRun applies the persistent flags shared by every subcommand.
func prepareRun(cmd *cobra.Command, _ []string) error {
	if err := applyColorMode(cmd); err != nil {
		return err
	}
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		stopProfiling()
		return err
	}
	traceCleanup = func(failed bool) {
		cleanup(failed)
		stopProfiling()
	}
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
