package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ilpatch/internal/diag"
	"ilpatch/internal/diagfmt"
	"ilpatch/internal/normalize"
	"ilpatch/internal/textio"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <in> <out>",
	Short: "Merge concatenated ldstr fragments in an IL file",
	Long: `Streams an ildasm .il file and rewrites every string load built from
"..." + "..." fragments into a single literal. Comments found between the
fragments are moved behind the merged literal. Use - for stdin or stdout.`,
	Args: cobra.ExactArgs(2),
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().String("keyword", normalize.DefaultKeyword, "instruction mnemonic whose operand is merged")
	normalizeCmd.Flags().Bool("strict", false, "fail when the input ends inside a literal, comment or concatenation")
	normalizeCmd.Flags().Int("chunk-size", normalize.DefaultChunkSize, "read size in bytes")
	normalizeCmd.Flags().String("stats", "", "print statistics to stderr (pretty|json)")
}

func runNormalize(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := cfg.Normalize
	if cmd.Flags().Changed("keyword") {
		opts.Keyword, _ = cmd.Flags().GetString("keyword")
	}
	if cmd.Flags().Changed("strict") {
		opts.Strict, _ = cmd.Flags().GetBool("strict")
	}
	if cmd.Flags().Changed("chunk-size") {
		opts.ChunkSize, _ = cmd.Flags().GetInt("chunk-size")
	}
	if opts.Keyword == "" {
		return fmt.Errorf("--keyword must not be empty")
	}
	statsFlag, _ := cmd.Flags().GetString("stats")
	statsFormat, err := diagfmt.ParseStatsFormat(statsFlag)
	if err != nil {
		return err
	}

	inPath, outPath := args[0], args[1]
	bag := newBag(cmd)
	defer printDiagnostics(cmd, bag)
	timer := newTimer(cmd)
	defer printTimings(cmd, timer)

	var in io.Reader = cmd.InOrStdin()
	if inPath != "-" {
		f, err := os.Open(inPath)
		if err != nil {
			diag.ReportError(diag.BagReporter{Bag: bag}, diag.IOLoadFileError, diag.Span{File: inPath}, err.Error()).Emit()
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}
	text, enc, err := textio.NewReader(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	out, commit, abort, err := openOutput(cmd, outPath)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			abort()
		}
	}()
	encoded := textio.NewWriter(out, enc)

	var st normalize.Stats
	err = timer.Measure("normalize", func() error {
		var serr error
		st, serr = normalize.Stream(cmd.Context(), text, encoded, normalize.StreamOptions{
			Options: normalize.Options{
				Keyword:  opts.Keyword,
				Strict:   opts.Strict,
				File:     inPath,
				Reporter: diag.BagReporter{Bag: bag},
			},
			ChunkSize: opts.ChunkSize,
		})
		return serr
	})
	if err != nil {
		return err
	}
	if err = encoded.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err = commit(); err != nil {
		return err
	}
	return diagfmt.NormalizeStats(cmd.ErrOrStderr(), inPath, st, statsFormat, useColor())
}

// openOutput returns a writer for path ("-" is stdout). File output goes to
// a temp file that commit renames into place and abort removes.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, func(), error) {
	if path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, func() {}, nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ilpatch-*")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create output: %w", err)
	}
	commit := func() error {
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		// Атомарная замена
		if err := os.Rename(tmp.Name(), path); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
	abort := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	return tmp, commit, abort, nil
}
