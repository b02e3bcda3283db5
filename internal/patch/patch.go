package patch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ilpatch/internal/cache"
	"ilpatch/internal/diag"
	"ilpatch/internal/normalize"
	"ilpatch/internal/pipeline"
	"ilpatch/internal/rewrite"
	"ilpatch/internal/trace"
)

// ErrNoRule is returned by Run when Options.Rule is nil.
var ErrNoRule = errors.New("no rewrite rule")

// Options configures Run.
type Options struct {
	Rule rewrite.Rule

	// Normalize is passed to the normalizer of every .il file; File is set
	// per input.
	Normalize normalize.Options
	ChunkSize int

	// ResolveDir is where resource files are looked up; the directory of
	// each .il file when empty.
	ResolveDir   string
	ResourceExt  []string
	OutputSuffix string
	Jobs         int

	// DryRun scans and counts but commits nothing.
	DryRun bool

	Cache    *cache.Store
	Progress pipeline.ProgressSink
	Reporter diag.Reporter
}

// FileResult describes one processed input.
type FileResult struct {
	Path   string
	Output string // where the patched text goes; the input itself for resources
	Kind   Kind   // KindLoad for .il files, KindResource otherwise
	Counts Counts
	Hits   []Hit
	Norm   normalize.Stats

	staged  string // temp file holding patched IL
	content []byte // patched resource text
}

// Result summarizes a run.
type Result struct {
	Files   []FileResult
	Counts  Counts
	Norm    normalize.Stats
	Written bool
	Cached  bool
}

// Total is the number of substitutions across all files.
func (r *Result) Total() int { return r.Counts.Total() }

// Run patches every .il file in ilPaths and the resources next to them.
func Run(ctx context.Context, ilPaths []string, opts Options) (*Result, error) {
	if opts.Rule == nil {
		return nil, ErrNoRule
	}
	if len(ilPaths) == 0 {
		return &Result{}, nil
	}
	if opts.Normalize.Keyword == "" {
		opts.Normalize.Keyword = normalize.DefaultKeyword
	}
	if opts.OutputSuffix == "" {
		opts.OutputSuffix = ".patched"
	}
	if len(opts.ResourceExt) == 0 {
		opts.ResourceExt = []string{".js"}
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}

	ctx, span := trace.Start(ctx, trace.ScopePass, "patch")

	resources, err := listResources(ilPaths, opts)
	if err != nil {
		span.End("resolve failed")
		return nil, err
	}

	key, err := runKey(ilPaths, resources, opts)
	if err != nil {
		span.End("hash failed")
		return nil, err
	}
	if res, ok := cachedResult(key, opts); ok {
		for _, p := range append(append([]string(nil), ilPaths...), resources...) {
			pipeline.Emit(opts.Progress, pipeline.Event{File: p, Stage: pipeline.StageWrite, Status: pipeline.StatusSkipped})
		}
		span.End("cached")
		return res, nil
	}

	for _, p := range ilPaths {
		pipeline.Emit(opts.Progress, pipeline.Event{File: p, Stage: pipeline.StageRead, Status: pipeline.StatusQueued})
	}
	for _, p := range resources {
		pipeline.Emit(opts.Progress, pipeline.Event{File: p, Stage: pipeline.StageRead, Status: pipeline.StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	total := len(ilPaths) + len(resources)

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]FileResult, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, total))
	for i, path := range ilPaths {
		g.Go(func() error {
			res, err := patchIL(gctx, path, opts)
			if err != nil {
				pipeline.Emit(opts.Progress, pipeline.Event{File: path, Stage: pipeline.StageNormalize, Status: pipeline.StatusError, Err: err})
				return err
			}
			results[i] = *res
			return nil
		})
	}
	for j, path := range resources {
		g.Go(func() error {
			res, err := patchResource(gctx, path, opts)
			if err != nil {
				pipeline.Emit(opts.Progress, pipeline.Event{File: path, Stage: pipeline.StageRewrite, Status: pipeline.StatusError, Err: err})
				return err
			}
			results[len(ilPaths)+j] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		discard(results)
		span.End("failed")
		return nil, err
	}

	out := &Result{Files: results}
	for i := range results {
		out.Counts.Add(results[i].Counts)
		out.Norm.Add(results[i].Norm)
	}

	if out.Total() == 0 || opts.DryRun {
		discard(results)
		for _, r := range results {
			pipeline.Emit(opts.Progress, pipeline.Event{File: r.Path, Stage: pipeline.StageWrite, Status: pipeline.StatusSkipped})
		}
		if out.Total() == 0 {
			diag.ReportWarning(opts.Reporter, diag.PatchNoMatches, diag.Span{File: ilPaths[0]},
				"no matching strings or resources found to replace").Emit()
		}
	} else {
		if err := commit(results, opts); err != nil {
			discard(results)
			span.End("commit failed")
			return nil, err
		}
		out.Written = true
	}

	if !opts.DryRun {
		if err := remember(key, ilPaths, resources, out, opts); err != nil {
			// a cache failure never fails the run
			trace.Mark(ctx, trace.ScopePass, "cache", "store failed: "+err.Error())
		}
	}
	span.WithExtra("total", fmt.Sprint(out.Total())).
		WithExtra("written", fmt.Sprint(out.Written)).
		End("")
	return out, nil
}

// OutputPath is where the patched copy of an .il file is written.
func OutputPath(ilPath, suffix string) string {
	ext := filepath.Ext(ilPath)
	return strings.TrimSuffix(ilPath, ext) + suffix + ext
}

// listResources collects the resource files for every input, sorted and
// without duplicates.
func listResources(ilPaths []string, opts Options) ([]string, error) {
	dirs := make(map[string]struct{})
	if opts.ResolveDir != "" {
		info, err := os.Stat(opts.ResolveDir)
		if err != nil || !info.IsDir() {
			if err == nil {
				err = fmt.Errorf("not a directory")
			}
			diag.ReportError(opts.Reporter, diag.PatchResourceMissing, diag.Span{File: opts.ResolveDir},
				"resolve directory is not usable: "+err.Error()).Emit()
			return nil, fmt.Errorf("resolve dir %q: %w", opts.ResolveDir, err)
		}
		dirs[opts.ResolveDir] = struct{}{}
	} else {
		for _, p := range ilPaths {
			dirs[filepath.Dir(p)] = struct{}{}
		}
	}

	skip := make(map[string]struct{}, 2*len(ilPaths))
	for _, p := range ilPaths {
		skip[filepath.Clean(p)] = struct{}{}
		skip[filepath.Clean(OutputPath(p, opts.OutputSuffix))] = struct{}{}
	}

	var files []string
	for dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("list resources: %w", err)
		}
		for _, de := range entries {
			if de.IsDir() || !hasExt(de.Name(), opts.ResourceExt) {
				continue
			}
			p := filepath.Join(dir, de.Name())
			if _, ok := skip[filepath.Clean(p)]; ok {
				continue
			}
			files = append(files, p)
		}
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

func hasExt(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// commit moves every staged output into place.
func commit(results []FileResult, opts Options) error {
	sink := opts.Progress
	for i := range results {
		r := &results[i]
		start := time.Now()
		pipeline.Emit(sink, pipeline.Event{File: r.Path, Stage: pipeline.StageWrite, Status: pipeline.StatusWorking})
		var err error
		switch {
		case r.staged != "":
			err = os.Rename(r.staged, r.Output)
			if err == nil {
				r.staged = ""
			}
		case r.content != nil:
			err = writeFileAtomic(r.Output, r.content)
		default:
			pipeline.Emit(sink, pipeline.Event{File: r.Path, Stage: pipeline.StageWrite, Status: pipeline.StatusSkipped})
			continue
		}
		if err != nil {
			pipeline.Emit(sink, pipeline.Event{File: r.Path, Stage: pipeline.StageWrite, Status: pipeline.StatusError, Err: err})
			diag.ReportError(opts.Reporter, diag.IOWriteFileError, diag.Span{File: r.Output}, "failed to write file: "+err.Error()).Emit()
			return fmt.Errorf("write %s: %w", r.Output, err)
		}
		pipeline.Emit(sink, pipeline.Event{
			File: r.Path, Stage: pipeline.StageWrite, Status: pipeline.StatusDone,
			Count: r.Counts.Total(), Elapsed: time.Since(start),
		})
	}
	return nil
}

// discard drops staged files that were not committed.
func discard(results []FileResult) {
	for i := range results {
		if results[i].staged != "" {
			_ = os.Remove(results[i].staged)
			results[i].staged = ""
		}
	}
}
