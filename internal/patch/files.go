package patch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"ilpatch/internal/diag"
	"ilpatch/internal/normalize"
	"ilpatch/internal/pipeline"
	"ilpatch/internal/rewrite"
	"ilpatch/internal/textio"
	"ilpatch/internal/trace"
)

// patchIL streams one .il file through the normalizer and the line patcher
// into a staged file next to its output path.
func patchIL(ctx context.Context, path string, opts Options) (_ *FileResult, err error) {
	start := time.Now()
	ctx, span := trace.Start(ctx, trace.ScopeFile, "patch_il")
	defer func() { span.End(path) }()

	pipeline.Emit(opts.Progress, pipeline.Event{File: path, Stage: pipeline.StageRead, Status: pipeline.StatusWorking})
	in, err := os.Open(path)
	if err != nil {
		diag.ReportError(opts.Reporter, diag.IOLoadFileError, diag.Span{File: path}, "failed to open file: "+err.Error()).Emit()
		return nil, err
	}
	defer in.Close()

	text, enc, err := textio.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	output := OutputPath(path, opts.OutputSuffix)
	tmp, err := os.CreateTemp(filepath.Dir(output), ".ilpatch-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	encoded := textio.NewWriter(tmp, enc)
	lines := newLinePatcher(encoded, opts.Rule, opts.Normalize.Keyword, path)
	lines.reporter = opts.Reporter

	nopts := opts.Normalize
	nopts.File = path
	pipeline.Emit(opts.Progress, pipeline.Event{File: path, Stage: pipeline.StageNormalize, Status: pipeline.StatusWorking})
	st, err := normalize.Stream(ctx, text, lines, normalize.StreamOptions{Options: nopts, ChunkSize: opts.ChunkSize})
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", path, err)
	}
	if err = lines.Close(); err != nil {
		return nil, fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err = encoded.Close(); err != nil {
		return nil, fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return nil, err
	}

	for _, h := range lines.hits {
		reportHit(ctx, h)
	}
	pipeline.Emit(opts.Progress, pipeline.Event{
		File: path, Stage: pipeline.StageRewrite, Status: pipeline.StatusDone,
		Count: lines.counts.Total(), Elapsed: time.Since(start),
	})
	span.WithExtra("encoding", enc.String()).
		WithExtra("substitutions", fmt.Sprint(lines.counts.Total()))

	return &FileResult{
		Path:   path,
		Output: output,
		Kind:   KindLoad,
		Counts: lines.counts,
		Hits:   lines.hits,
		Norm:   st,
		staged: tmp.Name(),
	}, nil
}

// patchResource applies the rule to a whole text resource.
func patchResource(ctx context.Context, path string, opts Options) (*FileResult, error) {
	start := time.Now()
	ctx, span := trace.Start(ctx, trace.ScopeFile, "patch_resource")
	defer func() { span.End(path) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pipeline.Emit(opts.Progress, pipeline.Event{File: path, Stage: pipeline.StageRead, Status: pipeline.StatusWorking})
	before, enc, err := readText(path)
	if err != nil {
		diag.ReportError(opts.Reporter, diag.PatchResourceReadFail, diag.Span{File: path}, "failed to read resource: "+err.Error()).Emit()
		return nil, fmt.Errorf("read resource %s: %w", path, err)
	}

	res := &FileResult{Path: path, Output: path, Kind: KindResource}
	after, changed := opts.Rule.Apply(before)
	if changed {
		content, err := encodeText(after, enc)
		if err != nil {
			return nil, fmt.Errorf("encode resource %s: %w", path, err)
		}
		res.content = content
		res.Counts.Resources = 1
		res.Hits = []Hit{{File: path, Kind: KindResource, Before: before, After: after}}
		reportHit(ctx, res.Hits[0])
	}
	pipeline.Emit(opts.Progress, pipeline.Event{
		File: path, Stage: pipeline.StageRewrite, Status: pipeline.StatusDone,
		Count: res.Counts.Total(), Elapsed: time.Since(start),
	})
	return res, nil
}

func reportHit(ctx context.Context, h Hit) {
	detail := fmt.Sprintf("%s:%d %s", h.File, h.Line, h.Kind)
	if h.Kind != KindResource {
		detail += fmt.Sprintf(" %q -> %q", h.Before, h.After)
	}
	trace.Mark(ctx, trace.ScopeItem, "substitution", detail)
}

func readText(path string) (string, textio.Encoding, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", textio.UTF8, err
	}
	defer f.Close()
	r, enc, err := textio.NewReader(f)
	if err != nil {
		return "", enc, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", enc, err
	}
	return string(b), enc, nil
}

func encodeText(s string, enc textio.Encoding) ([]byte, error) {
	var buf bytes.Buffer
	w := textio.NewWriter(&buf, enc)
	if _, err := io.WriteString(w, s); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic replaces path with data, keeping its permissions.
func writeFileAtomic(path string, data []byte) (err error) {
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ilpatch-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), mode); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp.Name(), path)
}

// RewriteFile applies rule to the text of in and writes the result to out
// only when something changed. It reports whether out was written.
func RewriteFile(in, out string, rule rewrite.Rule) (bool, error) {
	if rule == nil {
		return false, ErrNoRule
	}
	before, enc, err := readText(in)
	if err != nil {
		return false, err
	}
	after, changed := rule.Apply(before)
	if !changed {
		return false, nil
	}
	data, err := encodeText(after, enc)
	if err != nil {
		return false, err
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, err
		}
	}
	if err := writeFileAtomic(out, data); err != nil {
		return false, err
	}
	return true, nil
}
