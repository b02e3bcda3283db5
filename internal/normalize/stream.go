package normalize

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"ilpatch/internal/trace"
)

// DefaultChunkSize is the read size used by Stream.
const DefaultChunkSize = 64 << 10

// String normalizes a complete input in one call.
func String(input string, opts Options) (string, error) {
	n := New(opts)
	head := n.Write(input)
	tail, err := n.Close()
	return head + tail, err
}

// Writer adapts a Normalizer to io.WriteCloser. Resolved output is written
// to the underlying writer as soon as each chunk has been processed.
// Close flushes the end of stream but does not close the underlying writer.
type Writer struct {
	n   *Normalizer
	w   io.Writer
	err error
}

// NewWriter returns a Writer that forwards normalized text to w.
func NewWriter(w io.Writer, opts Options) *Writer {
	return &Writer{n: New(opts), w: w}
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if out := w.n.Write(string(p)); out != "" {
		if _, err := io.WriteString(w.w, out); err != nil {
			w.err = err
			return 0, err
		}
	}
	return len(p), nil
}

// Close finalizes the stream. A strict-mode truncation is returned after the
// partial output has been written.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	out, cerr := w.n.Close()
	if out != "" {
		if _, err := io.WriteString(w.w, out); err != nil {
			w.err = err
			return err
		}
	}
	return cerr
}

// Stats returns the wrapped normalizer's counters.
func (w *Writer) Stats() Stats { return w.n.Stats() }

// StreamOptions configures Stream.
type StreamOptions struct {
	Options
	// ChunkSize bounds each read; DefaultChunkSize when <= 0.
	ChunkSize int
}

// Stream copies r to w through a Normalizer using bounded reads. It checks
// ctx between chunks; on cancellation the open load, if any, is dropped
// unfinalized and ctx.Err() is returned.
func Stream(ctx context.Context, r io.Reader, w io.Writer, opts StreamOptions) (Stats, error) {
	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	_, span := trace.Start(ctx, trace.ScopePass, "normalize")

	nw := NewWriter(w, opts.Options)
	buf := make([]byte, size)
	chunks := 0
	for {
		if err := ctx.Err(); err != nil {
			span.End("cancelled")
			return nw.Stats(), err
		}
		k, rerr := r.Read(buf)
		if k > 0 {
			chunks++
			if _, err := nw.Write(buf[:k]); err != nil {
				span.End("write failed")
				return nw.Stats(), fmt.Errorf("write output: %w", err)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			span.End("read failed")
			return nw.Stats(), fmt.Errorf("read input: %w", rerr)
		}
	}
	err := nw.Close()

	st := nw.Stats()
	span.WithExtra("chunks", strconv.Itoa(chunks)).
		WithExtra("instructions", strconv.FormatUint(st.Instructions, 10)).
		WithExtra("merged", strconv.FormatUint(st.Merged, 10)).
		End(opts.File)
	return st, err
}
