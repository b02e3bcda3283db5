package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"ilpatch/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	codeColor    = color.New(color.Faint)
	pathColor    = color.New(color.Bold)
)

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	}
	return infoColor
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<offset>: <SEV> <CODE>: <Message>
// затем Notes с отступом.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	if bag == nil {
		return
	}
	items := bag.Items()
	limit := len(items)
	if opts.Max > 0 && opts.Max < limit {
		limit = opts.Max
	}
	paint := func(c *color.Color, s string) string {
		if !opts.Color {
			return s
		}
		return c.Sprint(s)
	}

	for _, d := range items[:limit] {
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			paint(pathColor, location(d.Primary, opts.PathMode, opts.BaseDir)),
			paint(severityColor(d.Severity), d.Severity.String()),
			paint(codeColor, d.Code.ID()),
			d.Message,
		)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "    %s %s: %s\n", paint(codeColor, "note"), location(n.Span, opts.PathMode, opts.BaseDir), n.Msg)
		}
	}
	if hidden := len(items) - limit; hidden > 0 {
		fmt.Fprintf(w, "... and %d more diagnostic(s)\n", hidden)
	}
}

func location(sp diag.Span, mode PathMode, base string) string {
	file := formatPath(sp.File, mode, base)
	if file == "" {
		file = "<input>"
	}
	if sp.Empty() {
		return fmt.Sprintf("%s:%d", file, sp.Start)
	}
	return fmt.Sprintf("%s:%d-%d", file, sp.Start, sp.End)
}
