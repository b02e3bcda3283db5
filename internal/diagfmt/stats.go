package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"ilpatch/internal/normalize"
	"ilpatch/internal/patch"
)

// StatsFormat selects how run statistics are printed.
type StatsFormat string

const (
	StatsNone   StatsFormat = ""
	StatsPretty StatsFormat = "pretty"
	StatsJSON   StatsFormat = "json"
)

// ParseStatsFormat accepts "", "none", "pretty" and "json".
func ParseStatsFormat(s string) (StatsFormat, error) {
	switch s {
	case "", "none":
		return StatsNone, nil
	case "pretty":
		return StatsPretty, nil
	case "json":
		return StatsJSON, nil
	}
	return StatsNone, fmt.Errorf("unknown stats format %q (want pretty or json)", s)
}

type normalizeStatsJSON struct {
	File string `json:"file,omitempty"`
	normalize.Stats
}

// NormalizeStats prints the counters of one normalize run.
func NormalizeStats(w io.Writer, file string, st normalize.Stats, format StatsFormat, useColor bool) error {
	switch format {
	case StatsJSON:
		return json.NewEncoder(w).Encode(normalizeStatsJSON{File: file, Stats: st})
	case StatsPretty:
		label := func(s string) string {
			s = runewidth.FillRight(s, 20)
			if useColor {
				return pathColor.Sprint(s)
			}
			return s
		}
		if file != "" {
			fmt.Fprintf(w, "%s%s\n", label("file"), file)
		}
		fmt.Fprintf(w, "%s%d\n", label("instructions"), st.Instructions)
		fmt.Fprintf(w, "%s%d\n", label("merged"), st.Merged)
		fmt.Fprintf(w, "%s%d\n", label("fragments"), st.Fragments)
		fmt.Fprintf(w, "%s%d\n", label("comments relocated"), st.CommentsRelocated)
		fmt.Fprintf(w, "%s%d -> %d\n", label("bytes"), st.BytesIn, st.BytesOut)
	}
	return nil
}

// PatchSummaryJSON is the machine readable form of a patch run.
type PatchSummaryJSON struct {
	Files   []PatchFileJSON `json:"files"`
	Counts  patch.Counts    `json:"counts"`
	Total   int             `json:"total"`
	Written bool            `json:"written"`
	Cached  bool            `json:"cached"`
}

type PatchFileJSON struct {
	Path   string       `json:"path"`
	Output string       `json:"output,omitempty"`
	Kind   string       `json:"kind"`
	Counts patch.Counts `json:"counts"`
}

// PatchSummary prints what a patch run changed. Pretty output lists every
// substitution followed by the per kind totals.
func PatchSummary(w io.Writer, res *patch.Result, format StatsFormat, useColor bool) error {
	if res == nil {
		return nil
	}
	if format == StatsJSON {
		out := PatchSummaryJSON{
			Files:   make([]PatchFileJSON, 0, len(res.Files)),
			Counts:  res.Counts,
			Total:   res.Total(),
			Written: res.Written,
			Cached:  res.Cached,
		}
		for _, f := range res.Files {
			out.Files = append(out.Files, PatchFileJSON{Path: f.Path, Output: f.Output, Kind: f.Kind.String(), Counts: f.Counts})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	paint := func(c *color.Color, s string) string {
		if !useColor {
			return s
		}
		return c.Sprint(s)
	}
	for _, f := range res.Files {
		for _, h := range f.Hits {
			where := f.Path
			if h.Line > 0 {
				where = fmt.Sprintf("%s:%d", f.Path, h.Line)
			}
			kind := runewidth.FillRight(h.Kind.String(), 9)
			if h.Kind == patch.KindResource {
				fmt.Fprintf(w, "  %s %s content modified\n", paint(codeColor, kind), where)
				continue
			}
			fmt.Fprintf(w, "  %s %s %q -> %q\n", paint(codeColor, kind), where, h.Before, h.After)
		}
	}

	switch {
	case res.Total() == 0:
		fmt.Fprintln(w, paint(warningColor, "No matching strings or resources found to replace."))
	case res.Cached:
		fmt.Fprintf(w, "%s %d substitution(s) already applied, outputs up to date.\n", paint(infoColor, "cached"), res.Total())
	default:
		fmt.Fprintf(w, "Found and replaced %d IL string(s), %d literal field(s) and modified %d resource(s).\n",
			res.Counts.Loads, res.Counts.Fields, res.Counts.Resources)
		if res.Written {
			for _, f := range res.Files {
				if f.Kind == patch.KindLoad || f.Counts.Total() > 0 {
					fmt.Fprintf(w, "Written file: %s\n", paint(pathColor, f.Output))
				}
			}
		}
	}
	return nil
}
