package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"ilpatch/internal/diag"
	"ilpatch/internal/normalize"
	"ilpatch/internal/patch"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	r := diag.BagReporter{Bag: bag}
	diag.ReportWarning(r, diag.NormUnterminatedLiteral, diag.Span{File: "/work/app.il", Start: 12, End: 40}, "unterminated string literal at end of stream").
		WithNote(diag.At("/work/app.il", 40), "output for this construct is a partial reconstruction").
		Emit()
	diag.ReportError(r, diag.IOLoadFileError, diag.Span{File: "/work/missing.il"}, "failed to open file").Emit()
	return bag
}

func TestPretty(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{PathMode: PathModeBasename, ShowNotes: true})
	out := buf.String()
	for _, want := range []string{
		"app.il:12-40: WARNING NRM1001: unterminated string literal",
		"    note app.il:40: output for this construct",
		"missing.il:0: ERROR IO4001: failed to open file",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestPrettyMaxAndRelative(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{PathMode: PathModeRelative, BaseDir: "/work", Max: 1})
	out := buf.String()
	if !strings.HasPrefix(out, "app.il:12-40:") {
		t.Errorf("relative path not used:\n%s", out)
	}
	if !strings.Contains(out, "... and 1 more diagnostic(s)") {
		t.Errorf("truncation not reported:\n%s", out)
	}
	if strings.Contains(out, "note") {
		t.Errorf("notes printed without ShowNotes")
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleBag(), JSONOpts{PathMode: PathModeBasename, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("count = %d, items = %d", out.Count, len(out.Diagnostics))
	}
	d := out.Diagnostics[0]
	if d.Code != "NRM1001" || d.Severity != "WARNING" || d.Location.File != "app.il" || d.Location.EndByte != 40 {
		t.Errorf("first diagnostic: %+v", d)
	}
	if len(d.Notes) != 1 {
		t.Errorf("notes: %+v", d.Notes)
	}
}

func TestNormalizeStats(t *testing.T) {
	st := normalize.Stats{Instructions: 3, Merged: 1, Fragments: 5, BytesIn: 100, BytesOut: 90}

	var buf bytes.Buffer
	if err := NormalizeStats(&buf, "a.il", st, StatsJSON, false); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["file"] != "a.il" || got["merged"] != float64(1) {
		t.Errorf("json stats: %v", got)
	}

	buf.Reset()
	if err := NormalizeStats(&buf, "", st, StatsPretty, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "fragments           5") {
		t.Errorf("pretty stats:\n%s", buf.String())
	}
}

func TestParseStatsFormat(t *testing.T) {
	for in, want := range map[string]StatsFormat{"": StatsNone, "none": StatsNone, "pretty": StatsPretty, "json": StatsJSON} {
		got, err := ParseStatsFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseStatsFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseStatsFormat("yaml"); err == nil {
		t.Errorf("expected error for unknown format")
	}
}

func TestPatchSummary(t *testing.T) {
	res := &patch.Result{
		Files: []patch.FileResult{
			{
				Path: "app.il", Output: "app.patched.il", Kind: patch.KindLoad,
				Counts: patch.Counts{Loads: 1},
				Hits:   []patch.Hit{{File: "app.il", Line: 7, Kind: patch.KindLoad, Before: "https://a/", After: "https://b/"}},
			},
			{Path: "main.js", Output: "main.js", Kind: patch.KindResource},
		},
		Counts:  patch.Counts{Loads: 1},
		Written: true,
	}
	var buf bytes.Buffer
	if err := PatchSummary(&buf, res, StatsPretty, false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		`app.il:7 "https://a/" -> "https://b/"`,
		"Found and replaced 1 IL string(s), 0 literal field(s) and modified 0 resource(s).",
		"Written file: app.patched.il",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Written file: main.js") {
		t.Errorf("unchanged resource listed as written")
	}

	buf.Reset()
	if err := PatchSummary(&buf, &patch.Result{}, StatsPretty, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No matching strings") {
		t.Errorf("no-match summary: %q", buf.String())
	}
}
