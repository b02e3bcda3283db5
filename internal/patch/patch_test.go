package patch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ilpatch/internal/cache"
	"ilpatch/internal/diag"
	"ilpatch/internal/normalize"
	"ilpatch/internal/pipeline"
	"ilpatch/internal/rewrite"
	"ilpatch/internal/textio"
)

const sampleIL = `.class public auto ansi beforefieldinit App
{
  .field public static literal string Api = "https://api.old.example/v1"
  .field private static literal string Other = string("https://api.old.example/x")
  .method public static void Main() cil managed
  {
    IL_0000:  ldstr      "https://api.old"
    + ".example/login"
    IL_0005:  call       void [mscorlib]System.Console::WriteLine(string)
    IL_000a:  ldstr      "unrelated"
    IL_000f:  ldstr      bytearray (41 00 42 00)
    IL_0014:  ret
  }
}
`

const patchedIL = `.class public auto ansi beforefieldinit App
{
  .field public static literal string Api = "https://new.example/v1"
  .field private static literal string Other = string("https://new.example/x")
  .method public static void Main() cil managed
  {
    IL_0000:  ldstr      "https://new.example/login"
    IL_0005:  call       void [mscorlib]System.Console::WriteLine(string)
    IL_000a:  ldstr      "unrelated"
    IL_000f:  ldstr      bytearray (41 00 42 00)
    IL_0014:  ret
  }
}
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestRunPatchesEverything(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app.il":    sampleIL,
		"main.js":   `fetch("https://cdn.old.example/app.js")`,
		"Extra.JS":  "no urls here",
		"style.css": "url(https://cdn.old.example/bg.png)",
	})
	rec := &pipeline.Recorder{}
	res, err := Run(context.Background(), []string{filepath.Join(dir, "app.il")}, Options{
		Rule:     testRule(t),
		Progress: rec,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := Counts{Loads: 1, Fields: 2, Resources: 1}
	if res.Counts != want || !res.Written {
		t.Fatalf("counts %+v written %v", res.Counts, res.Written)
	}
	if res.Norm.Merged != 1 {
		t.Errorf("merged = %d, want 1", res.Norm.Merged)
	}

	if got := readFile(t, filepath.Join(dir, "app.patched.il")); got != patchedIL {
		t.Errorf("patched IL\n got: %q\nwant: %q", got, patchedIL)
	}
	if got := readFile(t, filepath.Join(dir, "app.il")); got != sampleIL {
		t.Errorf("input IL must stay untouched")
	}
	if got := readFile(t, filepath.Join(dir, "main.js")); got != `fetch("https://new.example/app.js")` {
		t.Errorf("resource: %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "style.css")); got != "url(https://cdn.old.example/bg.png)" {
		t.Errorf("non-resource file changed: %q", got)
	}

	var loadLine int
	for _, f := range res.Files {
		for _, h := range f.Hits {
			if h.Kind == KindLoad {
				loadLine = h.Line
			}
		}
	}
	if loadLine != 7 {
		t.Errorf("load hit line = %d, want 7", loadLine)
	}

	if evt, ok := rec.Last(filepath.Join(dir, "app.il")); !ok || evt.Stage != pipeline.StageWrite || evt.Status != pipeline.StatusDone {
		t.Errorf("last IL event: %+v", evt)
	}
	if evt, ok := rec.Last(filepath.Join(dir, "Extra.JS")); !ok || evt.Status != pipeline.StatusSkipped {
		t.Errorf("unchanged resource must be skipped: %+v", evt)
	}
}

func TestRunWithoutMatchesWritesNothing(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app.il":  sampleIL,
		"main.js": "console.log(1)",
	})
	rule, err := rewrite.NewTwoStage(`https://nowhere\.invalid/`, `nowhere`, "somewhere")
	if err != nil {
		t.Fatal(err)
	}
	bag := diag.NewBag(10)
	res, err := Run(context.Background(), []string{filepath.Join(dir, "app.il")}, Options{
		Rule:     rule,
		Reporter: diag.BagReporter{Bag: bag},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total() != 0 || res.Written {
		t.Fatalf("unexpected result %+v", res)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		for _, e := range entries {
			t.Logf("left behind: %s", e.Name())
		}
		t.Fatalf("expected only the inputs to remain")
	}
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.PatchNoMatches {
		t.Errorf("diagnostics: %+v", items)
	}
}

func TestRunDryRun(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.il": sampleIL, "main.js": `"https://x.old.example/"`})
	res, err := Run(context.Background(), []string{filepath.Join(dir, "app.il")}, Options{Rule: testRule(t), DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total() != 4 || res.Written {
		t.Fatalf("dry run result %+v", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "app.patched.il")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run wrote output: %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "main.js")); got != `"https://x.old.example/"` {
		t.Errorf("dry run changed resource: %q", got)
	}
}

func TestRunUsesCache(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.il": sampleIL, "main.js": `"https://x.old.example/"`})
	store, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Rule: testRule(t), Cache: store}
	in := []string{filepath.Join(dir, "app.il")}

	first, err := Run(context.Background(), in, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Fatalf("first run cannot be cached")
	}
	second, err := Run(context.Background(), in, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Counts != first.Counts || !second.Written {
		t.Fatalf("second run: %+v", second)
	}

	// touching the output invalidates the entry
	if err := os.WriteFile(filepath.Join(dir, "app.patched.il"), []byte("edited"), 0o644); err != nil {
		t.Fatal(err)
	}
	third, err := Run(context.Background(), in, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.Cached {
		t.Fatalf("stale entry was reused")
	}
	if got := readFile(t, filepath.Join(dir, "app.patched.il")); got != patchedIL {
		t.Errorf("output not regenerated: %q", got)
	}
}

func TestRunKeepsUTF16(t *testing.T) {
	encoded, err := encodeText(sampleIL, textio.UTF16LE)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.il"), encoded, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Run(context.Background(), []string{filepath.Join(dir, "app.il")}, Options{Rule: testRule(t)}); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "app.patched.il"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) {
		t.Fatalf("output lost its UTF-16 byte order mark: % x", raw[:4])
	}
	got, enc, err := readText(filepath.Join(dir, "app.patched.il"))
	if err != nil {
		t.Fatal(err)
	}
	if enc != textio.UTF16LE || got != patchedIL {
		t.Errorf("encoding %v\n got: %q", enc, got)
	}
}

func TestRunStrictTruncation(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.il": "nop\nldstr \"https://x.old.example/"})
	_, err := Run(context.Background(), []string{filepath.Join(dir, "app.il")}, Options{
		Rule:      testRule(t),
		Normalize: normalize.Options{Strict: true},
	})
	if !errors.Is(err, normalize.ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "app.patched.il")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("failed run left output behind")
	}
}

func TestRunResolveDir(t *testing.T) {
	ilDir := writeTree(t, map[string]string{"app.il": "ret\n"})
	resDir := writeTree(t, map[string]string{"main.js": `"https://x.old.example/"`})
	res, err := Run(context.Background(), []string{filepath.Join(ilDir, "app.il")}, Options{Rule: testRule(t), ResolveDir: resDir})
	if err != nil {
		t.Fatal(err)
	}
	if res.Counts.Resources != 1 {
		t.Fatalf("counts %+v", res.Counts)
	}

	_, err = Run(context.Background(), []string{filepath.Join(ilDir, "app.il")}, Options{
		Rule:       testRule(t),
		ResolveDir: filepath.Join(resDir, "missing"),
	})
	if err == nil {
		t.Fatalf("missing resolve dir must fail")
	}
}

func TestRunRequiresRule(t *testing.T) {
	if _, err := Run(context.Background(), []string{"x.il"}, Options{}); !errors.Is(err, ErrNoRule) {
		t.Fatalf("expected ErrNoRule, got %v", err)
	}
}

func TestRewriteFile(t *testing.T) {
	dir := writeTree(t, map[string]string{"in.js": `a("https://x.old.example/p")`, "plain.js": "b()"})
	rule := testRule(t)

	wrote, err := RewriteFile(filepath.Join(dir, "in.js"), filepath.Join(dir, "out", "in.js"), rule)
	if err != nil || !wrote {
		t.Fatalf("RewriteFile = %v, %v", wrote, err)
	}
	if got := readFile(t, filepath.Join(dir, "out", "in.js")); got != `a("https://new.example/p")` {
		t.Errorf("got %q", got)
	}

	wrote, err = RewriteFile(filepath.Join(dir, "plain.js"), filepath.Join(dir, "out", "plain.js"), rule)
	if err != nil || wrote {
		t.Fatalf("unchanged file: %v, %v", wrote, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "plain.js")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("unchanged file must not be written")
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath(filepath.Join("d", "app.il"), ".patched"); got != filepath.Join("d", "app.patched.il") {
		t.Errorf("got %q", got)
	}
}
