package normalize_test

import (
	"errors"
	"strings"
	"testing"

	"ilpatch/internal/diag"
	"ilpatch/internal/normalize"
)

type normalizeCase struct {
	name  string
	input string
	want  string
}

var normalizeCases = []normalizeCase{
	{
		name:  "single line literal",
		input: `IL_005d: /* 72 | (70)02BBC8 */ ldstr "systemid" /* 7002BBC8 */`,
		want:  `IL_005d: /* 72 | (70)02BBC8 */ ldstr "systemid" /* 7002BBC8 */`,
	},
	{
		name: "two line concatenation",
		input: `IL_0079: /* 72 | (70)02BBDA */ ldstr "https://www.mb3admin.com/admin/service/package/ret"+
"rieveall\?includeAllRuntimes=true" /* 7002BBDA */`,
		want: `IL_0079: /* 72 | (70)02BBDA */ ldstr "https://www.mb3admin.com/admin/service/package/retrieveall\?includeAllRuntimes=true" /* 7002BBDA */`,
	},
	{
		name: "multi line concatenation",
		input: `IL_0080: ldstr "part1"+
"part2"+
"part3" /* end */`,
		want: `IL_0080: ldstr "part1part2part3" /* end */`,
	},
	{
		name: "escape sequences",
		input: `IL_0090: ldstr "line1\n"+
"line2\t"+
"line3\"" /* comment */`,
		want: `IL_0090: ldstr "line1\nline2\tline3\"" /* comment */`,
	},
	{
		name: "quotes inside",
		input: `IL_0100: ldstr "He said \"Hello\""+
" and \"Goodbye\"" /* test */`,
		want: `IL_0100: ldstr "He said \"Hello\" and \"Goodbye\"" /* test */`,
	},
	{
		name: "several instructions",
		input: `IL_0110: ldstr "first"+
"second" /* comment1 */
IL_0120: ldstr "third"
+
"fourth" /* comment2 */`,
		want: `IL_0110: ldstr "firstsecond" /* comment1 */
IL_0120: ldstr "thirdfourth" /* comment2 */`,
	},
	{
		name: "whitespace around operators",
		input: "IL_0130: ldstr \"start\"  +  \n" +
			"   \"middle\"   +\n" +
			"\"end\" /* done */",
		want: `IL_0130: ldstr "startmiddleend" /* done */`,
	},
	{
		name: "empty fragments",
		input: `IL_0140: ldstr ""+
"content"+
"" /* test */`,
		want: `IL_0140: ldstr "content" /* test */`,
	},
	{
		name: "escaped backslashes",
		input: `IL_0150: ldstr "path\\to\\file\\"+
"name.txt" /* file path */`,
		want: `IL_0150: ldstr "path\\to\\file\\name.txt" /* file path */`,
	},
	{
		name: "mixed content",
		input: `IL_0170: ldstr "single"
IL_0180: ldstr "concat1"+
"concat2"
IL_0190: ldstr "another_single"`,
		want: `IL_0170: ldstr "single"
IL_0180: ldstr "concat1concat2"
IL_0190: ldstr "another_single"`,
	},
	{
		name: "mixed content with comment",
		input: `IL_0170: ldstr "single"
IL_0180: ldstr "concat1"+ /* comment */
"concat2"
IL_0190: ldstr "another_single"`,
		want: `IL_0170: ldstr "single"
IL_0180: ldstr "concat1concat2" /* comment */
IL_0190: ldstr "another_single"`,
	},
	{
		name: "mixed content with several comments",
		input: `IL_0170: ldstr "single"
IL_0180: ldstr "concat1"+ /* comment 1 */
"concat2" /* comment 2 */
+ "concat3" /* comment 3 */
IL_0190: ldstr "another_single"`,
		want: `IL_0170: ldstr "single"
IL_0180: ldstr "concat1concat2concat3" /* comment 1 */ /* comment 2 */ /* comment 3 */
IL_0190: ldstr "another_single"`,
	},
	{
		name: "mixed content without comments",
		input: `IL_0170: ldstr "single"
IL_0180: ldstr "concat1"+
"concat2"
+ "concat3"
IL_0190: ldstr "another_single"`,
		want: `IL_0170: ldstr "single"
IL_0180: ldstr "concat1concat2concat3"
IL_0190: ldstr "another_single"`,
	},
	{
		name:  "comment after merged literal",
		input: "ldstr \"a\"+\n\"b\" /* c */",
		want:  `ldstr "ab" /* c */`,
	},
	{
		name:  "escaped backslash before concatenation",
		input: "ldstr \"x\\\\\"+\n\"y\"",
		want:  `ldstr "x\\y"`,
	},
	{
		name:  "empty leading and trailing fragments",
		input: "ldstr \"\"+\n\"content\"+\n\"\"",
		want:  `ldstr "content"`,
	},
	{
		name:  "comments between three fragments",
		input: `ldstr "1"+ /* A */ "2" /* B */ + "3"`,
		want:  `ldstr "123" /* A */ /* B */`,
	},
	{
		name: "plain lines around a load",
		input: `.method public hidebysig instance void Run() cil managed
IL_0000: ldstr "a"+
"b"
IL_0005: ret`,
		want: `.method public hidebysig instance void Run() cil managed
IL_0000: ldstr "ab"
IL_0005: ret`,
	},
	{
		name:  "redundant plus signs",
		input: "ldstr \"a\" + + \n+ \"b\"",
		want:  `ldstr "ab"`,
	},
	{
		name:  "line comment after literal keeps spacing",
		input: "IL_0001: ldstr \"a\"  // note\nIL_0002: ret",
		want:  "IL_0001: ldstr \"a\"  // note\nIL_0002: ret",
	},
	{
		name:  "slash in concatenation ends the load",
		input: "ldstr \"a\"+ /x",
		want:  "ldstr \"a\"/x",
	},
	{
		name:  "star runs inside comment",
		input: "ldstr \"a\" /** x **/+\"b\"",
		want:  "ldstr \"ab\" /** x **/",
	},
	{
		name:  "byte array operand is left alone",
		input: "IL_0000: ldstr bytearray (41 00 42 00)\nIL_0005: ldstr \"x\"+\n\"y\"",
		want:  "IL_0000: ldstr bytearray (41 00 42 00)\nIL_0005: ldstr \"xy\"",
	},
	{
		name:  "keyword inside identifier",
		input: "call void Foo::Xldstr()\nnop",
		want:  "call void Foo::Xldstr()\nnop",
	},
	{
		name:  "multi line byte array operand",
		input: "IL_0000: ldstr      bytearray (41 00 // A.\n 42 00)\nIL_0005: ldstr \"x\"+\"y\"",
		want:  "IL_0000: ldstr      bytearray (41 00 // A.\n 42 00)\nIL_0005: ldstr \"xy\"",
	},
	{
		name:  "literal on the line after the keyword",
		input: "IL_0000: ldstr\n  \"a\"+\n  \"b\"\nIL_0005: ret",
		want:  "IL_0000: ldstr\n  \"ab\"\nIL_0005: ret",
	},
	{
		name:  "keyword in line comment outside load",
		input: "// calls ldstr here\nIL_0001: ldstr \"a\"+\n\"b\"",
		want:  "// calls ldstr here\nIL_0001: ldstr \"ab\"",
	},
	{
		name:  "comment opener inside field literal",
		input: ".field public static literal string Accept = \"*/*\"\nIL_0000: ldstr \"a\"+\n\"b\"+\n\"c\"\nIL_0005: ret\n",
		want:  ".field public static literal string Accept = \"*/*\"\nIL_0000: ldstr \"abc\"\nIL_0005: ret\n",
	},
	{
		name:  "comment opener inside line comment",
		input: "// see src/*.cs\nIL_0000: ldstr \"https://\"+\n\"a.example/\" /* host */ +\n\"x\"\nIL_0005: ret\n",
		want:  "// see src/*.cs\nIL_0000: ldstr \"https://a.example/x\" /* host */\nIL_0005: ret\n",
	},
	{
		name:  "non ascii text passes through",
		input: "// привет\nldstr \"héllo \"+\n\"wörld\" /* ✓ */\n",
		want:  "// привет\nldstr \"héllo wörld\" /* ✓ */\n",
	},
	{
		name:  "trailing whitespace preserved",
		input: "ldstr \"a\"+\"b\" \t\n\nret",
		want:  "ldstr \"ab\" \t\n\nret",
	},
}

func TestNormalizeSingleChunk(t *testing.T) {
	for _, tc := range normalizeCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalize.String(tc.input, normalize.Options{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("output mismatch\n got: %q\nwant: %q", got, tc.want)
			}
		})
	}
}

func runChunks(t *testing.T, chunks []string, opts normalize.Options) string {
	t.Helper()
	n := normalize.New(opts)
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(n.Write(c))
	}
	tail, err := n.Close()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sb.WriteString(tail)
	return sb.String()
}

func TestNormalizeChunkBoundaries(t *testing.T) {
	for _, tc := range normalizeCases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i <= len(tc.input); i++ {
				got := runChunks(t, []string{tc.input[:i], tc.input[i:]}, normalize.Options{})
				if got != tc.want {
					t.Fatalf("split at %d\n got: %q\nwant: %q", i, got, tc.want)
				}
			}

			bytewise := make([]string, 0, len(tc.input)+2)
			bytewise = append(bytewise, "")
			for i := 0; i < len(tc.input); i++ {
				bytewise = append(bytewise, tc.input[i:i+1], "")
			}
			if got := runChunks(t, bytewise, normalize.Options{}); got != tc.want {
				t.Errorf("byte per chunk\n got: %q\nwant: %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, tc := range normalizeCases {
		t.Run(tc.name, func(t *testing.T) {
			again, err := normalize.String(tc.want, normalize.Options{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if again != tc.want {
				t.Errorf("second pass changed output\n got: %q\nwant: %q", again, tc.want)
			}
		})
	}
}

func TestNormalizeFlushesPlainTextPerChunk(t *testing.T) {
	n := normalize.New(normalize.Options{})
	if got := n.Write("nop\nret\n"); got != "nop\nret\n" {
		t.Fatalf("plain text not flushed: %q", got)
	}
	if got := n.Write("IL_0000: ldstr \"a\"+"); got != "IL_0000: " {
		t.Fatalf("prefix before keyword: got %q", got)
	}
	if !n.Pending() {
		t.Fatalf("expected an open load")
	}
	if got := n.Write("\n\"b\"\nret"); got != "ldstr \"ab\"\nret" {
		t.Fatalf("finalized load: got %q", got)
	}
	if n.Pending() {
		t.Fatalf("load should be closed")
	}
	tail, err := n.Close()
	if err != nil || tail != "" {
		t.Fatalf("close: got %q, %v", tail, err)
	}
}

func TestNormalizeHoldsPartialKeyword(t *testing.T) {
	n := normalize.New(normalize.Options{})
	if got := n.Write("IL_0000: ld"); got != "IL_0000: " {
		t.Fatalf("partial keyword must be held, got %q", got)
	}
	if got := n.Write("str \"a\"+\"b\""); got != "" {
		t.Fatalf("open load must not produce output, got %q", got)
	}
	tail, _ := n.Close()
	if tail != `ldstr "ab"` {
		t.Fatalf("got %q", tail)
	}
}

func TestNormalizeStats(t *testing.T) {
	n := normalize.New(normalize.Options{})
	in := "ldstr \"1\"+ /* A */ \"2\" /* B */ + \"3\"\nldstr \"solo\"\n"
	out := n.Write(in)
	tail, _ := n.Close()
	out += tail

	st := n.Stats()
	if st.Instructions != 2 || st.Merged != 1 || st.Fragments != 4 || st.CommentsRelocated != 2 {
		t.Errorf("unexpected stats: %+v", st)
	}
	if st.BytesIn != uint64(len(in)) || st.BytesOut != uint64(len(out)) {
		t.Errorf("byte counters: in=%d out=%d, stats=%+v", len(in), len(out), st)
	}
}

func TestNormalizeCustomKeyword(t *testing.T) {
	got, err := normalize.String("push \"a\"+\n\"b\"\nldstr \"c\"+\"d\"", normalize.Options{Keyword: "push"})
	if err != nil {
		t.Fatal(err)
	}
	want := "push \"ab\"\nldstr \"c\"+\"d\""
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeTruncatedInput(t *testing.T) {
	cases := []struct {
		name      string
		input     string
		want      string
		construct normalize.Construct
		code      diag.Code
	}{
		{"unterminated literal", `ldstr "a"+"bc`, `ldstr "abc`, normalize.ConstructLiteral, diag.NormUnterminatedLiteral},
		{"pending escape", `ldstr "ab\`, `ldstr "ab\`, normalize.ConstructLiteral, diag.NormUnterminatedLiteral},
		{"unterminated comment in load", `ldstr "a" /* open`, `ldstr "a" /* open`, normalize.ConstructComment, diag.NormUnterminatedComment},
		{"dangling concatenation", `ldstr "a" +`, `ldstr "a"`, normalize.ConstructConcat, diag.NormDanglingConcat},
		{"keyword without operand", `IL_0000: ldstr`, `IL_0000: ldstr`, normalize.ConstructLoadPrefix, diag.NormMissingLiteral},
	}

	for _, tc := range cases {
		t.Run(tc.name+"/lenient", func(t *testing.T) {
			bag := diag.NewBag(10)
			got, err := normalize.String(tc.input, normalize.Options{Reporter: diag.BagReporter{Bag: bag}})
			if err != nil {
				t.Fatalf("lenient mode must not fail: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
			if bag.Len() != 1 || bag.Items()[0].Code != tc.code || bag.Items()[0].Severity != diag.SevWarning {
				t.Errorf("expected one %s warning, got %+v", tc.code.ID(), bag.Items())
			}
		})
		t.Run(tc.name+"/strict", func(t *testing.T) {
			bag := diag.NewBag(10)
			got, err := normalize.String(tc.input, normalize.Options{Strict: true, Reporter: diag.BagReporter{Bag: bag}})
			if got != tc.want {
				t.Errorf("partial output: got %q, want %q", got, tc.want)
			}
			if !errors.Is(err, normalize.ErrIncomplete) {
				t.Fatalf("expected ErrIncomplete, got %v", err)
			}
			var ie *normalize.IncompleteError
			if !errors.As(err, &ie) || ie.Construct != tc.construct {
				t.Fatalf("expected %q construct, got %v", tc.construct, err)
			}
			if !bag.HasErrors() {
				t.Errorf("strict mode should report an error diagnostic")
			}
		})
	}
}

func TestNormalizeTrailingSlashIsText(t *testing.T) {
	got, err := normalize.String(`ldstr "a" /`, normalize.Options{Strict: true})
	if err != nil {
		t.Fatalf("lone slash is not a truncated construct: %v", err)
	}
	if got != `ldstr "a" /` {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeStateTransitions(t *testing.T) {
	n := normalize.New(normalize.Options{})
	steps := []struct {
		in   string
		want normalize.State
	}{
		{"ldstr", normalize.StateLoadFound},
		{" \"", normalize.StateInLiteral},
		{"a\\", normalize.StateInLiteral},
		{"\"\"", normalize.StateLiteralEnd},
		{" ", normalize.StateLiteralEnd},
		{"/", normalize.StateCommentStart},
		{"*", normalize.StateInComment},
		{"*", normalize.StateCommentEnd},
		{"*", normalize.StateCommentEnd},
		{"x", normalize.StateInComment},
		{"*/", normalize.StateLiteralEnd},
		{"+", normalize.StateConcatenating},
		{"\"b\"", normalize.StateLiteralEnd},
		{"r", normalize.StateDefault},
	}
	for i, s := range steps {
		n.Write(s.in)
		if n.State() != s.want {
			t.Fatalf("step %d (%q): state %s, want %s", i, s.in, n.State(), s.want)
		}
	}
}

func TestNormalizeLoadNeedsQuotedOperand(t *testing.T) {
	n := normalize.New(normalize.Options{})
	n.Write("IL_0000: ldstr \n\t")
	if n.State() != normalize.StateLoadFound {
		t.Fatalf("whitespace after the keyword: state %s", n.State())
	}
	n.Write("bytearray (41 00)\n")
	if n.State() != normalize.StateDefault {
		t.Fatalf("non literal operand: state %s", n.State())
	}
	if _, err := n.Close(); err != nil {
		t.Fatal(err)
	}
	if st := n.Stats(); st.Instructions != 0 {
		t.Errorf("byte array operand counted as instruction: %+v", st)
	}
}

func TestWriteAfterClosePanics(t *testing.T) {
	n := normalize.New(normalize.Options{})
	if _, err := n.Close(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	n.Write("x")
}
