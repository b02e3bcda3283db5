package patch

import (
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"

	"ilpatch/internal/diag"
	"ilpatch/internal/ilstr"
	"ilpatch/internal/rewrite"
)

// fieldLiteral matches a static literal string field declaration up to and
// including the opening quote of its constant.
var fieldLiteral = regexp.MustCompile(`^\s*\.field\b[^"=]*\bstatic\b[^"=]*\bliteral\b[^"=]*\bstring\b[^"=]*=\s*(?:string\s*\(\s*)?"`)

// linePatcher receives normalized IL text, splits it into lines and rewrites
// literal operands before passing each line on.
type linePatcher struct {
	w       io.Writer
	rule    rewrite.Rule
	keyword string
	file    string

	// reporter receives malformed operand warnings; may be nil.
	reporter diag.Reporter

	buf    []byte
	line   int
	counts Counts
	hits   []Hit
	err    error
}

func newLinePatcher(w io.Writer, rule rewrite.Rule, keyword, file string) *linePatcher {
	return &linePatcher{w: w, rule: rule, keyword: keyword, file: file}
}

func (p *linePatcher) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	n := len(b)
	for len(b) > 0 {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			p.buf = append(p.buf, b...)
			break
		}
		p.buf = append(p.buf, b[:i+1]...)
		b = b[i+1:]
		if err := p.flushLine(); err != nil {
			p.err = err
			return 0, err
		}
	}
	return n, nil
}

// Close flushes a final line without a newline.
func (p *linePatcher) Close() error {
	if p.err != nil {
		return p.err
	}
	if len(p.buf) == 0 {
		return nil
	}
	return p.flushLine()
}

func (p *linePatcher) flushLine() error {
	p.line++
	out := p.patchLine(string(p.buf))
	p.buf = p.buf[:0]
	_, err := io.WriteString(p.w, out)
	return err
}

func (p *linePatcher) patchLine(line string) string {
	if m := fieldLiteral.FindStringIndex(line); m != nil {
		return p.patchQuoted(line, m[1]-1, KindField)
	}
	if !strings.Contains(line, p.keyword) {
		return line
	}

	var sb strings.Builder
	copied, i := 0, 0
	for i < len(line) {
		k := strings.Index(line[i:], p.keyword)
		if k < 0 {
			break
		}
		k += i
		r, stop := skipComments(line, i, k)
		if stop {
			break
		}
		if r != k {
			i = r
			continue
		}
		after := k + len(p.keyword)
		if (k > 0 && isWordByte(line[k-1])) || after >= len(line) || !isBlank(line[after]) {
			i = after
			continue
		}
		q := after
		for q < len(line) && isBlank(line[q]) {
			q++
		}
		body, end, ok := ilstr.ScanQuoted(line, q)
		if !ok {
			if q < len(line) && line[q] == '"' {
				diag.ReportWarning(p.reporter, diag.PatchBadOperand, diag.Span{File: p.file},
					"line "+strconv.Itoa(p.line)+": unterminated string operand left unchanged").Emit()
			}
			// bytearray form or a non-literal operand
			i = after
			continue
		}
		if patched, changed := p.apply(body, KindLoad); changed {
			sb.WriteString(line[copied : q+1])
			sb.WriteString(patched)
			sb.WriteByte('"')
			copied = end
		}
		i = end
	}
	if copied == 0 {
		return line
	}
	sb.WriteString(line[copied:])
	return sb.String()
}

// patchQuoted rewrites the literal whose opening quote is at line[q].
func (p *linePatcher) patchQuoted(line string, q int, kind Kind) string {
	body, end, ok := ilstr.ScanQuoted(line, q)
	if !ok {
		return line
	}
	patched, changed := p.apply(body, kind)
	if !changed {
		return line
	}
	return line[:q+1] + patched + `"` + line[end:]
}

// apply runs the rule over the decoded literal and returns the re-escaped
// body when it changed.
func (p *linePatcher) apply(body string, kind Kind) (string, bool) {
	before := ilstr.Unescape(body)
	after, changed := p.rule.Apply(before)
	if !changed {
		return body, false
	}
	p.counts.inc(kind)
	p.hits = append(p.hits, Hit{File: p.file, Line: p.line, Kind: kind, Before: before, After: after})
	return ilstr.Escape(after), true
}

// skipComments walks line[from:to] over closed block comments, such as the
// byte dumps ildasm /BYTES puts before the opcode. It returns to when the
// keyword at to is code, the end of the block comment that contains it
// otherwise, and stop when a line comment or an unclosed block comment
// starts first.
func skipComments(line string, from, to int) (next int, stop bool) {
	for j := from; j < to && j+1 < len(line); j++ {
		if line[j] != '/' {
			continue
		}
		switch line[j+1] {
		case '/':
			return 0, true
		case '*':
			e := strings.Index(line[j+2:], "*/")
			if e < 0 {
				return 0, true
			}
			e += j + 4
			if e > to {
				return e, false
			}
			j = e - 1
		}
	}
	return to, false
}
