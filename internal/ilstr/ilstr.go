// Package ilstr converts between the quoted string syntax of IL assembly
// text and plain Go strings.
package ilstr

import (
	"strings"
)

// Unescape decodes the body of a quoted IL literal (without the quotes).
// Unknown escapes decode to the escaped byte itself; a trailing lone
// backslash is kept.
func Unescape(body string) string {
	if strings.IndexByte(body, '\\') < 0 {
		return body
	}
	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			sb.WriteByte(c)
			continue
		}
		i++
		c = body[i]
		switch c {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '\n':
			// line continuation
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := int(c - '0')
			for k := 0; k < 2 && i+1 < len(body) && isOctal(body[i+1]); k++ {
				i++
				v = v*8 + int(body[i]-'0')
			}
			sb.WriteByte(byte(v))
		default:
			// \" \\ \? \' and anything else
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Escape encodes s as the body of a quoted IL literal, using the same
// escapes the disassembler emits.
func Escape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + len(s)/8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '?':
			sb.WriteString(`\?`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\v':
			sb.WriteString(`\v`)
		default:
			if c < 0x20 || c == 0x7f {
				sb.WriteByte('\\')
				sb.WriteByte('0' + c>>6)
				sb.WriteByte('0' + (c>>3)&7)
				sb.WriteByte('0' + c&7)
				continue
			}
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// ScanQuoted expects s[start] to be an opening quote and returns the literal
// body and the index just past the closing quote. ok is false when the
// literal is not terminated within s.
func ScanQuoted(s string, start int) (body string, end int, ok bool) {
	if start >= len(s) || s[start] != '"' {
		return "", start, false
	}
	escaped := false
	for i := start + 1; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == '"':
			return s[start+1 : i], i + 1, true
		}
	}
	return "", start, false
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }
