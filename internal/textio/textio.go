// Package textio handles the encodings the disassembler writes: plain or
// BOM-prefixed UTF-8 (passed through untouched) and UTF-16 with a BOM
// (decoded to UTF-8 for processing, re-encoded on output).
package textio

import (
	"bufio"
	"errors"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding identifies an input text encoding.
type Encoding uint8

const (
	UTF8 Encoding = iota
	UTF16LE
	UTF16BE
)

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case UTF16LE:
		return "utf-16le"
	case UTF16BE:
		return "utf-16be"
	}
	return "unknown"
}

// Sniff inspects the byte order mark without consuming it.
func Sniff(br *bufio.Reader) (Encoding, error) {
	bom, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return UTF8, err
	}
	if len(bom) == 2 {
		switch {
		case bom[0] == 0xFF && bom[1] == 0xFE:
			return UTF16LE, nil
		case bom[0] == 0xFE && bom[1] == 0xFF:
			return UTF16BE, nil
		}
	}
	return UTF8, nil
}

func (e Encoding) codec() encoding.Encoding {
	switch e {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	}
	return nil
}

// NewReader returns a UTF-8 view of r together with the detected encoding.
// UTF-8 input is returned byte for byte, BOM included.
func NewReader(r io.Reader) (io.Reader, Encoding, error) {
	br := bufio.NewReader(r)
	enc, err := Sniff(br)
	if err != nil {
		return nil, enc, err
	}
	codec := enc.codec()
	if codec == nil {
		return br, enc, nil
	}
	return transform.NewReader(br, codec.NewDecoder()), enc, nil
}

// NewWriter returns a writer that encodes UTF-8 text as enc. Close must be
// called to flush; it does not close w.
func NewWriter(w io.Writer, enc Encoding) io.WriteCloser {
	codec := enc.codec()
	if codec == nil {
		return nopCloser{w}
	}
	return transform.NewWriter(w, codec.NewEncoder())
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
