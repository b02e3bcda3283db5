package textio

import (
	"bytes"
	"io"
	"testing"
)

func TestUTF8PassesThroughUntouched(t *testing.T) {
	// BOM plus an invalid byte must survive untouched
	in := []byte("\xEF\xBB\xBFldstr \"\xff\"\n")
	r, enc, err := NewReader(bytes.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if enc != UTF8 {
		t.Fatalf("encoding = %s", enc)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, in) {
		t.Errorf("got %q, want %q", got, in)
	}
}

func TestUTF16RoundTrip(t *testing.T) {
	for _, enc := range []Encoding{UTF16LE, UTF16BE} {
		t.Run(enc.String(), func(t *testing.T) {
			var encoded bytes.Buffer
			w := NewWriter(&encoded, enc)
			if _, err := io.WriteString(w, "ldstr \"héllo\"\n"); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}

			r, got, err := NewReader(bytes.NewReader(encoded.Bytes()))
			if err != nil {
				t.Fatal(err)
			}
			if got != enc {
				t.Fatalf("sniffed %s, want %s", got, enc)
			}
			text, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}
			if string(text) != "ldstr \"héllo\"\n" {
				t.Errorf("decoded %q", text)
			}
		})
	}
}

func TestEmptyInput(t *testing.T) {
	r, enc, err := NewReader(bytes.NewReader(nil))
	if err != nil || enc != UTF8 {
		t.Fatalf("got (%s, %v)", enc, err)
	}
	if b, _ := io.ReadAll(r); len(b) != 0 {
		t.Errorf("unexpected data %q", b)
	}
}
