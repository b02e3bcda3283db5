package diag

import "fmt"

// Span locates a diagnostic inside an input stream by byte offsets.
// End is exclusive; Start == End marks a point.
type Span struct {
	File  string `json:"file,omitempty"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

// At returns an empty span pointing at off.
func At(file string, off int64) Span {
	return Span{File: file, Start: off, End: off}
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool { return s.End <= s.Start }

// Len returns the covered byte count.
func (s Span) Len() int64 {
	if s.Empty() {
		return 0
	}
	return s.End - s.Start
}

func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("@%d..%d", s.Start, s.End)
	}
	return fmt.Sprintf("%s@%d..%d", s.File, s.Start, s.End)
}
