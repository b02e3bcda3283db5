package normalize

import (
	"errors"
	"fmt"
)

// ErrIncomplete is returned by Close in strict mode when the stream ended
// inside an open construct.
var ErrIncomplete = errors.New("normalize: stream ended inside an open construct")

// Construct names what was left open at end of stream.
type Construct string

const (
	ConstructLiteral    Construct = "string literal"
	ConstructComment    Construct = "block comment"
	ConstructConcat     Construct = "concatenation"
	ConstructLoadPrefix Construct = "load instruction operand"
)

// IncompleteError describes a truncated construct. It unwraps to ErrIncomplete.
type IncompleteError struct {
	Construct Construct
	// Offset is the byte offset where the construct began.
	Offset int64
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("unterminated %s starting at byte %d", e.Construct, e.Offset)
}

func (e *IncompleteError) Unwrap() error { return ErrIncomplete }
