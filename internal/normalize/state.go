package normalize

// State is the current mode of the normalizer's state machine.
type State uint8

const (
	// StateDefault accumulates plain text while watching for the load keyword.
	StateDefault State = iota
	// StateCommentStart has seen a '/' that may open a block comment.
	StateCommentStart
	// StateInComment is inside a block comment body.
	StateInComment
	// StateCommentEnd has seen '*' inside a comment; '/' closes it.
	StateCommentEnd
	// StateLoadFound has matched the keyword and waits for the opening quote.
	StateLoadFound
	// StateInLiteral scans a quoted fragment.
	StateInLiteral
	// StateLiteralEnd has just closed a fragment.
	StateLiteralEnd
	// StateConcatenating sits between '+' and the next fragment.
	StateConcatenating
)

func (s State) String() string {
	switch s {
	case StateDefault:
		return "default"
	case StateCommentStart:
		return "comment-start"
	case StateInComment:
		return "in-comment"
	case StateCommentEnd:
		return "comment-end"
	case StateLoadFound:
		return "load-found"
	case StateInLiteral:
		return "in-literal"
	case StateLiteralEnd:
		return "literal-end"
	case StateConcatenating:
		return "concatenating"
	default:
		return "unknown"
	}
}
