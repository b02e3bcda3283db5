package normalize

import (
	"bytes"

	"fortio.org/safecast"

	"ilpatch/internal/diag"
)

// DefaultKeyword is the IL opcode that loads a string constant.
const DefaultKeyword = "ldstr"

// Options configures a Normalizer.
type Options struct {
	// Keyword is the load instruction to merge; DefaultKeyword when empty.
	Keyword string
	// Strict makes Close return an *IncompleteError when the stream ends
	// inside an open construct. The best-effort output is returned either way.
	Strict bool
	// File names the input in diagnostics.
	File string
	// Reporter receives truncation diagnostics; may be nil.
	Reporter diag.Reporter
}

// loadContext holds one load instruction while its fragments are collected.
// It exists only between keyword detection and finalize.
type loadContext struct {
	start     int64 // byte offset of the keyword
	openQuote int   // index of the first '"' in held; -1 until seen
	combined  []byte
	fragment  []byte
	comments  []string
	escape    bool
	trailing  []byte
	fragments int
	// unterminated is set at end of stream when the last fragment never closed.
	unterminated bool
}

// Normalizer collapses concatenated string literals of load instructions in
// disassembled IL text into one literal per instruction. Everything else is
// passed through byte for byte.
//
// Input is dispatched one byte at a time. All syntax the machine reacts to is
// ASCII, so multi-byte sequences (and even invalid UTF-8) are copied through
// untouched regardless of where chunk boundaries fall.
//
// A Normalizer consumes exactly one stream: Write any number of chunks in
// order, then Close once. It is not safe for concurrent use.
type Normalizer struct {
	opts    Options
	keyword []byte

	state State
	ret   State // mode to resume after a comment
	load  *loadContext

	held      []byte
	comment   []byte
	commentAt int64

	last   byte  // last byte emitted, for keyword boundary checks
	off    int64 // offset of the byte being dispatched
	out    []byte
	stats  Stats
	closed bool
}

// New returns a Normalizer in the default state.
func New(opts Options) *Normalizer {
	if opts.Keyword == "" {
		opts.Keyword = DefaultKeyword
	}
	return &Normalizer{
		opts:    opts,
		keyword: []byte(opts.Keyword),
		state:   StateDefault,
	}
}

// State returns the current mode.
func (n *Normalizer) State() State { return n.state }

// Stats returns the counters accumulated so far.
func (n *Normalizer) Stats() Stats { return n.stats }

// Pending reports whether a load instruction is currently held back.
func (n *Normalizer) Pending() bool { return n.load != nil }

// Write feeds one chunk and returns the output that is fully resolved so far.
// The result may be empty while a load instruction is still open.
func (n *Normalizer) Write(chunk string) string {
	if n.closed {
		panic("normalize: Write called after Close")
	}
	n.out = n.out[:0]
	for i := 0; i < len(chunk); i++ {
		n.dispatch(chunk[i])
		n.off++
	}
	if n.load == nil {
		n.flushHeld()
	}
	return n.result(len(chunk))
}

// Close signals end of stream. Any open load instruction is finalized on a
// best-effort basis; truncated constructs are reconstructed as far as they
// were read. In strict mode the truncation is also returned as an error.
func (n *Normalizer) Close() (string, error) {
	if n.closed {
		return "", nil
	}
	n.closed = true
	n.out = n.out[:0]
	err := n.drain()
	n.finalize()
	return n.result(0), err
}

func (n *Normalizer) result(consumed int) string {
	in, errIn := safecast.Conv[uint64](consumed)
	out, errOut := safecast.Conv[uint64](len(n.out))
	if errIn == nil {
		n.stats.BytesIn += in
	}
	if errOut == nil {
		n.stats.BytesOut += out
	}
	return string(n.out)
}

func (n *Normalizer) dispatch(c byte) {
	switch n.state {
	case StateDefault:
		n.onDefault(c)
	case StateCommentStart:
		n.onCommentStart(c)
	case StateInComment:
		n.onInComment(c)
	case StateCommentEnd:
		n.onCommentEnd(c)
	case StateLoadFound:
		n.onLoadFound(c)
	case StateInLiteral:
		n.onInLiteral(c)
	case StateLiteralEnd:
		n.onLiteralEnd(c)
	case StateConcatenating:
		n.onConcatenating(c)
	}
}

func (n *Normalizer) emit(p []byte) {
	if len(p) == 0 {
		return
	}
	n.out = append(n.out, p...)
	n.last = p[len(p)-1]
}

func (n *Normalizer) emitString(s string) {
	if s == "" {
		return
	}
	n.out = append(n.out, s...)
	n.last = s[len(s)-1]
}

// flushHeld emits the held buffer except for a tail that could still grow
// into the keyword in the next chunk.
func (n *Normalizer) flushHeld() {
	keep := 0
	if n.state == StateDefault {
		keep = keywordPrefixSuffix(n.held, n.keyword)
	}
	cut := len(n.held) - keep
	if cut <= 0 {
		return
	}
	n.emit(n.held[:cut])
	n.held = append(n.held[:0], n.held[cut:]...)
}

// keywordAtTail reports whether held ends with the keyword as a whole word.
func (n *Normalizer) keywordAtTail() bool {
	if !bytes.HasSuffix(n.held, n.keyword) {
		return false
	}
	cut := len(n.held) - len(n.keyword)
	prev := n.last
	if cut > 0 {
		prev = n.held[cut-1]
	}
	return !isWordByte(prev)
}

// keywordPrefixSuffix returns the length of the longest suffix of b that is a
// proper prefix of kw.
func keywordPrefixSuffix(b, kw []byte) int {
	for k := min(len(kw)-1, len(b)); k > 0; k-- {
		if bytes.Equal(b[len(b)-k:], kw[:k]) {
			return k
		}
	}
	return 0
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (n *Normalizer) span(start int64) diag.Span {
	return diag.Span{File: n.opts.File, Start: start, End: n.off}
}
