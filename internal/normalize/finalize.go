package normalize

import (
	"strings"

	"ilpatch/internal/diag"
)

// finalize emits the reconstruction of the open load instruction: the held
// prefix through the opening quote, the merged literal, the closing quote,
// the relocated comments joined by single spaces, then the trailing
// whitespace. Without an open load (or before its quote was seen) the held
// text is emitted as is.
func (n *Normalizer) finalize() {
	l := n.load
	n.load = nil
	n.state = StateDefault
	if l == nil || l.openQuote < 0 {
		n.emit(n.held)
		n.held = n.held[:0]
		return
	}

	n.emit(n.held[:l.openQuote+1])
	n.emit(l.combined)
	if !l.unterminated {
		n.emitString(`"`)
	}
	if len(l.comments) > 0 {
		trimmed := make([]string, len(l.comments))
		for i, c := range l.comments {
			trimmed[i] = strings.TrimSpace(c)
		}
		n.emitString(" " + strings.Join(trimmed, " "))
	}
	n.emit(l.trailing)
	n.held = n.held[:0]

	n.stats.Instructions++
	n.stats.Fragments += uint64(l.fragments)
	if l.fragments > 1 {
		n.stats.Merged++
	}
}

// drain folds whatever the current mode still holds into the load context or
// the held buffer so that finalize can flush it, and reports truncation.
func (n *Normalizer) drain() error {
	var (
		construct Construct
		start     int64
		code      diag.Code
	)

	switch n.state {
	case StateLoadFound:
		construct, start, code = ConstructLoadPrefix, n.load.start, diag.NormMissingLiteral

	case StateInLiteral:
		l := n.load
		l.combined = append(l.combined, l.fragment...)
		if l.escape {
			l.combined = append(l.combined, '\\')
		}
		l.fragment = l.fragment[:0]
		l.escape = false
		l.unterminated = true
		construct, start, code = ConstructLiteral, l.start, diag.NormUnterminatedLiteral

	case StateConcatenating:
		construct, start, code = ConstructConcat, n.load.start, diag.NormDanglingConcat

	case StateCommentStart:
		// A trailing lone '/' is plain text after the load.
		n.finalize()
		n.held = append(n.held, n.comment...)
		n.comment = n.comment[:0]

	case StateInComment, StateCommentEnd:
		n.load.comments = append(n.load.comments, string(n.comment))
		n.stats.CommentsRelocated++
		construct, start, code = ConstructComment, n.commentAt, diag.NormUnterminatedComment
		n.comment = n.comment[:0]
	}
	n.state = StateDefault
	if construct == "" {
		return nil
	}

	sev := diag.SevWarning
	if n.opts.Strict {
		sev = diag.SevError
	}
	diag.NewReportBuilder(n.opts.Reporter, sev, code, n.span(start), "unterminated "+string(construct)+" at end of stream").
		WithNote(diag.At(n.opts.File, n.off), "output for this construct is a partial reconstruction").
		Emit()

	if !n.opts.Strict {
		return nil
	}
	return &IncompleteError{Construct: construct, Offset: start}
}
