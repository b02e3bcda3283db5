package normalize

// onDefault passes text through. Comments are only recognized once a load
// has started, so a '/' here is plain text.
func (n *Normalizer) onDefault(c byte) {
	n.held = append(n.held, c)
	if !n.keywordAtTail() {
		return
	}
	// Everything before the keyword is plain text.
	cut := len(n.held) - len(n.keyword)
	n.emit(n.held[:cut])
	n.held = append(n.held[:0], n.keyword...)
	n.load = &loadContext{
		start:     n.off - int64(len(n.keyword)) + 1,
		openQuote: -1,
	}
	n.state = StateLoadFound
}

func (n *Normalizer) onLoadFound(c byte) {
	switch {
	case c == '"':
		n.held = append(n.held, c)
		n.load.openQuote = len(n.held) - 1
		n.load.fragments = 1
		n.state = StateInLiteral
	case isSpace(c):
		n.held = append(n.held, c)
	default:
		// The operand is not a quoted literal (e.g. "ldstr bytearray (...)"),
		// so this is not a string load.
		n.load = nil
		n.state = StateDefault
		n.onDefault(c)
	}
}

func (n *Normalizer) onInLiteral(c byte) {
	l := n.load
	switch {
	case l.escape:
		l.fragment = append(l.fragment, '\\', c)
		l.escape = false
	case c == '\\':
		l.escape = true
	case c == '"':
		l.combined = append(l.combined, l.fragment...)
		l.fragment = l.fragment[:0]
		n.state = StateLiteralEnd
	default:
		l.fragment = append(l.fragment, c)
	}
}

func (n *Normalizer) onLiteralEnd(c byte) {
	l := n.load
	switch {
	case c == '+':
		l.trailing = l.trailing[:0]
		n.state = StateConcatenating
	case c == '/':
		n.beginComment()
	case isSpace(c):
		l.trailing = append(l.trailing, c)
	default:
		// A new instruction has begun.
		n.finalize()
		n.onDefault(c)
	}
}

func (n *Normalizer) onConcatenating(c byte) {
	switch {
	case c == '"':
		n.load.fragments++
		n.state = StateInLiteral
	case c == '/':
		n.beginComment()
	case c == '+' || isSpace(c):
	default:
		n.finalize()
		n.onDefault(c)
	}
}

func (n *Normalizer) beginComment() {
	n.ret = n.state
	n.comment = append(n.comment[:0], '/')
	n.commentAt = n.off
	n.state = StateCommentStart
}

func (n *Normalizer) onCommentStart(c byte) {
	if c == '*' {
		n.comment = append(n.comment, c)
		n.state = StateInComment
		if n.ret == StateLiteralEnd {
			// The comment is relocated, the whitespace before it is replaced
			// by the single space used when comments are re-emitted.
			n.load.trailing = n.load.trailing[:0]
		}
		return
	}
	// A lone '/' is an unexpected token, so the load ends here and the
	// slash and c are replayed as plain text.
	n.finalize()
	n.held = append(n.held, n.comment...)
	n.comment = n.comment[:0]
	n.onDefault(c)
}

func (n *Normalizer) onInComment(c byte) {
	n.comment = append(n.comment, c)
	if c == '*' {
		n.state = StateCommentEnd
	}
}

func (n *Normalizer) onCommentEnd(c byte) {
	n.comment = append(n.comment, c)
	switch c {
	case '/':
		n.closeComment()
	case '*':
		// "**" run, still waiting for '/'
	default:
		n.state = StateInComment
	}
}

func (n *Normalizer) closeComment() {
	n.load.comments = append(n.load.comments, string(n.comment))
	n.stats.CommentsRelocated++
	n.comment = n.comment[:0]
	n.state = n.ret
}
