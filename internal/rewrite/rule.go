// Package rewrite implements the pattern-based substitutions applied to
// string constants and text resources.
//
// Both rules work in two stages: an outer pattern selects candidate spans and
// the replacement is applied only inside those spans, never to the whole
// input.
package rewrite

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// ErrBadPattern wraps pattern compilation failures.
var ErrBadPattern = errors.New("invalid pattern")

// Rule rewrites a string. Apply reports whether the result differs from s.
type Rule interface {
	Apply(s string) (string, bool)
	// Fingerprint identifies the rule for caching: equal rules have equal
	// fingerprints.
	Fingerprint() string
}

// PatternError names the pattern that failed to compile.
type PatternError struct {
	Field   string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() []error { return []error{ErrBadPattern, e.Err} }

func compile(field, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, &PatternError{Field: field, Pattern: pattern, Err: errors.New("empty pattern")}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Field: field, Pattern: pattern, Err: err}
	}
	return re, nil
}

func fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		// length prefix keeps ("ab","c") and ("a","bc") apart
		fmt.Fprintf(h, "%d:%s;", len(p), p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
