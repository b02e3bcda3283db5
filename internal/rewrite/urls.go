package rewrite

import (
	"regexp"
	"strings"
)

// Default patterns for URL mode: any absolute http(s) URL, and its
// scheme+host prefix.
const (
	DefaultURLMatchPattern  = `https?://[^/\s"'<>]+[/a-zA-Z0-9]*`
	DefaultURLPrefixPattern = `^https?://[^/]+/`
)

// URLTargets replaces the scheme and host of URLs found by Match when the
// URL occurs in one of Targets.
type URLTargets struct {
	Match       *regexp.Regexp
	Prefix      *regexp.Regexp
	Targets     []string
	Replacement string
}

// NewURLTargets compiles the patterns; empty patterns select the defaults.
func NewURLTargets(targets []string, replacement, match, prefix string) (*URLTargets, error) {
	if match == "" {
		match = DefaultURLMatchPattern
	}
	if prefix == "" {
		prefix = DefaultURLPrefixPattern
	}
	m, err := compile("match url pattern", match)
	if err != nil {
		return nil, err
	}
	p, err := compile("replace url pattern", prefix)
	if err != nil {
		return nil, err
	}
	return &URLTargets{Match: m, Prefix: p, Targets: targets, Replacement: replacement}, nil
}

// Apply rewrites matched URLs that are contained in a target. A match that is
// selected counts as a modification even if the prefix swap is a no-op.
func (u *URLTargets) Apply(s string) (string, bool) {
	modified := false
	out := u.Match.ReplaceAllStringFunc(s, func(m string) string {
		if !u.targeted(m) {
			return m
		}
		modified = true
		// literal replacement: URLs may contain '$'
		return u.Prefix.ReplaceAllLiteralString(m, u.Replacement)
	})
	if !modified {
		return s, false
	}
	return out, true
}

func (u *URLTargets) targeted(m string) bool {
	for _, t := range u.Targets {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}

func (u *URLTargets) Fingerprint() string {
	parts := []string{"url-targets", u.Match.String(), u.Prefix.String(), u.Replacement}
	return fingerprint(append(parts, u.Targets...)...)
}
