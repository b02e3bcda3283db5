package rewrite

import "regexp"

// TwoStage applies Replace/Replacement only inside spans matched by Match.
// Replacement uses regexp template syntax ($1, ${name}).
type TwoStage struct {
	Match       *regexp.Regexp
	Replace     *regexp.Regexp
	Replacement string
}

// NewTwoStage compiles both patterns.
func NewTwoStage(match, replace, replacement string) (*TwoStage, error) {
	m, err := compile("match pattern", match)
	if err != nil {
		return nil, err
	}
	r, err := compile("replace pattern", replace)
	if err != nil {
		return nil, err
	}
	return &TwoStage{Match: m, Replace: r, Replacement: replacement}, nil
}

// Apply rewrites every span of s matched by Match. It reports true only if
// at least one span actually changed.
func (t *TwoStage) Apply(s string) (string, bool) {
	changed := false
	out := t.Match.ReplaceAllStringFunc(s, func(span string) string {
		replaced := t.Replace.ReplaceAllString(span, t.Replacement)
		if replaced != span {
			changed = true
		}
		return replaced
	})
	if !changed {
		return s, false
	}
	return out, true
}

func (t *TwoStage) Fingerprint() string {
	return fingerprint("two-stage", t.Match.String(), t.Replace.String(), t.Replacement)
}
