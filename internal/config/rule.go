package config

import (
	"fmt"
	"strings"

	"ilpatch/internal/rewrite"
)

// RuleMode tells which rewrite rule a configuration describes.
type RuleMode uint8

const (
	RuleNone RuleMode = iota
	RuleTwoStage
	RuleURL
)

// Mode reports which rule is configured. Two-stage settings win when both
// are present.
func (r RewriteConfig) Mode() RuleMode {
	switch {
	case r.MatchPattern != "" || r.ReplacePattern != "" || r.Replacement != "":
		return RuleTwoStage
	case len(r.TargetURLs) > 0 || r.ReplacementURL != "":
		return RuleURL
	}
	return RuleNone
}

// ValidateURL checks URL-mode settings.
func (r RewriteConfig) ValidateURL() error {
	if len(r.TargetURLs) == 0 {
		return fmt.Errorf("%w: %w: %s must be set and not empty", ErrInvalid, ErrMissing, EnvTargetURL)
	}
	if r.ReplacementURL == "" {
		return fmt.Errorf("%w: %w: %s must be set", ErrInvalid, ErrMissing, EnvReplacementURL)
	}
	if !strings.HasPrefix(r.ReplacementURL, "http") || !strings.HasSuffix(r.ReplacementURL, "/") {
		return fmt.Errorf("%w: %s must start with \"http\" and end with \"/\"", ErrInvalid, EnvReplacementURL)
	}
	return nil
}

// ValidateTwoStage checks that all three two-stage settings are present.
func (r RewriteConfig) ValidateTwoStage() error {
	var missing []string
	if r.MatchPattern == "" {
		missing = append(missing, "match_pattern")
	}
	if r.ReplacePattern == "" {
		missing = append(missing, "replace_pattern")
	}
	if r.Replacement == "" {
		missing = append(missing, "replacement")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %w: [rewrite] %s", ErrInvalid, ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

// Rule validates the configuration and builds the matching rewrite rule.
func (r RewriteConfig) Rule() (rewrite.Rule, error) {
	switch r.Mode() {
	case RuleTwoStage:
		if err := r.ValidateTwoStage(); err != nil {
			return nil, err
		}
		rule, err := rewrite.NewTwoStage(r.MatchPattern, r.ReplacePattern, r.Replacement)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		return rule, nil
	case RuleURL:
		return r.URLRule()
	}
	return nil, fmt.Errorf("%w: %w: no rewrite rule configured (set [rewrite] patterns or %s/%s)", ErrInvalid, ErrMissing, EnvTargetURL, EnvReplacementURL)
}

// URLRule builds the URL-mode rule, ignoring any two-stage settings.
func (r RewriteConfig) URLRule() (rewrite.Rule, error) {
	if err := r.ValidateURL(); err != nil {
		return nil, err
	}
	rule, err := rewrite.NewURLTargets(r.TargetURLs, r.ReplacementURL, r.MatchURLPattern, r.ReplaceURLPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return rule, nil
}
