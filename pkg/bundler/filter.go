package bundler

import (
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"
)

// newExcludeMatcher compiles exclude patterns. It returns nil when there is
// nothing to exclude.
func newExcludeMatcher(patterns []string) (*pathrules.Matcher, error) {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		rules = append(rules, pathrules.Rule{
			Action:  pathrules.ActionExclude,
			Pattern: pattern,
		})
	}
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		DefaultAction: pathrules.ActionInclude,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: exclude patterns: %w", ErrInvalidOptions, err)
	}
	return matcher, nil
}
