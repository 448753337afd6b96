package preset

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/logsift/logsift/pkg/types"
)

// FilterConfig specifies include and exclude patterns for preset filtering.
type FilterConfig struct {
	Include []string // Regex patterns - only matching presets included
	Exclude []string // Regex patterns - matching presets excluded
}

// ParsePatterns splits a comma-separated string into individual patterns.
// Patterns are trimmed of whitespace.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include and exclude patterns to preset IDs.
// Include is applied first, then exclude. Empty include means "include all".
func Filter(presets []*types.Preset, config FilterConfig) ([]*types.Preset, error) {
	if len(presets) == 0 {
		return presets, nil
	}

	include, err := compileAll(config.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileAll(config.Exclude)
	if err != nil {
		return nil, err
	}

	result := make([]*types.Preset, 0, len(presets))
	for _, p := range presets {
		if len(include) > 0 && !matchesAny(p.ID, include) {
			continue
		}
		if matchesAny(p.ID, exclude) {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func compileAll(patterns []string) ([]*regexp2.Regexp, error) {
	var out []*regexp2.Regexp
	for _, pattern := range patterns {
		re, err := regexp2.Compile(pattern, regexp2.RE2)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchesAny(id string, regexes []*regexp2.Regexp) bool {
	for _, re := range regexes {
		if ok, _ := re.MatchString(id); ok {
			return true
		}
	}
	return false
}
