package matcher

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/logsift/logsift/pkg/types"
)

// Matcher applies one compiled pattern to individual lines.
//
// The pattern is compiled once in New and reused for every line of every
// source. Patterns are compiled in regexp2's RE2 mode first, which accepts the
// syntax of Go's regexp package; if that fails the full Perl/.NET syntax is
// tried (lookarounds, backreferences, possessive groups).
//
// Thread Safety: a compiled regexp2.Regexp is safe for concurrent use, so a
// Matcher may be shared between goroutines.
type Matcher struct {
	pattern    string
	re         *regexp2.Regexp
	maxGroup   int      // highest capture group number
	groupNames []string // named groups only
	timeout    time.Duration
	now        func() time.Time
}

// ErrLineTimeout is returned by FindAll when a line's matches took longer than
// the match timeout in total.
var ErrLineTimeout = errors.New("line exceeded match timeout")

// New compiles pattern. A compile failure is reported as *types.PatternError.
func New(pattern string, opts Options) (*Matcher, error) {
	var flags regexp2.RegexOptions
	if opts.IgnoreCase {
		flags |= regexp2.IgnoreCase
	}

	// Try RE2 mode first (Go regexp compatible numbering and syntax)
	re, err := regexp2.Compile(pattern, flags|regexp2.RE2)
	if err != nil {
		// Fallback to default Perl-compatible mode for advanced features
		re, err = regexp2.Compile(pattern, flags)
		if err != nil {
			return nil, &types.PatternError{Pattern: pattern, Err: err}
		}
	}

	timeout := opts.MatchTimeout
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	re.MatchTimeout = timeout

	m := &Matcher{
		pattern: pattern,
		re:      re,
		timeout: timeout,
		now:     time.Now,
	}
	for _, n := range re.GetGroupNumbers() {
		if n > m.maxGroup {
			m.maxGroup = n
		}
	}
	for _, name := range re.GetGroupNames() {
		if isNumbered(name) {
			continue
		}
		m.groupNames = append(m.groupNames, name)
	}

	return m, nil
}

// Pattern returns the source pattern.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// GroupCount returns the highest capture group number. Group 0 (the whole
// match) always exists, so a pattern without groups returns 0.
func (m *Matcher) GroupCount() int {
	return m.maxGroup
}

// GroupNames returns the names of named capture groups.
func (m *Matcher) GroupNames() []string {
	out := make([]string, len(m.groupNames))
	copy(out, m.groupNames)
	return out
}

// GroupNumber resolves a group name to its number. Numeric strings are
// accepted as-is. Returns -1 when the group does not exist.
func (m *Matcher) GroupNumber(name string) int {
	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 || n > m.maxGroup {
			return -1
		}
		return n
	}
	return m.re.GroupNumberFromName(name)
}

// FindAll returns every non-overlapping match in line, left to right.
// Empty matches follow regexp2 (Perl/.NET) rules: after an empty match the
// search resumes one character further on, and an empty match directly after
// a non-empty one is reported too. The returned matches carry the 1-based
// lineNumber and the source identifier, and their values are byte-exact
// substrings of line.
//
// Each regex search is cut off after the match timeout, and once the line as a
// whole has run past it no further search is started; the matches found so
// far are returned with ErrLineTimeout.
func (m *Matcher) FindAll(source string, lineNumber int, line string) ([]*types.Match, error) {
	deadline := m.now().Add(m.timeout)
	text := newLineText(line)

	match, err := m.re.FindStringMatch(line)
	if err != nil {
		return nil, fmt.Errorf("matching line: %w", err)
	}

	var matches []*types.Match
	for match != nil {
		matches = append(matches, m.buildMatch(source, lineNumber, text, match))

		if m.now().After(deadline) {
			return matches, fmt.Errorf("matching line: %w", ErrLineTimeout)
		}
		match, err = m.re.FindNextMatch(match)
		if err != nil {
			return matches, fmt.Errorf("matching line: %w", err)
		}
	}

	return matches, nil
}

// MatchString reports whether line contains at least one match.
func (m *Matcher) MatchString(line string) (bool, error) {
	return m.re.MatchString(line)
}

// buildMatch converts a regexp2 match into a types.Match.
func (m *Matcher) buildMatch(source string, lineNumber int, text lineText, match *regexp2.Match) *types.Match {
	result := &types.Match{
		Source: source,
		Location: types.Location{
			Line: lineNumber,
			Offset: types.OffsetSpan{
				Start: match.Index,
				End:   match.Index + match.Length,
			},
		},
		FullValue: text.slice(match.Index, match.Length),
		Groups:    extractCaptureGroups(text, match, m.maxGroup),
	}
	if len(m.groupNames) > 0 {
		result.NamedGroups = extractNamedGroups(text, match, m.groupNames)
	}
	return result
}

// isNumbered reports whether a regexp2 group name is an implicit number.
func isNumbered(name string) bool {
	return name == "" || (name[0] >= '0' && name[0] <= '9')
}
