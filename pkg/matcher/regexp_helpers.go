package matcher

import (
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/logsift/logsift/pkg/types"
)

// lineText maps regexp2's rune indexes back onto the original line so match
// values are byte-exact substrings, invalid UTF-8 included. regexp2 decodes
// each invalid byte as one U+FFFD rune.
type lineText struct {
	line    string
	offsets []int // byte offset of every rune plus len(line); nil for ASCII
}

func newLineText(line string) lineText {
	for i := 0; i < len(line); i++ {
		if line[i] < utf8.RuneSelf {
			continue
		}
		offsets := make([]int, 0, len(line)+1)
		for b := range line {
			offsets = append(offsets, b)
		}
		return lineText{line: line, offsets: append(offsets, len(line))}
	}
	return lineText{line: line}
}

// slice returns the bytes covered by n runes starting at rune index start.
func (t lineText) slice(start, n int) string {
	if t.offsets == nil {
		return t.line[start : start+n]
	}
	return t.line[t.offsets[start]:t.offsets[start+n]]
}

// extractCaptureGroups extracts positional capture groups 0..maxGroup from a
// regexp2 match. Groups that did not participate are left unmatched.
func extractCaptureGroups(text lineText, match *regexp2.Match, maxGroup int) []types.Group {
	groups := make([]types.Group, maxGroup+1)
	for i := 0; i <= maxGroup; i++ {
		groups[i] = groupValue(text, match.GroupByNumber(i))
	}
	return groups
}

// extractNamedGroups extracts named capture groups from a regexp2 match.
func extractNamedGroups(text lineText, match *regexp2.Match, groupNames []string) map[string]types.Group {
	namedGroups := make(map[string]types.Group, len(groupNames))
	for _, name := range groupNames {
		namedGroups[name] = groupValue(text, match.GroupByName(name))
	}
	return namedGroups
}

// groupValue returns the last capture of g.
func groupValue(text lineText, g *regexp2.Group) types.Group {
	if g == nil || len(g.Captures) == 0 {
		return types.Group{}
	}
	return types.Group{Value: text.slice(g.Index, g.Length), Matched: true}
}
