package prefilter

import (
	"bytes"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// Prefilter uses Aho-Corasick to reject lines that contain none of a set of
// keywords before they reach the regex engine.
//
// The keywords must be literal substrings that every match of the pattern
// contains; a line without any of them cannot match and is skipped.
type Prefilter struct {
	mu       sync.Mutex // ahocorasick.Matcher is not safe for concurrent use
	matcher  *ahocorasick.Matcher
	keywords []string
	foldCase bool
}

// New creates a prefilter from keywords. Empty keywords are ignored; with no
// keywords left every line passes. When foldCase is set keywords and lines are
// compared case-insensitively.
func New(keywords []string, foldCase bool) *Prefilter {
	pf := &Prefilter{foldCase: foldCase}

	seen := make(map[string]bool)
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if foldCase {
			keyword = strings.ToLower(keyword)
		}
		if !seen[keyword] {
			seen[keyword] = true
			pf.keywords = append(pf.keywords, keyword)
		}
	}

	// Build Aho-Corasick matcher if we have keywords
	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Enabled reports whether the prefilter rejects anything at all.
func (pf *Prefilter) Enabled() bool {
	return pf != nil && pf.matcher != nil
}

// Keywords returns the effective keyword set.
func (pf *Prefilter) Keywords() []string {
	if pf == nil {
		return nil
	}
	out := make([]string, len(pf.keywords))
	copy(out, pf.keywords)
	return out
}

// MayMatch reports whether line contains at least one keyword.
func (pf *Prefilter) MayMatch(line []byte) bool {
	if !pf.Enabled() {
		return true
	}
	if pf.foldCase {
		line = bytes.ToLower(line)
	}
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return len(pf.matcher.Match(line)) > 0
}
