// Package accumulator collects match results under one of two policies.
//
// In append mode every match is kept in encounter order. In uniqueness mode
// matches are keyed by the string value of one capture group and only the
// first match seen for each key is kept; later matches with the same key are
// discarded even when their full text differs. The policy is fixed when the
// accumulator is created.
package accumulator

import (
	"fmt"

	"github.com/logsift/logsift/pkg/types"
)

// Mode controls how matches are accumulated.
type Mode int

const (
	// ModeAppend keeps every match, duplicates included.
	ModeAppend Mode = iota

	// ModeUnique keeps the first match per distinct capture group value.
	ModeUnique
)

// String returns the string representation of Mode
func (m Mode) String() string {
	switch m {
	case ModeAppend:
		return "append"
	case ModeUnique:
		return "unique"
	default:
		return "unknown"
	}
}

// key is the uniqueness key of a match. An absent group is a key of its own,
// distinct from a group that matched the empty string.
type key struct {
	value   string
	matched bool
}

// Accumulator holds the growing result set of one scan.
//
// Thread Safety: Accumulator is NOT safe for concurrent use. Callers that
// produce matches concurrently must funnel Add through a single goroutine,
// in the order that defines "first seen".
type Accumulator struct {
	mode      Mode
	group     int
	seen      map[key]struct{}
	results   []*types.Match
	discarded int64
}

// New creates an accumulator. A nil uniqueGroup selects append mode; otherwise
// matches are de-duplicated on that capture group.
func New(uniqueGroup *int) (*Accumulator, error) {
	if uniqueGroup == nil {
		return &Accumulator{mode: ModeAppend}, nil
	}
	if *uniqueGroup < 0 {
		return nil, &types.ConfigurationError{
			Field:  "unique group",
			Reason: fmt.Sprintf("index %d is negative", *uniqueGroup),
		}
	}
	return &Accumulator{
		mode:  ModeUnique,
		group: *uniqueGroup,
		seen:  make(map[key]struct{}),
	}, nil
}

// Mode returns the accumulation policy.
func (a *Accumulator) Mode() Mode {
	return a.mode
}

// Group returns the capture group used as the uniqueness key, or -1 in
// append mode.
func (a *Accumulator) Group() int {
	if a.mode != ModeUnique {
		return -1
	}
	return a.group
}

// Add records matches in order.
func (a *Accumulator) Add(matches ...*types.Match) {
	if a.mode == ModeAppend {
		a.results = append(a.results, matches...)
		return
	}

	for _, m := range matches {
		k := a.computeKey(m)
		if _, dup := a.seen[k]; dup {
			a.discarded++
			continue
		}
		a.seen[k] = struct{}{}
		a.results = append(a.results, m)
	}
}

// Results returns a copy of the accumulated matches in first-seen order.
func (a *Accumulator) Results() []*types.Match {
	out := make([]*types.Match, len(a.results))
	copy(out, a.results)
	return out
}

// Len returns the number of retained matches.
func (a *Accumulator) Len() int {
	return len(a.results)
}

// Discarded returns how many duplicates uniqueness mode has dropped.
func (a *Accumulator) Discarded() int64 {
	return a.discarded
}

// computeKey extracts the uniqueness key from a match.
func (a *Accumulator) computeKey(m *types.Match) key {
	value, matched := m.Group(a.group)
	if !matched {
		return key{}
	}
	return key{value: value, matched: true}
}
