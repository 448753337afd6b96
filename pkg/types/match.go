package types

import (
	"encoding/json"
)

// Group is a single capture group value.
// Matched is false when the group did not participate in the match, which is
// distinct from a group that matched the empty string.
type Group struct {
	Value   string
	Matched bool
}

// MarshalJSON encodes an unmatched group as null.
func (g Group) MarshalJSON() ([]byte, error) {
	if !g.Matched {
		return []byte("null"), nil
	}
	return json.Marshal(g.Value)
}

// UnmarshalJSON decodes null as an unmatched group.
func (g *Group) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = Group{}
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*g = Group{Value: v, Matched: true}
	return nil
}

// Match is a single regex match occurrence on one line of one source.
type Match struct {
	Source      string           `json:"source"`
	Location    Location         `json:"location"`
	FullValue   string           `json:"full_value"`
	Groups      []Group          `json:"groups"`                 // index 0 is the whole match
	NamedGroups map[string]Group `json:"named_groups,omitempty"` // named captures, by name
}

// Group returns capture group i and whether it participated in the match.
// Out-of-range indexes report false.
func (m *Match) Group(i int) (string, bool) {
	if i < 0 || i >= len(m.Groups) {
		return "", false
	}
	g := m.Groups[i]
	return g.Value, g.Matched
}

// Values returns the group values as a string slice, with unmatched groups
// rendered as the empty string.
func (m *Match) Values() []string {
	out := make([]string, len(m.Groups))
	for i, g := range m.Groups {
		out[i] = g.Value
	}
	return out
}
