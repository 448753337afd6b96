package types

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
)

// Preset is a named pattern with its default uniqueness group.
type Preset struct {
	ID               string   `json:"id"`   // e.g., "ipv4"
	Name             string   `json:"name"` // human-readable name
	Pattern          string   `json:"pattern"`
	UniqueGroup      *int     `json:"unique_group,omitempty"` // nil keeps every match
	StructuralID     string   `json:"structural_id"`          // SHA-1 of pattern (computed)
	Description      string   `json:"description,omitempty"`
	Examples         []string `json:"examples,omitempty"`          // lines that must match
	NegativeExamples []string `json:"negative_examples,omitempty"` // lines that must not match
	Keywords         []string `json:"keywords,omitempty"`          // keywords for Aho-Corasick prefiltering
}

// namedGroupRe matches named capture groups like (?P<name>...) or (?<name>...)
// so they hash the same as plain groups.
var namedGroupRe = regexp.MustCompile(`\(\?P?<[^>]+>`)

// ComputeStructuralID computes SHA-1 of the pattern, normalizing named capture
// groups to unnamed groups.
func ComputeStructuralID(pattern string) string {
	normalized := namedGroupRe.ReplaceAllString(pattern, "(")
	h := sha1.New()
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeStructuralID computes the structural ID of the preset pattern.
func (p *Preset) ComputeStructuralID() string {
	return ComputeStructuralID(p.Pattern)
}
