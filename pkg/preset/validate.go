package preset

import (
	"fmt"

	"github.com/logsift/logsift/pkg/matcher"
	"github.com/logsift/logsift/pkg/prefilter"
	"github.com/logsift/logsift/pkg/types"
)

// Validate checks preset consistency and required fields, then runs the
// preset's examples through the same matcher a scan would use: every example
// must match and no negative example may.
func Validate(p *types.Preset) error {
	if p == nil {
		return fmt.Errorf("preset is nil")
	}

	// Check required fields
	if p.ID == "" {
		return fmt.Errorf("preset ID is required")
	}
	if p.Name == "" {
		return fmt.Errorf("preset %s: name is required", p.ID)
	}
	if p.Pattern == "" {
		return fmt.Errorf("preset %s: pattern is required", p.ID)
	}

	m, err := matcher.New(p.Pattern, matcher.DefaultOptions())
	if err != nil {
		return fmt.Errorf("preset %s: %w", p.ID, err)
	}

	if p.UniqueGroup != nil {
		if *p.UniqueGroup < 0 || *p.UniqueGroup > m.GroupCount() {
			return fmt.Errorf("preset %s: unique group %d outside 0..%d", p.ID, *p.UniqueGroup, m.GroupCount())
		}
	}

	// Validate StructuralID matches computed value
	expectedID := p.ComputeStructuralID()
	if p.StructuralID != "" && p.StructuralID != expectedID {
		return fmt.Errorf("preset %s has inconsistent StructuralID: got %s, expected %s",
			p.ID, p.StructuralID, expectedID)
	}

	pf := prefilter.New(p.Keywords, false)
	for _, example := range p.Examples {
		ok, err := m.MatchString(example)
		if err != nil {
			return fmt.Errorf("preset %s: example %q: %w", p.ID, example, err)
		}
		if !ok {
			return fmt.Errorf("preset %s: example %q does not match", p.ID, example)
		}
		if !pf.MayMatch([]byte(example)) {
			return fmt.Errorf("preset %s: example %q contains none of the keywords", p.ID, example)
		}
	}
	for _, example := range p.NegativeExamples {
		ok, err := m.MatchString(example)
		if err != nil {
			return fmt.Errorf("preset %s: negative example %q: %w", p.ID, example, err)
		}
		if ok {
			return fmt.Errorf("preset %s: negative example %q matches", p.ID, example)
		}
	}

	return nil
}

// ValidateAll validates every preset and rejects duplicate IDs.
func ValidateAll(presets []*types.Preset) error {
	seen := make(map[string]bool)
	for _, p := range presets {
		if err := Validate(p); err != nil {
			return err
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate preset ID: %s", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
