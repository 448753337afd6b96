package explore

import (
	"sort"

	"github.com/logsift/logsift/pkg/types"
)

// facetID identifies a facet category.
type facetID int

const (
	facetSource facetID = iota
	facetOccurrences
)

// facetDef defines a facet category.
type facetDef struct {
	ID    facetID
	Label string
}

var facetDefs = []facetDef{
	{facetSource, "Source"},
	{facetOccurrences, "Occurrences"},
}

// facetValue is a single selectable value within a facet.
type facetValue struct {
	FacetID  facetID
	Value    string
	Count    int
	Selected bool
}

// facetState holds the complete filter state.
type facetState struct {
	Values map[facetID][]*facetValue
}

func newFacetState() *facetState {
	return &facetState{
		Values: make(map[facetID][]*facetValue),
	}
}

// valueRow is one distinct key value and every match that carried it.
type valueRow struct {
	Value     string
	Unmatched bool // the key group did not participate
	First     int  // index of the first match in scan order
	Sources   []string
	Matches   []*types.Match
}

func (r *valueRow) addSource(src string) {
	for _, s := range r.Sources {
		if s == src {
			return
		}
	}
	r.Sources = append(r.Sources, src)
}

// label is the row's display value.
func (r *valueRow) label() string {
	if r.Unmatched {
		return "(unmatched)"
	}
	return r.Value
}

// occurrenceBucket places a match count into a coarse range.
func occurrenceBucket(n int) string {
	switch {
	case n <= 1:
		return "1"
	case n < 10:
		return "2-9"
	case n < 100:
		return "10-99"
	default:
		return "100+"
	}
}

// buildFacets builds facet values from value rows.
func buildFacets(rows []*valueRow) *facetState {
	fs := newFacetState()

	sources := make(map[string]int)
	buckets := make(map[string]int)
	for _, r := range rows {
		for _, s := range r.Sources {
			sources[s]++
		}
		buckets[occurrenceBucket(len(r.Matches))]++
	}

	fs.Values[facetSource] = mapToFacetValues(facetSource, sources)
	fs.Values[facetOccurrences] = mapToFacetValues(facetOccurrences, buckets)
	sort.SliceStable(fs.Values[facetOccurrences], func(i, j int) bool {
		return bucketOrder(fs.Values[facetOccurrences][i].Value) < bucketOrder(fs.Values[facetOccurrences][j].Value)
	})

	return fs
}

func bucketOrder(b string) int {
	switch b {
	case "1":
		return 0
	case "2-9":
		return 1
	case "10-99":
		return 2
	default:
		return 3
	}
}

func mapToFacetValues(id facetID, counts map[string]int) []*facetValue {
	values := make([]*facetValue, 0, len(counts))
	for v, c := range counts {
		values = append(values, &facetValue{FacetID: id, Value: v, Count: c})
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].Value < values[j].Value
	})
	return values
}

// selectedValues returns the set of selected values for a facet.
func (fs *facetState) selectedValues(id facetID) map[string]bool {
	selected := make(map[string]bool)
	for _, v := range fs.Values[id] {
		if v.Selected {
			selected[v.Value] = true
		}
	}
	return selected
}

// hasActiveFilters returns true if any facet has selections.
func (fs *facetState) hasActiveFilters() bool {
	for _, values := range fs.Values {
		for _, v := range values {
			if v.Selected {
				return true
			}
		}
	}
	return false
}

// resetAll deselects all facet values.
func (fs *facetState) resetAll() {
	for _, values := range fs.Values {
		for _, v := range values {
			v.Selected = false
		}
	}
}

// matchesRow returns true if a row passes all active filters.
// Within a facet: OR (union). Across facets: AND (intersection).
func (fs *facetState) matchesRow(r *valueRow) bool {
	for _, def := range facetDefs {
		selected := fs.selectedValues(def.ID)
		if len(selected) == 0 {
			continue
		}

		switch def.ID {
		case facetSource:
			found := false
			for _, s := range r.Sources {
				if selected[s] {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case facetOccurrences:
			if !selected[occurrenceBucket(len(r.Matches))] {
				return false
			}
		}
	}
	return true
}

// updateCounts recounts facet values over the rows that pass the filters.
func (fs *facetState) updateCounts(rows []*valueRow) {
	for _, values := range fs.Values {
		for _, v := range values {
			v.Count = 0
		}
	}

	for _, r := range rows {
		if !fs.matchesRow(r) {
			continue
		}
		for _, v := range fs.Values[facetSource] {
			for _, s := range r.Sources {
				if v.Value == s {
					v.Count++
					break
				}
			}
		}
		bucket := occurrenceBucket(len(r.Matches))
		for _, v := range fs.Values[facetOccurrences] {
			if v.Value == bucket {
				v.Count++
			}
		}
	}
}
