package types

// OffsetSpan is a character range [Start, End) within a line - half-open interval.
// Offsets count runes, not bytes.
type OffsetSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Location is where a match was found within a source.
type Location struct {
	Line   int        `json:"line"` // 1-based
	Offset OffsetSpan `json:"offset"`
}

// Column returns the 1-based column of the match start.
func (l Location) Column() int {
	return l.Offset.Start + 1
}
