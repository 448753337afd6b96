// Package report renders scan results for people and for other programs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/logsift/logsift/pkg/sarif"
	"github.com/logsift/logsift/pkg/types"
)

// Format selects an output rendering.
type Format string

const (
	FormatHuman  Format = "human"  // one colored line per match
	FormatJSON   Format = "json"   // a single JSON document
	FormatJSONL  Format = "jsonl"  // one JSON match per line
	FormatValues Format = "values" // the key value of each match, one per line
	FormatTable  Format = "table"  // per-source summary table
	FormatSARIF  Format = "sarif"  // SARIF 2.1.0 log
)

// Formats lists every supported format.
var Formats = []Format{FormatHuman, FormatJSON, FormatJSONL, FormatValues, FormatTable, FormatSARIF}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unknown output format %q (want one of %s)", s, strings.Join(names, ", "))
}

// Options tunes rendering.
type Options struct {
	// Color enables ANSI colors in human output.
	Color bool
}

// Write renders a scan record in the given format.
func Write(w io.Writer, format Format, rec *types.ScanRecord, opts Options) error {
	switch format {
	case FormatHuman:
		return writeHuman(w, rec, newStyles(opts.Color))
	case FormatJSON:
		return writeJSON(w, rec)
	case FormatJSONL:
		return writeJSONL(w, rec.Matches)
	case FormatValues:
		return writeValues(w, rec)
	case FormatTable:
		return WriteSummary(w, rec.Stats)
	case FormatSARIF:
		return writeSARIF(w, rec)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// ColorEnabled resolves a color mode ("auto", "always", "never") for f.
// In auto mode color is used only on a terminal and when NO_COLOR is unset.
func ColorEnabled(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		return f != nil && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == ""
	}
}

// styles holds color formatters for human output
type styles struct {
	source   *color.Color
	position *color.Color
	match    *color.Color
	key      *color.Color
	dim      *color.Color
}

// newStyles creates color formatters; enabled=false yields plain text.
func newStyles(enabled bool) *styles {
	s := &styles{
		source:   color.New(color.FgHiBlue),
		position: color.New(color.FgHiGreen),
		match:    color.New(color.FgYellow),
		key:      color.New(color.Bold, color.FgHiYellow),
		dim:      color.New(color.Faint),
	}

	for _, c := range []*color.Color{s.source, s.position, s.match, s.key, s.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// keyGroup returns the group a record's matches are keyed on, or -1.
func keyGroup(rec *types.ScanRecord) int {
	if rec.UniqueGroup == nil {
		return -1
	}
	return *rec.UniqueGroup
}

// keyValue returns the value a match is identified by: its unique group when
// one is set, its full text otherwise.
func keyValue(m *types.Match, group int) (string, bool) {
	if group < 0 {
		return m.FullValue, true
	}
	return m.Group(group)
}

func writeHuman(w io.Writer, rec *types.ScanRecord, s *styles) error {
	group := keyGroup(rec)
	for _, m := range rec.Matches {
		line := fmt.Sprintf("%s:%s %s",
			s.source.Sprint(m.Source),
			s.position.Sprintf("%d:%d", m.Location.Line, m.Location.Column()),
			s.match.Sprint(m.FullValue))

		if group > 0 {
			if v, ok := m.Group(group); ok {
				line += " " + s.dim.Sprintf("[%d=", group) + s.key.Sprint(v) + s.dim.Sprint("]")
			} else {
				line += " " + s.dim.Sprintf("[%d unmatched]", group)
			}
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// jsonError is a source error as rendered in JSON output.
type jsonError struct {
	Source string `json:"source"`
	Line   int    `json:"line,omitempty"`
	Error  string `json:"error"`
}

// jsonReport is the document written by the json format.
type jsonReport struct {
	ID          int64           `json:"id,omitempty"`
	Pattern     string          `json:"pattern"`
	UniqueGroup *int            `json:"unique_group"`
	Matches     []*types.Match  `json:"matches"`
	Errors      []jsonError     `json:"errors"`
	Stats       types.ScanStats `json:"stats"`
}

func writeJSON(w io.Writer, rec *types.ScanRecord) error {
	doc := jsonReport{
		ID:          rec.ID,
		Pattern:     rec.Pattern,
		UniqueGroup: rec.UniqueGroup,
		Matches:     rec.Matches,
		Errors:      make([]jsonError, 0, len(rec.Errors)),
		Stats:       rec.Stats,
	}
	if doc.Matches == nil {
		doc.Matches = []*types.Match{}
	}
	for _, e := range rec.Errors {
		je := jsonError{Source: e.Source, Line: e.Line}
		if e.Err != nil {
			je.Error = e.Err.Error()
		}
		doc.Errors = append(doc.Errors, je)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func writeJSONL(w io.Writer, matches []*types.Match) error {
	encoder := json.NewEncoder(w)
	for _, m := range matches {
		if err := encoder.Encode(m); err != nil {
			return err
		}
	}
	return nil
}

func writeValues(w io.Writer, rec *types.ScanRecord) error {
	group := keyGroup(rec)
	for _, m := range rec.Matches {
		v, _ := keyValue(m, group)
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}

func writeSARIF(w io.Writer, rec *types.ScanRecord) error {
	data, err := sarif.FromRecord(rec).ToJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
