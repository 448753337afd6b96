// Package sarif renders scans as SARIF 2.1.0 logs so that match locations
// can be loaded into code-scanning viewers.
package sarif

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/logsift/logsift/pkg/types"
)

// SARIF 2.1.0 constants
const (
	SchemaURI   = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version     = "2.1.0"
	ToolName    = "logsift"
	ToolVersion = "0.1.0"
)

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool
type Run struct {
	Tool        Tool         `json:"tool"`
	Invocations []Invocation `json:"invocations,omitempty"`
	Results     []Result     `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule describes the pattern a run searched for
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ShortDescription ShortDescription `json:"shortDescription"`
}

// ShortDescription contains rule description text
type ShortDescription struct {
	Text string `json:"text"`
}

// Invocation reports whether the run completed and which sources failed
type Invocation struct {
	ExecutionSuccessful        bool           `json:"executionSuccessful"`
	ToolExecutionNotifications []Notification `json:"toolExecutionNotifications,omitempty"`
}

// Notification is a source error raised during the run
type Notification struct {
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations,omitempty"`
}

// Result represents a single match
type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
}

// Message contains the result message
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           *Region          `json:"region,omitempty"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region specifies the line/column range. Columns are 1-based and count
// characters; EndColumn is exclusive.
type Region struct {
	StartLine   int      `json:"startLine"`
	StartColumn int      `json:"startColumn,omitempty"`
	EndLine     int      `json:"endLine,omitempty"`
	EndColumn   int      `json:"endColumn,omitempty"`
	Snippet     *Snippet `json:"snippet,omitempty"`
}

// Snippet contains the matched text
type Snippet struct {
	Text string `json:"text"`
}

// NewReport creates a new SARIF report with initialized structure
func NewReport() *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: ToolVersion,
						Rules:   []Rule{},
					},
				},
				Results: []Result{},
			},
		},
	}
}

// FromRecord builds a report with one rule for the scan's pattern and one
// result per retained match. Source errors become invocation notifications.
func FromRecord(rec *types.ScanRecord) *Report {
	r := NewReport()
	ruleID := r.AddPattern(rec.Pattern)

	group := -1
	if rec.UniqueGroup != nil {
		group = *rec.UniqueGroup
	}
	for _, m := range rec.Matches {
		r.AddResult(ruleID, m, group)
	}

	inv := Invocation{ExecutionSuccessful: len(rec.Errors) == 0}
	for _, e := range rec.Errors {
		n := Notification{
			Level:   "error",
			Message: Message{Text: e.Err.Error()},
			Locations: []Location{{PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: formatFileURI(e.Source)},
			}}},
		}
		if e.Line > 0 {
			n.Locations[0].PhysicalLocation.Region = &Region{StartLine: e.Line}
		}
		inv.ToolExecutionNotifications = append(inv.ToolExecutionNotifications, n)
	}
	r.Runs[0].Invocations = []Invocation{inv}

	return r
}

// AddPattern registers the scanned pattern as a rule and returns its ID.
func (r *Report) AddPattern(pattern string) string {
	id := "logsift." + types.ComputeStructuralID(pattern)[:12]
	r.Runs[0].Tool.Driver.Rules = append(r.Runs[0].Tool.Driver.Rules, Rule{
		ID:               id,
		Name:             "pattern",
		ShortDescription: ShortDescription{Text: pattern},
	})
	return id
}

// AddResult adds a match. When group is a valid capture group, the message
// carries that group's value; otherwise the full match.
func (r *Report) AddResult(ruleID string, match *types.Match, group int) {
	text := match.FullValue
	if group > 0 {
		if v, ok := match.Group(group); ok {
			text = v
		}
	}

	region := &Region{
		StartLine:   match.Location.Line,
		StartColumn: match.Location.Offset.Start + 1,
		EndLine:     match.Location.Line,
		EndColumn:   match.Location.Offset.End + 1,
		Snippet:     &Snippet{Text: match.FullValue},
	}

	result := Result{
		RuleID:  ruleID,
		Level:   "note",
		Message: Message{Text: text},
		Locations: []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{
						URI: formatFileURI(match.Source),
					},
					Region: region,
				},
			},
		},
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// formatFileURI converts a file path to SARIF URI format
// Absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		path = filepath.ToSlash(path)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	return filepath.ToSlash(path)
}
