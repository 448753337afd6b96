package sarif

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift/logsift/pkg/types"
)

func ipMatch(source string, line int, addr string) *types.Match {
	full := "ip=" + addr
	return &types.Match{
		Source:    source,
		FullValue: full,
		Groups: []types.Group{
			{Value: full, Matched: true},
			{Value: addr, Matched: true},
		},
		Location: types.Location{Line: line, Offset: types.OffsetSpan{Start: 4, End: 4 + len([]rune(full))}},
	}
}

func TestNewReport(t *testing.T) {
	report := NewReport()

	assert.Equal(t, SchemaURI, report.Schema)
	assert.Equal(t, Version, report.Version)
	assert.Len(t, report.Runs, 1)
	assert.Equal(t, ToolName, report.Runs[0].Tool.Driver.Name)
	assert.Equal(t, ToolVersion, report.Runs[0].Tool.Driver.Version)
}

func TestAddPattern(t *testing.T) {
	report := NewReport()

	id := report.AddPattern(`ip=(\d+)`)

	require.Len(t, report.Runs[0].Tool.Driver.Rules, 1)
	rule := report.Runs[0].Tool.Driver.Rules[0]
	assert.Equal(t, id, rule.ID)
	assert.Equal(t, `ip=(\d+)`, rule.ShortDescription.Text)
	assert.Equal(t, id, report.AddPattern(`ip=(?P<n>\d+)`), "named groups do not change the rule ID")
}

func TestAddResult(t *testing.T) {
	report := NewReport()
	id := report.AddPattern(`ip=([\d.]+)`)

	report.AddResult(id, ipMatch("logs/app.log", 10, "10.0.0.1"), 1)

	require.Len(t, report.Runs[0].Results, 1)
	result := report.Runs[0].Results[0]
	assert.Equal(t, id, result.RuleID)
	assert.Equal(t, "note", result.Level)
	assert.Equal(t, "10.0.0.1", result.Message.Text)

	loc := result.Locations[0].PhysicalLocation
	assert.Equal(t, "logs/app.log", loc.ArtifactLocation.URI)
	assert.Equal(t, 10, loc.Region.StartLine)
	assert.Equal(t, 5, loc.Region.StartColumn)
	assert.Equal(t, 19, loc.Region.EndColumn)
	assert.Equal(t, "ip=10.0.0.1", loc.Region.Snippet.Text)
}

func TestAddResult_NoGroupUsesFullValue(t *testing.T) {
	report := NewReport()
	report.AddResult("r", ipMatch("a.log", 1, "10.0.0.1"), -1)

	assert.Equal(t, "ip=10.0.0.1", report.Runs[0].Results[0].Message.Text)
}

func TestFromRecord(t *testing.T) {
	group := 1
	rec := &types.ScanRecord{
		Pattern:     `ip=([\d.]+)`,
		UniqueGroup: &group,
		Matches:     []*types.Match{ipMatch("/var/log/a.log", 1, "10.0.0.1"), ipMatch("/var/log/a.log", 3, "10.0.0.2")},
		Errors: []*types.SourceError{
			{Source: "missing.log", Err: errors.New("no such file")},
			{Source: "slow.log", Line: 7, Err: errors.New("match timeout")},
		},
	}

	report := FromRecord(rec)

	run := report.Runs[0]
	require.Len(t, run.Results, 2)
	assert.Equal(t, "10.0.0.2", run.Results[1].Message.Text)
	assert.Equal(t, "file:///var/log/a.log", run.Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)

	require.Len(t, run.Invocations, 1)
	inv := run.Invocations[0]
	assert.False(t, inv.ExecutionSuccessful)
	require.Len(t, inv.ToolExecutionNotifications, 2)
	assert.Nil(t, inv.ToolExecutionNotifications[0].Locations[0].PhysicalLocation.Region)
	assert.Equal(t, 7, inv.ToolExecutionNotifications[1].Locations[0].PhysicalLocation.Region.StartLine)
}

func TestToJSON(t *testing.T) {
	report := FromRecord(&types.ScanRecord{Pattern: "x"})

	data, err := report.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, SchemaURI, decoded["$schema"])
	assert.Equal(t, "2.1.0", decoded["version"])

	runs := decoded["runs"].([]any)
	run := runs[0].(map[string]any)
	assert.Equal(t, []any{}, run["results"])
}

func TestFormatFileURI(t *testing.T) {
	assert.Equal(t, "file:///var/log/a.log", formatFileURI("/var/log/a.log"))
	assert.Equal(t, "logs/a.log", formatFileURI("logs/a.log"))
	assert.Equal(t, "-", formatFileURI("-"))
}
