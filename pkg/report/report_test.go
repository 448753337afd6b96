package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift/logsift/pkg/types"
)

func intPtr(i int) *int { return &i }

func ipMatch(line int, ip string) *types.Match {
	full := "ip=" + ip
	return &types.Match{
		Source:    "access.log",
		Location:  types.Location{Line: line, Offset: types.OffsetSpan{Start: 0, End: len(full)}},
		FullValue: full,
		Groups:    []types.Group{{Value: full, Matched: true}, {Value: ip, Matched: true}},
	}
}

func sampleRecord() *types.ScanRecord {
	return &types.ScanRecord{
		Pattern:     `ip=(\d+\.\d+\.\d+\.\d+)`,
		UniqueGroup: intPtr(1),
		Matches:     []*types.Match{ipMatch(1, "10.0.0.1"), ipMatch(3, "10.0.0.2")},
		Errors:      []*types.SourceError{{Source: "missing.log", Err: errors.New("file does not exist")}},
		Stats: types.ScanStats{
			Sources: []types.SourceStats{
				{Source: "access.log", Lines: 3, Matches: 3, Bytes: 2048, Fingerprint: "0123456789abcdef", Duration: 1500 * time.Microsecond},
				{Source: "missing.log", Failed: true},
			},
			Lines:     3,
			Matches:   3,
			Retained:  2,
			Discarded: 1,
			Duration:  2 * time.Millisecond,
		},
	}
}

func render(t *testing.T, format Format, rec *types.ScanRecord) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, format, rec, Options{}))
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jsonl")
}

func TestWrite_Human(t *testing.T) {
	out := render(t, FormatHuman, sampleRecord())

	assert.Equal(t,
		"access.log:1:1 ip=10.0.0.1 [1=10.0.0.1]\n"+
			"access.log:3:1 ip=10.0.0.2 [1=10.0.0.2]\n",
		out)
}

func TestWrite_HumanAppendMode(t *testing.T) {
	rec := sampleRecord()
	rec.UniqueGroup = nil

	out := render(t, FormatHuman, rec)
	assert.Equal(t, "access.log:1:1 ip=10.0.0.1\naccess.log:3:1 ip=10.0.0.2\n", out)
}

func TestWrite_HumanColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatHuman, sampleRecord(), Options{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "10.0.0.2")
}

func TestWrite_JSON(t *testing.T) {
	out := render(t, FormatJSON, sampleRecord())

	var doc struct {
		Pattern     string `json:"pattern"`
		UniqueGroup *int   `json:"unique_group"`
		Matches     []struct {
			FullValue string    `json:"full_value"`
			Groups    []*string `json:"groups"`
		} `json:"matches"`
		Errors []struct {
			Source string `json:"source"`
			Error  string `json:"error"`
		} `json:"errors"`
		Stats struct {
			Retained  int   `json:"retained"`
			Discarded int64 `json:"discarded"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, 1, *doc.UniqueGroup)
	require.Len(t, doc.Matches, 2)
	assert.Equal(t, "10.0.0.2", *doc.Matches[1].Groups[1])
	require.Len(t, doc.Errors, 1)
	assert.Equal(t, "missing.log", doc.Errors[0].Source)
	assert.Equal(t, 2, doc.Stats.Retained)
	assert.Equal(t, int64(1), doc.Stats.Discarded)
}

func TestWrite_JSONEmpty(t *testing.T) {
	out := render(t, FormatJSON, &types.ScanRecord{Pattern: "x"})
	assert.Contains(t, out, `"matches": []`)
	assert.Contains(t, out, `"errors": []`)
	assert.Contains(t, out, `"unique_group": null`)
}

func TestWrite_JSONL(t *testing.T) {
	out := render(t, FormatJSONL, sampleRecord())

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var m types.Match
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &m))
	assert.Equal(t, *ipMatch(1, "10.0.0.1"), m)
}

func TestWrite_Values(t *testing.T) {
	rec := sampleRecord()
	assert.Equal(t, "10.0.0.1\n10.0.0.2\n", render(t, FormatValues, rec))

	rec.UniqueGroup = nil
	assert.Equal(t, "ip=10.0.0.1\nip=10.0.0.2\n", render(t, FormatValues, rec))
}

func TestWrite_Table(t *testing.T) {
	out := render(t, FormatTable, sampleRecord())

	assert.Contains(t, out, "access.log")
	assert.Contains(t, out, "2.0 kB")
	assert.Contains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "3 lines, 3 matches, 2 retained, 1 discarded")
}

func TestWriteScans(t *testing.T) {
	rec := sampleRecord()
	rec.ID = 7
	rec.StartedAt = time.Now()

	var buf bytes.Buffer
	require.NoError(t, WriteScans(&buf, []*types.ScanRecord{rec}))
	assert.Contains(t, buf.String(), "7")
	assert.Contains(t, buf.String(), `ip=(\d+\.\d+\.\d+\.\d+)`)
}

func TestWritePresets(t *testing.T) {
	var buf bytes.Buffer
	err := WritePresets(&buf, []*types.Preset{{ID: "ipv4", Name: "IPv4 address", UniqueGroup: intPtr(1)}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ipv4")
	assert.Contains(t, buf.String(), "IPv4 address")
}

func TestColorEnabled(t *testing.T) {
	assert.True(t, ColorEnabled("always", nil))
	assert.False(t, ColorEnabled("never", nil))
	assert.False(t, ColorEnabled("auto", nil))
}

func TestWrite_SARIF(t *testing.T) {
	out := render(t, FormatSARIF, sampleRecord())

	var decoded struct {
		Version string `json:"version"`
		Runs    []struct {
			Results []struct {
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "2.1.0", decoded.Version)
	require.Len(t, decoded.Runs[0].Results, 2)
	assert.Equal(t, "10.0.0.1", decoded.Runs[0].Results[0].Message.Text)
}
