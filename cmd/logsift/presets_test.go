package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift/logsift/pkg/types"
)

func resetPresetsFlags() {
	presetsFiles = nil
	presetsFormat = "table"
	presetsInclude = ""
	presetsExclude = ""
	quiet = false
}

func TestRunPresetsList(t *testing.T) {
	resetPresetsFlags()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := runPresetsList(cmd, []string{})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "ipv4")
	assert.Contains(t, output, "email-domain")
}

func TestRunPresetsListJSON(t *testing.T) {
	resetPresetsFlags()
	presetsFormat = "json"
	presetsInclude = "^url"
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := runPresetsList(cmd, []string{})
	require.NoError(t, err)

	var presets []types.Preset
	require.NoError(t, json.Unmarshal(buf.Bytes(), &presets))
	require.Len(t, presets, 2)
	assert.Equal(t, "url", presets[0].ID)
	assert.Equal(t, "url-host", presets[1].ID)
}

func TestRunPresetsList_CustomFile(t *testing.T) {
	resetPresetsFlags()
	path := filepath.Join(t.TempDir(), "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("presets:\n  - id: request-id\n    name: Request ID\n    pattern: 'rid=(\\w+)'\n    unique_group: 1\n"), 0644))
	presetsFiles = []string{path}
	presetsInclude = "request"

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := runPresetsList(cmd, []string{})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "request-id")
	assert.NotContains(t, buf.String(), "ipv4")
}

func TestRunPresetsList_UnknownFormat(t *testing.T) {
	resetPresetsFlags()
	presetsFormat = "xml"
	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})

	err := runPresetsList(cmd, []string{})
	assert.Error(t, err)
}

func TestRunPresetsValidate(t *testing.T) {
	resetPresetsFlags()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := runPresetsValidate(cmd, []string{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "presets OK")
}

func TestRunPresetsValidate_BrokenExample(t *testing.T) {
	resetPresetsFlags()
	path := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(path, []byte("presets:\n  - id: pid\n    name: PID\n    pattern: 'pid=(\\d+)'\n    examples:\n      - 'pid=abc'\n"), 0644))

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})

	err := runPresetsValidate(cmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}
