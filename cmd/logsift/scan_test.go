package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift/logsift/pkg/config"
	"github.com/logsift/logsift/pkg/scanner"
	"github.com/logsift/logsift/pkg/types"
)

const ipLog = `ip=10.0.0.1 user=alice
ip=10.0.0.2 user=bob
ip=10.0.0.1 user=carol
`

// resetScanFlags restores flag defaults and points --config at an empty
// file so a developer's own configuration cannot leak into tests.
func resetScanFlags(t *testing.T) {
	t.Helper()

	scanUniqueGroup = ""
	scanPreset = ""
	scanPresetFiles = nil
	scanBatchSize = scanner.DefaultBatchSize
	scanWorkers = 1
	scanMaxLineBytes = scanner.DefaultMaxLineBytes
	scanMatchTimeout = 0
	scanAbortOnError = false
	scanIgnoreCase = false
	scanKeywords = nil
	scanFormat = "values"
	scanColor = "never"
	scanDatabase = ""
	scanIncludeHidden = false
	scanMaxFileSize = 0
	scanSummary = false
	verbose = false
	quiet = true

	scanConfigPath = filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(scanConfigPath, nil, 0644))
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// runScanCmd executes runScan on a fresh command and returns stdout and stderr.
func runScanCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := runScan(cmd, args)
	return out.String(), errOut.String(), err
}

func TestRunScan_UniqueGroup(t *testing.T) {
	resetScanFlags(t)
	logFile := writeLog(t, t.TempDir(), "app.log", ipLog)
	scanUniqueGroup = "1"

	out, _, err := runScanCmd(t, `ip=(\d+\.\d+\.\d+\.\d+)`, logFile)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1\n10.0.0.2\n", out)
}

func TestRunScan_AppendMode(t *testing.T) {
	resetScanFlags(t)
	logFile := writeLog(t, t.TempDir(), "app.log", ipLog)

	out, _, err := runScanCmd(t, `ip=(\d+\.\d+\.\d+\.\d+)`, logFile)
	require.NoError(t, err)

	assert.Equal(t, "ip=10.0.0.1\nip=10.0.0.2\nip=10.0.0.1\n", out)
}

func TestRunScan_NamedUniqueGroup(t *testing.T) {
	resetScanFlags(t)
	logFile := writeLog(t, t.TempDir(), "app.log", ipLog)
	scanUniqueGroup = "user"

	out, _, err := runScanCmd(t, `ip=(?P<addr>[\d.]+) user=(?P<user>\w+)`, logFile)
	require.NoError(t, err)

	assert.Equal(t, "alice\nbob\ncarol\n", out)
}

func TestRunScan_Preset(t *testing.T) {
	resetScanFlags(t)
	logFile := writeLog(t, t.TempDir(), "conn.log",
		"client 192.168.1.10 connected\nclient 192.168.1.11 connected\nclient 192.168.1.10 closed\n")
	scanPreset = "ipv4"

	out, _, err := runScanCmd(t, logFile)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.10\n192.168.1.11\n", out)
}

func TestRunScan_PresetUnknown(t *testing.T) {
	resetScanFlags(t)
	scanPreset = "does-not-exist"

	_, _, err := runScanCmd(t, "whatever.log")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist")
}

func TestRunScan_DirectoryInLexicalOrder(t *testing.T) {
	resetScanFlags(t)
	dir := t.TempDir()
	writeLog(t, dir, "b.log", "ip=10.0.0.2\nip=10.0.0.1\n")
	writeLog(t, dir, "a.log", "ip=10.0.0.1\n")
	scanUniqueGroup = "1"

	out, _, err := runScanCmd(t, `ip=([\d.]+)`, dir)
	require.NoError(t, err)

	// a.log is read first, so its 10.0.0.1 wins
	assert.Equal(t, "10.0.0.1\n10.0.0.2\n", out)
}

func TestRunScan_MissingSource(t *testing.T) {
	resetScanFlags(t)
	dir := t.TempDir()
	logFile := writeLog(t, dir, "app.log", ipLog)
	missing := filepath.Join(dir, "missing.log")
	scanUniqueGroup = "1"

	out, errOut, err := runScanCmd(t, `ip=([\d.]+)`, missing, logFile)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "1 of 2 sources failed")
	assert.Equal(t, "10.0.0.1\n10.0.0.2\n", out, "matches from readable sources are still printed")
	assert.Contains(t, errOut, "[warn]")
	assert.Contains(t, errOut, missing)
}

func TestRunScan_AbortOnError(t *testing.T) {
	resetScanFlags(t)
	dir := t.TempDir()
	logFile := writeLog(t, dir, "app.log", ipLog)
	scanAbortOnError = true

	out, _, err := runScanCmd(t, `ip=([\d.]+)`, filepath.Join(dir, "missing.log"), logFile)
	require.Error(t, err)

	var srcErr *types.SourceError
	assert.True(t, errors.As(err, &srcErr), "expected a SourceError, got %v", err)
	assert.Empty(t, out)
}

func TestRunScan_InvalidPattern(t *testing.T) {
	resetScanFlags(t)
	logFile := writeLog(t, t.TempDir(), "app.log", ipLog)

	_, _, err := runScanCmd(t, `ip=(`, logFile)
	require.Error(t, err)

	var patErr *types.PatternError
	assert.True(t, errors.As(err, &patErr), "expected a PatternError, got %v", err)
}

func TestRunScan_InvalidUniqueGroup(t *testing.T) {
	resetScanFlags(t)
	logFile := writeLog(t, t.TempDir(), "app.log", ipLog)
	scanUniqueGroup = "2"

	_, _, err := runScanCmd(t, `ip=([\d.]+)`, logFile)
	require.Error(t, err)

	var cfgErr *types.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr), "expected a ConfigurationError, got %v", err)
}

func TestRunScan_NoPattern(t *testing.T) {
	resetScanFlags(t)

	_, _, err := runScanCmd(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--preset")
}

func TestRunScan_UnknownFormat(t *testing.T) {
	resetScanFlags(t)
	logFile := writeLog(t, t.TempDir(), "app.log", ipLog)
	scanFormat = "xml"

	_, _, err := runScanCmd(t, `ip`, logFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestRunScan_IgnoreCaseWithKeyword(t *testing.T) {
	resetScanFlags(t)
	logFile := writeLog(t, t.TempDir(), "app.log", "ERROR disk full\nerror again\ninfo fine\n")
	scanIgnoreCase = true
	scanKeywords = []string{"error"}

	out, _, err := runScanCmd(t, `error \w+`, logFile)
	require.NoError(t, err)

	assert.Equal(t, "ERROR disk\nerror again\n", out)
}

func TestRunScan_WorkersMatchSequential(t *testing.T) {
	resetScanFlags(t)
	dir := t.TempDir()
	var paths []string
	for i, content := range []string{"ip=1.1.1.1\nip=2.2.2.2\n", "ip=2.2.2.2\nip=3.3.3.3\n", "ip=1.1.1.1\nip=4.4.4.4\n"} {
		paths = append(paths, writeLog(t, dir, string(rune('a'+i))+".log", content))
	}
	args := append([]string{`ip=([\d.]+)`}, paths...)
	scanUniqueGroup = "1"

	sequential, _, err := runScanCmd(t, args...)
	require.NoError(t, err)

	scanWorkers = 3
	parallel, _, err := runScanCmd(t, args...)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
	assert.Equal(t, "1.1.1.1\n2.2.2.2\n3.3.3.3\n4.4.4.4\n", parallel)
}

func TestRunScan_HumanFormat(t *testing.T) {
	resetScanFlags(t)
	logFile := writeLog(t, t.TempDir(), "app.log", ipLog)
	scanFormat = "human"
	scanUniqueGroup = "1"

	out, _, err := runScanCmd(t, `ip=([\d.]+)`, logFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, logFile+":1:1 ip=10.0.0.1 [1=10.0.0.1]", lines[0])
	assert.Equal(t, logFile+":2:1 ip=10.0.0.2 [1=10.0.0.2]", lines[1])
}

func TestRunScan_SummaryAndVerbose(t *testing.T) {
	resetScanFlags(t)
	logFile := writeLog(t, t.TempDir(), "app.log", ipLog)
	scanSummary = true
	verbose = true
	quiet = false

	_, errOut, err := runScanCmd(t, `ip=([\d.]+)`, logFile)
	require.NoError(t, err)

	assert.Contains(t, errOut, "scan complete")
	assert.Contains(t, errOut, "3 lines, 3 matches, 3 retained, 0 discarded")
}

func TestRunScan_ConfigFile(t *testing.T) {
	resetScanFlags(t)
	dir := t.TempDir()
	logFile := writeLog(t, dir, "app.log", ipLog)
	require.NoError(t, os.WriteFile(scanConfigPath, []byte("format: jsonl\nbatch_size: 1\n"), 0644))

	out, _, err := runScanCmd(t, `ip=([\d.]+)`, logFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "{"), "expected JSON lines, got %q", out)
	assert.Equal(t, 1, scanBatchSize)
}

func TestRunScan_InvalidConfigFile(t *testing.T) {
	resetScanFlags(t)
	require.NoError(t, os.WriteFile(scanConfigPath, []byte("workers: 0\n"), 0644))

	_, _, err := runScanCmd(t, `ip`, "app.log")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
}

func TestApplyFileConfig_FlagsWin(t *testing.T) {
	resetScanFlags(t)

	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&scanFormat, "format", "human", "")
	cmd.Flags().IntVar(&scanBatchSize, "batch-size", scanner.DefaultBatchSize, "")
	require.NoError(t, cmd.Flags().Set("format", "json"))

	format := "jsonl"
	batch := 5
	timeout := "3s"
	err := applyFileConfig(cmd, config.FileConfig{Format: &format, BatchSize: &batch, MatchTimeout: &timeout})
	require.NoError(t, err)

	assert.Equal(t, "json", scanFormat, "explicit flag must win over the config file")
	assert.Equal(t, 5, scanBatchSize)
	assert.Equal(t, "3s", scanMatchTimeout.String())
}
