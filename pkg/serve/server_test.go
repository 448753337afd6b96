package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift/logsift/pkg/preset"
	"github.com/logsift/logsift/pkg/types"
)

func builtinPresets(t *testing.T) []*types.Preset {
	t.Helper()
	presets, err := preset.NewLoader().LoadBuiltin()
	require.NoError(t, err)
	return presets
}

// runRequests feeds requests to a fresh server and returns its responses.
func runRequests(t *testing.T, requests ...string) ([]Response, *Server) {
	t.Helper()
	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	out := &bytes.Buffer{}

	srv := NewServer(builtinPresets(t), in, out)
	require.NoError(t, srv.Run(context.Background()))

	var responses []Response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		responses = append(responses, resp)
	}
	return responses, srv
}

func decodeScan(t *testing.T, resp Response) ScanResult {
	t.Helper()
	require.True(t, resp.Success, "scan failed: %s", resp.Error)
	require.Equal(t, "scan", resp.Type)
	var result ScanResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	return result
}

func values(result ScanResult, group int) []string {
	var out []string
	for _, m := range result.Matches {
		v, _ := m.Group(group)
		out = append(out, v)
	}
	return out
}

func TestServer_SendsReadyOnStart(t *testing.T) {
	in := strings.NewReader("")
	out := &bytes.Buffer{}

	srv := NewServer(builtinPresets(t), in, out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately to exit after ready

	_ = srv.Run(ctx)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ready", resp.Type)

	var ready ReadyData
	require.NoError(t, json.Unmarshal(resp.Data, &ready))
	assert.Equal(t, Version, ready.Version)
	assert.Positive(t, ready.Presets)
}

func TestServer_ScanContent(t *testing.T) {
	responses, _ := runRequests(t,
		`{"type":"scan","payload":{"pattern":"ip=([\\d.]+)","unique_group":1,"content":"ip=10.0.0.1\nip=10.0.0.2\nip=10.0.0.1\n","source":"req"}}`)
	require.Len(t, responses, 2) // ready + scan response

	result := decodeScan(t, responses[1])
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, values(result, 1))
	assert.Equal(t, "req", result.Matches[0].Source)
	assert.Equal(t, int64(3), result.Stats.Matches)
	assert.Equal(t, int64(1), result.Stats.Discarded)
}

func TestServer_ScanPathsWithMissingSource(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(logFile, []byte("user=alice\nuser=bob\n"), 0644))
	missing := filepath.Join(dir, "missing.log")

	payload, err := json.Marshal(ScanPayload{Pattern: `user=(\w+)`, Paths: []string{missing, logFile}})
	require.NoError(t, err)

	responses, _ := runRequests(t, `{"type":"scan","payload":`+string(payload)+`}`)
	require.Len(t, responses, 2)

	result := decodeScan(t, responses[1])
	assert.Equal(t, []string{"user=alice", "user=bob"}, values(result, 0))
	require.Len(t, result.Errors, 1)
	assert.Equal(t, missing, result.Errors[0].Source)
}

func TestServer_ScanPreset(t *testing.T) {
	responses, _ := runRequests(t,
		`{"type":"scan","payload":{"preset":"ipv4","content":"client 192.168.1.10 up\nclient 192.168.1.10 down\n"}}`)
	require.Len(t, responses, 2)

	result := decodeScan(t, responses[1])
	assert.Equal(t, []string{"192.168.1.10"}, values(result, 1))
	assert.Equal(t, "content", result.Matches[0].Source)
}

func TestServer_ScanErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"invalid pattern", `{"pattern":"("}`, "("},
		{"no pattern", `{"content":"x"}`, "pattern or preset"},
		{"both", `{"pattern":"x","preset":"ipv4"}`, "mutually exclusive"},
		{"unknown preset", `{"preset":"nope"}`, "nope"},
		{"stdin path", `{"pattern":"x","paths":["-"]}`, "standard input"},
		{"group out of range", `{"pattern":"(a)","unique_group":3}`, "unique group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses, _ := runRequests(t, `{"type":"scan","payload":`+tt.payload+`}`)
			require.Len(t, responses, 2)
			assert.False(t, responses[1].Success)
			assert.Equal(t, "scan", responses[1].Type)
			assert.Contains(t, responses[1].Error, tt.want)
		})
	}
}

func TestServer_ReusesCompiledEngines(t *testing.T) {
	req := `{"type":"scan","payload":{"pattern":"a+","content":"aaa"}}`
	other := `{"type":"scan","payload":{"pattern":"a+","ignore_case":true,"content":"AAA"}}`

	responses, srv := runRequests(t, req, req, other)
	require.Len(t, responses, 4)

	assert.Equal(t, []string{"aaa"}, values(decodeScan(t, responses[1]), 0))
	assert.Equal(t, []string{"aaa"}, values(decodeScan(t, responses[2]), 0))
	assert.Equal(t, []string{"AAA"}, values(decodeScan(t, responses[3]), 0))
	assert.Equal(t, 2, srv.engines.Len())
}

func TestServer_Presets(t *testing.T) {
	responses, _ := runRequests(t, `{"type":"presets","payload":{}}`)
	require.Len(t, responses, 2)
	require.True(t, responses[1].Success)

	var presets []*types.Preset
	require.NoError(t, json.Unmarshal(responses[1].Data, &presets))
	_, err := preset.Find(presets, "ipv4")
	assert.NoError(t, err)
}

func TestServer_GracefulShutdownOnContext(t *testing.T) {
	// Slow reader that blocks
	pr, pw := io.Pipe()
	out := &bytes.Buffer{}

	srv := NewServer(nil, pr, out)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- srv.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	cancel()
	pw.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServer_CloseCommand(t *testing.T) {
	responses, _ := runRequests(t,
		`{"type":"close","payload":{}}`,
		`{"type":"scan","payload":{"pattern":"a","content":"a"}}`)
	require.Len(t, responses, 1) // Only ready signal
}

func TestServer_UnknownCommand(t *testing.T) {
	responses, _ := runRequests(t, `{"type":"invalid","payload":{}}`)
	require.Len(t, responses, 2)

	assert.False(t, responses[1].Success)
	assert.Contains(t, responses[1].Error, "unknown request type")
}

func TestServer_MalformedJSON(t *testing.T) {
	responses, _ := runRequests(t, `{invalid json}`)
	require.GreaterOrEqual(t, len(responses), 2)

	assert.False(t, responses[1].Success)
	assert.Equal(t, "decode", responses[1].Type)
}
