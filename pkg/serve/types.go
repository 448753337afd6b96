package serve

import (
	"encoding/json"

	"github.com/logsift/logsift/pkg/types"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "scan" | "presets" | "close"
	Payload json.RawMessage `json:"payload"`
}

// ScanPayload is the payload for "scan" requests. Either Pattern or Preset
// must be set. Content, when present, is scanned first as a source named
// Source, followed by Paths in order.
type ScanPayload struct {
	Pattern         string   `json:"pattern,omitempty"`
	Preset          string   `json:"preset,omitempty"`
	UniqueGroup     *int     `json:"unique_group,omitempty"`
	UniqueGroupName string   `json:"unique_group_name,omitempty"`
	IgnoreCase      bool     `json:"ignore_case,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	Content         string   `json:"content,omitempty"`
	Source          string   `json:"source,omitempty"`
	Paths           []string `json:"paths,omitempty"`
}

// ScanResult is the data field for "scan" responses
type ScanResult struct {
	Matches []*types.Match  `json:"matches"`
	Errors  []ScanError     `json:"errors,omitempty"`
	Stats   types.ScanStats `json:"stats"`
}

// ScanError is a source that failed during a scan request
type ScanError struct {
	Source string `json:"source"`
	Line   int    `json:"line,omitempty"`
	Error  string `json:"error"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | "scan" | "presets" | "decode" | "unknown"
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version string `json:"version"`
	Presets int    `json:"presets"`
}
