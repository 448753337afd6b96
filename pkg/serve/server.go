// Package serve runs logsift as a long-lived NDJSON server: one JSON request
// per input line, one JSON response per output line.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/logsift/logsift/pkg/preset"
	"github.com/logsift/logsift/pkg/scanner"
	"github.com/logsift/logsift/pkg/source"
	"github.com/logsift/logsift/pkg/types"
)

// Version is the server protocol version
const Version = "1.0.0"

// EngineCacheSize is the number of compiled patterns kept between requests.
const EngineCacheSize = 64

// defaultSourceID names inline content when the request does not.
const defaultSourceID = "content"

// engineKey identifies a compiled engine. Requests that differ only in their
// sources share an engine.
type engineKey struct {
	pattern    string
	group      int // -1 when unset
	groupName  string
	ignoreCase bool
	keywords   string
}

// Server answers scan requests over a pair of streams
type Server struct {
	presets []*types.Preset
	engines *lru.Cache[engineKey, *scanner.Engine]
	encoder *json.Encoder
	decoder *json.Decoder
}

// NewServer creates a new server. presets are the presets "scan" requests
// may refer to by ID.
func NewServer(presets []*types.Preset, in io.Reader, out io.Writer) *Server {
	// lru.New only fails for a non-positive size.
	engines, _ := lru.New[engineKey, *scanner.Engine](EngineCacheSize)
	return &Server{
		presets: presets,
		engines: engines,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
	}
}

// Run starts the server main loop. It returns nil when the input ends or a
// "close" request arrives, and ctx.Err() when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	// Send ready signal
	s.sendReady()

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until the input closes or the context is cancelled
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(ctx, req) {
						return nil
					}
				default:
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(ctx, req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(ctx context.Context, req Request) bool {
	switch req.Type {
	case "scan":
		s.handleScan(ctx, req.Payload)
	case "presets":
		s.send("presets", s.presets)
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	s.send("ready", ReadyData{Version: Version, Presets: len(s.presets)})
}

func (s *Server) handleScan(ctx context.Context, payload json.RawMessage) {
	var p ScanPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan", err.Error())
		return
	}

	result, err := s.scan(ctx, p)
	if err != nil {
		s.sendError("scan", err.Error())
		return
	}
	s.send("scan", result)
}

func (s *Server) scan(ctx context.Context, p ScanPayload) (*ScanResult, error) {
	engine, err := s.engine(p)
	if err != nil {
		return nil, err
	}

	var sources []source.Source
	if p.Content != "" || len(p.Paths) == 0 {
		id := p.Source
		if id == "" {
			id = defaultSourceID
		}
		sources = append(sources, source.Text(id, p.Content))
	}
	for _, path := range p.Paths {
		// Standard input carries the requests.
		if path == source.StdinID {
			return nil, errors.New("standard input cannot be scanned in serve mode")
		}
		sources = append(sources, source.File(path))
	}

	res, err := engine.Scan(ctx, sources)
	if err != nil {
		return nil, err
	}

	out := &ScanResult{Matches: res.Matches, Stats: res.Stats}
	if out.Matches == nil {
		out.Matches = []*types.Match{}
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, ScanError{Source: e.Source, Line: e.Line, Error: e.Err.Error()})
	}
	return out, nil
}

// engine returns a cached engine for the request, compiling it on a miss.
func (s *Server) engine(p ScanPayload) (*scanner.Engine, error) {
	cfg := scanner.Config{
		Pattern:         p.Pattern,
		UniqueGroup:     p.UniqueGroup,
		UniqueGroupName: p.UniqueGroupName,
		IgnoreCase:      p.IgnoreCase,
		Keywords:        p.Keywords,
	}

	if p.Preset != "" {
		if p.Pattern != "" {
			return nil, errors.New("pattern and preset are mutually exclusive")
		}
		ps, err := preset.Find(s.presets, p.Preset)
		if err != nil {
			return nil, err
		}
		cfg.Pattern = ps.Pattern
		if cfg.UniqueGroup == nil && cfg.UniqueGroupName == "" {
			cfg.UniqueGroup = ps.UniqueGroup
		}
		if len(cfg.Keywords) == 0 {
			cfg.Keywords = ps.Keywords
		}
	}
	if cfg.Pattern == "" {
		return nil, errors.New("pattern or preset is required")
	}

	key := engineKey{
		pattern:    cfg.Pattern,
		group:      -1,
		groupName:  cfg.UniqueGroupName,
		ignoreCase: cfg.IgnoreCase,
		keywords:   strings.Join(cfg.Keywords, "\x00"),
	}
	if cfg.UniqueGroup != nil {
		key.group = *cfg.UniqueGroup
	}

	if e, ok := s.engines.Get(key); ok {
		return e, nil
	}
	e, err := scanner.New(cfg)
	if err != nil {
		return nil, err
	}
	s.engines.Add(key, e)
	return e, nil
}

func (s *Server) send(reqType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(reqType, fmt.Sprintf("encoding response: %v", err))
		return
	}
	s.encoder.Encode(Response{
		Success: true,
		Type:    reqType,
		Data:    data,
	})
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}
