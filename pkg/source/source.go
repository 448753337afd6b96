// Package source provides the readable text sources a scan consumes.
//
// A Source is identified by a string (usually a path) and can be opened for
// sequential reading. File sources transparently decompress gzip and zstd
// content and extract the text of PDF documents.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// StdinID is the identifier of the standard input source.
const StdinID = "-"

// Source is one readable text source.
type Source interface {
	// ID identifies the source in matches, errors and diagnostics.
	ID() string

	// Open returns a reader over the source's text. The caller must Close it.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ErrConsumed is returned when a single-use source is opened twice.
var ErrConsumed = errors.New("source already consumed")

// fileSource reads a file from disk.
type fileSource struct {
	path string
}

// File returns a source reading path. Compressed and PDF content is decoded
// based on its leading bytes, not its extension.
func File(path string) Source {
	return fileSource{path: path}
}

// ID returns the file path.
func (f fileSource) ID() string {
	return f.path
}

// Open opens the file and wraps it in the matching decoder.
func (f fileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%s is a directory", f.path)
	}

	rc, err := decode(file, file, info.Size())
	if err != nil {
		file.Close()
		return nil, err
	}
	return rc, nil
}

// textSource is an in-memory source that can be opened any number of times.
type textSource struct {
	id      string
	content string
}

// Text returns a source over an in-memory string.
func Text(id, content string) Source {
	return textSource{id: id, content: content}
}

// ID returns the source identifier.
func (t textSource) ID() string {
	return t.id
}

// Open returns a fresh reader over the content.
func (t textSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(t.content)), nil
}

// readerSource wraps a caller-supplied stream. It can only be opened once.
type readerSource struct {
	id   string
	r    io.Reader
	mu   sync.Mutex
	used bool
}

// Reader returns a single-use source over r. gzip and zstd streams are
// decompressed; PDF documents are not supported because they need random
// access. If r is an io.Closer it is closed with the returned reader.
func Reader(id string, r io.Reader) Source {
	return &readerSource{id: id, r: r}
}

// Stdin returns a single-use source over standard input.
func Stdin() Source {
	return Reader(StdinID, io.NopCloser(os.Stdin))
}

// ID returns the source identifier.
func (s *readerSource) ID() string {
	return s.id
}

// Open returns the wrapped stream on first use.
func (s *readerSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used {
		return nil, ErrConsumed
	}
	s.used = true

	var closer io.Closer
	if c, ok := s.r.(io.Closer); ok {
		closer = c
	}
	return decode(s.r, closer, -1)
}

// Files converts paths to sources. "-" becomes Stdin.
func Files(paths []string) []Source {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		if p == StdinID {
			sources = append(sources, Stdin())
			continue
		}
		sources = append(sources, File(p))
	}
	return sources
}
