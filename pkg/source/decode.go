package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ledongthuc/pdf"
)

// Format is the detected encoding of a source.
type Format int

const (
	FormatText Format = iota
	FormatGzip
	FormatZstd
	FormatPDF
)

// String returns the string representation of Format
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatGzip:
		return "gzip"
	case FormatZstd:
		return "zstd"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	pdfMagic  = []byte("%PDF-")
)

// sniffSize is how many leading bytes Detect needs.
const sniffSize = 8

// Detect identifies the format from the leading bytes of a source.
func Detect(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return FormatGzip
	case bytes.HasPrefix(head, zstdMagic):
		return FormatZstd
	case bytes.HasPrefix(head, pdfMagic):
		return FormatPDF
	default:
		return FormatText
	}
}

// readCloser pairs a decoded reader with the closers of every layer below it.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

// Close closes every layer, innermost first, and returns the first error.
func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// decode wraps r according to its leading bytes. underlying is closed when the
// returned reader is closed. size is the total size of r when it is known
// (and r supports random access), or -1.
func decode(r io.Reader, underlying io.Closer, size int64) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	switch Detect(head) {
	case FormatGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return &readCloser{Reader: gz, closers: []io.Closer{gz, underlying}}, nil

	case FormatZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		zr := dec.IOReadCloser()
		return &readCloser{Reader: zr, closers: []io.Closer{zr, underlying}}, nil

	case FormatPDF:
		ra, ok := r.(io.ReaderAt)
		if !ok || size < 0 {
			return nil, fmt.Errorf("pdf content requires a seekable file")
		}
		text, err := extractPDF(ra, size)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: bytes.NewReader(text), closers: []io.Closer{underlying}}, nil

	default:
		return &readCloser{Reader: br, closers: []io.Closer{underlying}}, nil
	}
}

// extractPDF extracts the plain text of every page, one page after another.
// Pages whose text cannot be extracted are skipped.
func extractPDF(ra io.ReaderAt, size int64) ([]byte, error) {
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	var text bytes.Buffer
	totalPages := r.NumPage()
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		text.WriteString(pageText)
		text.WriteString("\n")
	}

	return text.Bytes(), nil
}
