package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"hash"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/logsift/logsift/pkg/source"
	"github.com/logsift/logsift/pkg/types"
)

// initialLineBuffer is the scanner buffer before it grows towards MaxLineBytes.
const initialLineBuffer = 64 * 1024

// countingReader hashes and counts everything read through it.
type countingReader struct {
	r      io.Reader
	digest hash.Hash64
	n      int64
}

func newCountingReader(r io.Reader) *countingReader {
	return &countingReader{r: r, digest: xxhash.New()}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.n += int64(n)
		c.digest.Write(p[:n])
	}
	return n, err
}

// scanSource reads one source in batches and hands its matches to add,
// batch by batch, in line order.
//
// Problems with the source itself are returned as source errors; the
// returned error is reserved for context cancellation, which ends the scan.
func (e *Engine) scanSource(ctx context.Context, src source.Source, add func(...*types.Match)) (types.SourceStats, []*types.SourceError, error) {
	start := time.Now()
	stats := types.SourceStats{Source: src.ID()}
	var errs []*types.SourceError

	fail := func(line int, err error) {
		stats.Failed = true
		errs = append(errs, &types.SourceError{Source: src.ID(), Line: line, Err: err})
	}
	finish := func() {
		stats.Duration = time.Since(start)
	}

	if err := ctx.Err(); err != nil {
		return stats, nil, err
	}

	e.cfg.Logger.Log("opening %s", src.ID())
	rc, err := src.Open(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, nil, ctxErr
		}
		fail(0, fmt.Errorf("opening: %w", err))
		finish()
		return stats, errs, nil
	}
	defer rc.Close()

	counter := newCountingReader(rc)
	sc := bufio.NewScanner(counter)
	sc.Buffer(make([]byte, 0, min(initialLineBuffer, e.cfg.MaxLineBytes)), e.cfg.MaxLineBytes)

	batch := make([]string, 0, e.cfg.BatchSize)
	lineNo := 0
	flush := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		first := lineNo - len(batch) + 1
		matches := e.processBatch(src.ID(), first, batch, &stats, fail)
		stats.Matches += int64(len(matches))
		add(matches...)
		batch = batch[:0]
		return nil
	}

	for sc.Scan() {
		lineNo++
		batch = append(batch, sc.Text())
		if len(batch) == e.cfg.BatchSize {
			if err := flush(); err != nil {
				return stats, nil, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return stats, nil, err
		}
	}
	stats.Lines = int64(lineNo)

	if err := sc.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, nil, ctxErr
		}
		if errors.Is(err, bufio.ErrTooLong) {
			err = fmt.Errorf("line longer than %d bytes: %w", e.cfg.MaxLineBytes, err)
		}
		fail(lineNo+1, fmt.Errorf("reading after line %d: %w", lineNo, err))
	}

	stats.Bytes = counter.n
	stats.Fingerprint = fmt.Sprintf("%016x", counter.digest.Sum64())
	finish()
	return stats, errs, nil
}

// processBatch matches every line of a batch. first is the 1-based number of
// the first line in lines.
func (e *Engine) processBatch(id string, first int, lines []string, stats *types.SourceStats, fail func(int, error)) []*types.Match {
	var out []*types.Match
	for i, line := range lines {
		n := first + i
		if e.prefilter.Enabled() && !e.prefilter.MayMatch([]byte(line)) {
			stats.SkippedLines++
			continue
		}

		matches, err := e.matcher.FindAll(id, n, line)
		if err != nil {
			// Keep what was found before the timeout and move on.
			fail(n, err)
		}
		out = append(out, matches...)
	}
	return out
}
