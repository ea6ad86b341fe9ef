// Package json provides the streaming NDJSON adapter used by the extract
// stage. Input files carry one JSON object per line; each line becomes one
// records.Record.
//
// High-level flow:
//
//  1. Scan the reader line by line (bufio.Scanner with a generous buffer, so
//     long userAgent strings never split a record).
//  2. Decode each non-blank line into a map with goccy/go-json.
//  3. Stream records into 'out' for the downstream transform stages.
//
// Malformed lines are reported through onParseErr and skipped (fail-soft);
// only reader-level failures abort the stream.
package json

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	gojson "github.com/goccy/go-json"

	"sparkify/pkg/records"
)

// maxLineBytes bounds a single NDJSON line. The raw Sparkify dumps top out
// well under 64 KiB per record.
const maxLineBytes = 1 << 20

// StreamRows parses NDJSON from r and streams one records.Record per object
// into 'out'.
//
// Contract:
//
//   - Blank lines are skipped silently.
//   - A line that fails to decode is reported via onParseErr with its
//     1-based line number and dropped; the stream continues.
//   - The function does not close 'out' and does not spawn goroutines;
//     concurrency is controlled at the extract layer via reader workers.
//
// The returned count is the number of records successfully emitted.
func StreamRows(
	ctx context.Context,
	r io.Reader,
	out chan<- records.Record,
	onParseErr func(line int, err error),
) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	emitted := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var rec records.Record
		if err := gojson.Unmarshal([]byte(text), &rec); err != nil {
			if onParseErr != nil {
				onParseErr(line, err)
			}
			continue
		}

		select {
		case out <- rec:
			emitted++
		case <-ctx.Done():
			return emitted, ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return emitted, fmt.Errorf("json: scan line %d: %w", line+1, err)
	}
	return emitted, nil
}
