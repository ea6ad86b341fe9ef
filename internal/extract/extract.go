// Package extract reads raw NDJSON records out of a lake store.
//
// It resolves a directory glob to object keys, reads the matching files with
// a bounded pool of workers, and collects every decoded record in memory.
// The tables this job derives all need global deduplication or a join, so
// the working set is materialized the same way the upstream engine would
// shuffle it; only file reading is concurrent.
package extract

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"sparkify/internal/lake"
	"sparkify/internal/parser/json"
	"sparkify/pkg/records"
)

// sampleErrors caps how many parse error messages are kept verbatim for the
// run summary; the rest are only counted.
const sampleErrors = 3

// Stats summarizes one extract pass.
type Stats struct {
	Files       int
	Records     int64
	ParseErrors int64

	// ErrorSamples holds the first few parse error messages for diagnostics.
	ErrorSamples []string
}

// Records lists every key under pattern and decodes all matching files.
//
// workers bounds concurrent file reads; buffer sizes the fan-in channel.
// An empty glob result is an error: a batch run against a missing input tree
// should fail loudly rather than write five empty tables.
func Records(ctx context.Context, store lake.Store, pattern string, workers, buffer int) ([]records.Record, Stats, error) {
	keys, err := store.List(ctx, pattern)
	if err != nil {
		return nil, Stats{}, err
	}
	if len(keys) == 0 {
		return nil, Stats{}, fmt.Errorf("extract: no input files match %q", pattern)
	}

	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 1
	}

	var (
		parseErrors atomic.Int64
		agg         = newErrAgg(sampleErrors)
	)
	out := make(chan records.Record, buffer)

	// Collector drains the channel into the result slice. Capacity is a
	// guess; log files run a few hundred records each.
	var collected []records.Record
	var wgCollect sync.WaitGroup
	wgCollect.Add(1)
	go func() {
		defer wgCollect.Done()
		for rec := range out {
			collected = append(collected, rec)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, key := range keys {
		g.Go(func() error {
			rc, err := store.Open(gctx, key)
			if err != nil {
				return err
			}
			defer rc.Close()

			_, err = json.StreamRows(gctx, rc, out, func(line int, perr error) {
				parseErrors.Add(1)
				agg.add(fmt.Sprintf("%s:%d: %v", key, line, perr))
			})
			if err != nil {
				return fmt.Errorf("read %s: %w", key, err)
			}
			return nil
		})
	}

	err = g.Wait()
	close(out)
	wgCollect.Wait()
	if err != nil {
		return nil, Stats{}, err
	}

	return collected, Stats{
		Files:        len(keys),
		Records:      int64(len(collected)),
		ParseErrors:  parseErrors.Load(),
		ErrorSamples: agg.samples(),
	}, nil
}

// errAgg keeps the first N messages of a high-volume error stream.
type errAgg struct {
	mu    sync.Mutex
	limit int
	first []string
}

func newErrAgg(limit int) *errAgg { return &errAgg{limit: limit} }

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	if len(a.first) < a.limit {
		a.first = append(a.first, msg)
	}
	a.mu.Unlock()
}

func (a *errAgg) samples() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.first...)
}
