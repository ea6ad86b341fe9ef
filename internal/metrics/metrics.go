// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the ETL job.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data.
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - Concrete metric systems live in subpackages (prompush); the rest of the
//     codebase depends only on this interface.
//
// The primary use case is instrumentation of the job stages (extract,
// per-table transform, load) and of the per-table drop accounting, without
// coupling the pipeline logic to a specific metrics system.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style value in seconds.
	ObserveDuration(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g.
	// Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)      {}
func (nopBackend) ObserveDuration(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                              { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing
// backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency + success/failure for one job stage.
func RecordStep(step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"step": step, "status": status}
	backend.IncCounter("etl_step_total", 1, lbls)
	backend.ObserveDuration("etl_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a record-level counter for a table.
//
// Typical kinds mirror the run summary fields: "input", "output", and the
// per-reason drop counts ("dropped_null_key", "dropped_duplicate_key",
// "dropped_filtered_page", "dropped_unmatched_join").
func RecordRows(table, kind string, n int) {
	if n == 0 {
		return
	}
	backend.IncCounter("etl_records_total", float64(n), Labels{"table": table, "kind": kind})
}
