// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the job's metric names onto fixed label sets (step/status for
//     stage metrics, table/kind for record counts).
//   - Pushing collected metrics to a Prometheus Pushgateway instance at the
//     end of the run instead of exposing a scrape endpoint; a batch job has
//     nothing to scrape once the process exits.
//
// All Prometheus-specific dependencies are contained here so the rest of the
// project can swap to an alternative backend without changes to the pipeline.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"sparkify/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stepCounter   *prometheus.CounterVec // etl_step_total
	stepDuration  *prometheus.SummaryVec // etl_step_duration_seconds
	recordCounter *prometheus.CounterVec // etl_records_total
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName becomes the Pushgateway "job" grouping key; gatewayURL is the base
// URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "etl"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_step_total",
			Help: "Total number of ETL step executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "etl_step_duration_seconds",
			Help:       "Duration of ETL steps in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_records_total",
			Help: "Record-level counts per table and kind (input, output, dropped_*).",
		},
		[]string{"table", "kind"},
	)

	if err := reg.Register(stepCounter); err != nil {
		return nil, fmt.Errorf("prompush: register step counter: %w", err)
	}
	if err := reg.Register(stepDuration); err != nil {
		return nil, fmt.Errorf("prompush: register step summary: %w", err)
	}
	if err := reg.Register(recordCounter); err != nil {
		return nil, fmt.Errorf("prompush: register record counter: %w", err)
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		recordCounter: recordCounter,
	}, nil
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "etl_step_total":
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case "etl_records_total":
		b.recordCounter.WithLabelValues(labels["table"], labels["kind"]).Add(delta)
	}
}

// ObserveDuration implements metrics.Backend.
func (b *Backend) ObserveDuration(name string, value float64, labels metrics.Labels) {
	if name != "etl_step_duration_seconds" {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the collected registry to the Pushgateway.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
