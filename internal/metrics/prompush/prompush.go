// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A pipeline run is a short-lived batch job, so metrics are
// pushed once at the end instead of being scraped.
package prompush

import (
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"banketl/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	grouping   map[string]string
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec   // banketl_stage_total
	stageDuration *prometheus.HistogramVec // banketl_stage_duration_seconds
	rowCounter    *prometheus.CounterVec   // banketl_rows_total
	values        *prometheus.GaugeVec     // banketl_value
}

// NewBackend constructs a Pushgateway backend. jobName becomes the
// Pushgateway "job" grouping key and defaults to "banketl".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "banketl"
	}

	reg := prometheus.NewRegistry()

	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StageTotal,
			Help: "Pipeline stage executions by stage and status.",
		},
		[]string{"stage", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metrics.StageDuration,
			Help:    "Pipeline stage duration in seconds by stage and status.",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows handled per kind (extracted, skipped, transformed, csv_written, loaded).",
		},
		[]string{"kind"},
	)
	values := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: metrics.Value,
			Help: "Last observed value of a named run quantity.",
		},
		[]string{"name"},
	)

	for _, c := range []prometheus.Collector{stageCounter, stageDuration, rowCounter, values} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		grouping:      map[string]string{},
		reg:           reg,
		stageCounter:  stageCounter,
		stageDuration: stageDuration,
		rowCounter:    rowCounter,
		values:        values,
	}, nil
}

// WithGrouping adds a Pushgateway grouping label (e.g. instance) and
// returns b.
func (b *Backend) WithGrouping(name, value string) *Backend {
	b.grouping[name] = value
	return b
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StageTotal:
		if b.stageCounter == nil {
			return
		}
		b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StageDuration || b.stageDuration == nil {
		return
	}
	b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
}

func (b *Backend) SetGauge(name string, value float64, labels metrics.Labels) {
	if name != metrics.Value || b.values == nil {
		return
	}
	b.values.WithLabelValues(labels["name"]).Set(value)
}

// Flush pushes the current registry to the Pushgateway, replacing the
// group's previous metrics.
func (b *Backend) Flush() error {
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)

	keys := make([]string, 0, len(b.grouping))
	for k := range b.grouping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p = p.Grouping(k, b.grouping[k])
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
