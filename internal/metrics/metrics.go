// Package metrics records operational metrics from a pipeline run without
// tying the pipeline to a metrics system.
//
// Callers use the package-level helpers (RecordStep, RecordRow, RecordGauge).
// They forward to a global Backend that defaults to a no-op, so metrics are
// always safe to call. Concrete systems live in subpackages (prompush,
// datadog) and are installed once by the binary via SetBackend.
package metrics

import "time"

// Metric names emitted by the helpers.
const (
	StageTotal    = "banketl_stage_total"
	StageDuration = "banketl_stage_duration_seconds"
	RowsTotal     = "banketl_rows_total"
	Value         = "banketl_value"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// SetGauge sets a point-in-time value.
	SetGauge(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) SetGauge(string, float64, Labels)         {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
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

// RecordStep counts one execution of a pipeline stage and records its
// duration, labelled with success or failure.
func RecordStep(job, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "stage": stage, "status": status}
	backend.IncCounter(StageTotal, 1, lbls)
	backend.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRow adds delta to the row counter for kind. Kinds used by the
// pipeline are "extracted", "skipped", "transformed", "csv_written" and
// "loaded". Non-positive deltas are ignored.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordGauge sets the named value, e.g. "page_bytes" or "avg_mc_gbp_billion".
func RecordGauge(job, name string, v float64) {
	backend.SetGauge(Value, v, Labels{"job": job, "name": name})
}
