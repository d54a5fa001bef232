package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"banketl/internal/metrics"
)

func readCounter(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	return m.GetCounter().GetValue()
}

func readGauge(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		t.Fatalf("Gauge.Write() error = %v", err)
	}
	return m.GetGauge().GetValue()
}

func readHistogram(t *testing.T, v *prometheus.HistogramVec, labels ...string) (uint64, float64) {
	t.Helper()
	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("HistogramVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Histogram.Write() error = %v", err)
	}
	h := m.GetHistogram()
	return h.GetSampleCount(), h.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL", jobName: "banks", wantErr: true},
		{name: "default job name", gatewayURL: "http://pushgateway:9091", wantJobName: "banketl"},
		{name: "explicit job name", jobName: "largest-banks", gatewayURL: "http://pushgateway:9091", wantJobName: "largest-banks"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend() = %v, %v; want nil, error", b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend() error = %v", err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
		})
	}
}

func TestRouting(t *testing.T) {
	t.Parallel()
	b, err := NewBackend("banks", "http://example.com")
	if err != nil {
		t.Fatal(err)
	}

	b.IncCounter(metrics.StageTotal, 1, metrics.Labels{"stage": "extract", "status": "success"})
	b.IncCounter(metrics.StageTotal, 1, metrics.Labels{"stage": "extract", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 10, metrics.Labels{"kind": "loaded"})
	b.IncCounter("unknown_metric", 5, metrics.Labels{"kind": "loaded"})
	b.ObserveHistogram(metrics.StageDuration, 0.25, metrics.Labels{"stage": "load", "status": "success"})
	b.ObserveHistogram("other", 9, metrics.Labels{"stage": "load", "status": "success"})
	b.SetGauge(metrics.Value, 3, metrics.Labels{"name": "page_bytes"})
	b.SetGauge(metrics.Value, 4, metrics.Labels{"name": "page_bytes"})

	if got := readCounter(t, b.stageCounter.WithLabelValues("extract", "success")); got != 2 {
		t.Errorf("stage counter = %v, want 2", got)
	}
	if got := readCounter(t, b.rowCounter.WithLabelValues("loaded")); got != 10 {
		t.Errorf("row counter = %v, want 10", got)
	}
	if n, sum := readHistogram(t, b.stageDuration, "load", "success"); n != 1 || sum != 0.25 {
		t.Errorf("histogram = %d/%v, want 1/0.25", n, sum)
	}
	if got := readGauge(t, b.values.WithLabelValues("page_bytes")); got != 4 {
		t.Errorf("gauge = %v, want 4", got)
	}
}

func TestNilCollectorsAreSafe(t *testing.T) {
	t.Parallel()
	b := &Backend{}
	b.IncCounter(metrics.StageTotal, 1, metrics.Labels{"stage": "s", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "loaded"})
	b.ObserveHistogram(metrics.StageDuration, 1, nil)
	b.SetGauge(metrics.Value, 1, nil)
}

func TestFlush(t *testing.T) {
	t.Parallel()

	type req struct {
		method string
		path   string
		body   string
	}
	reqCh := make(chan req, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqCh <- req{r.Method, r.URL.Path, string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("banks", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	b.WithGrouping("instance", "host-1")
	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"kind": "loaded"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	got := <-reqCh
	if got.method != http.MethodPut {
		t.Errorf("method = %s, want PUT", got.method)
	}
	if !strings.Contains(got.path, "/job/banks") || !strings.Contains(got.path, "/instance/host-1") {
		t.Errorf("path = %q", got.path)
	}
	if got.body == "" {
		t.Error("push body is empty")
	}
}

func TestFlushError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	b, err := NewBackend("banks", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Flush(); err == nil {
		t.Fatal("Flush() error = nil, want error")
	}
}
