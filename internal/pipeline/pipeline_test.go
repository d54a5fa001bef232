package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"banketl/internal/config"
	"banketl/internal/datasource/file"
	"banketl/internal/datasource/httpds"
	"banketl/internal/etlerr"
	"banketl/internal/export"
	"banketl/internal/metrics"
	"banketl/internal/storage"
	_ "banketl/internal/storage/sqlite"
)

var fixedNow = func() time.Time { return time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC) }

const stamp = "2024-Jan-02-15:04:05 : "

func servePage(t *testing.T, status int) *httptest.Server {
	t.Helper()
	page, err := os.ReadFile(filepath.Join("testdata", "largest_banks.html"))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, url string) config.Pipeline {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Source.URL = url
	cfg.Transform.RatesPath = filepath.Join("testdata", "exchange_rate.csv")
	cfg.Output.CSVPath = filepath.Join(dir, "Largest_banks_data.csv")
	cfg.Storage.DB.DSN = filepath.Join(dir, "Banks.db")
	cfg.Log.Path = filepath.Join(dir, "code_log.txt")
	return cfg
}

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()
	srv := servePage(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)

	var out bytes.Buffer
	res, err := Run(context.Background(), cfg, Deps{Stdout: &out, Now: fixedNow, Log: quietLogger()})
	require.NoError(t, err)

	require.Equal(t, 3, res.Rows)
	require.EqualValues(t, 3, res.Loaded)
	require.InDelta(t, (346.34+185.22+155.65)/3, res.AvgGBP, 1e-9)
	require.NotEmpty(t, res.RunID)
	require.Positive(t, res.Page.Bytes)

	// Progress log: seven milestones in order, each timestamped.
	want := []string{MsgStart, MsgExtracted, MsgTransformed, MsgCSV, MsgConnected, MsgLoaded, MsgDone}
	lines := readLines(t, cfg.Log.Path)
	require.Len(t, lines, len(want))
	for i, msg := range want {
		require.Equal(t, stamp+msg, lines[i])
	}

	// CSV output.
	tbl, err := export.ReadCSV(cfg.Output.CSVPath)
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())
	require.Equal(t, "JPMorgan Chase", tbl.Rows[0].Name)
	require.Equal(t, "Bank of America", tbl.Rows[1].Name)
	require.Equal(t, 346.34, tbl.Rows[0].GBP)
	require.Equal(t, 402.62, tbl.Rows[0].EUR)
	require.Equal(t, 35910.71, tbl.Rows[0].INR)

	// Console: statement, table, blank line, statement, scalar.
	console := out.String()
	first := strings.Index(console, "SELECT * FROM Largest_banks\n")
	second := strings.Index(console, "\n\nSELECT AVG(MC_GBP_Billion) FROM Largest_banks\n")
	require.Equal(t, 0, first)
	require.Positive(t, second)
	require.Contains(t, console[:second], "Industrial and Commercial Bank of China")
	require.Contains(t, console[second:], "229.07")
}

func TestRunTwiceReplacesTable(t *testing.T) {
	t.Parallel()
	srv := servePage(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := Run(ctx, cfg, Deps{Stdout: io.Discard, Now: fixedNow, Log: quietLogger()})
		require.NoError(t, err)
	}

	// The log appends; the table is replaced.
	require.Len(t, readLines(t, cfg.Log.Path), 14)

	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: cfg.Storage.DB.DSN, Table: cfg.Storage.DB.Table})
	require.NoError(t, err)
	defer repo.Close()
	rs, err := repo.Query(ctx, "SELECT COUNT(*) FROM Largest_banks")
	require.NoError(t, err)
	require.EqualValues(t, 3, rs.Rows[0][0])
}

func TestRunFromFileSource(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, "")
	cfg.Source.Kind = "file"
	cfg.Source.Path = filepath.Join("testdata", "largest_banks.html")
	cfg.Output.XLSXPath = filepath.Join(t.TempDir(), "banks.xlsx")

	res, err := Run(context.Background(), cfg, Deps{Stdout: io.Discard, Now: fixedNow, Log: quietLogger()})
	require.NoError(t, err)
	require.Equal(t, 3, res.Rows)
	_, err = os.Stat(cfg.Output.XLSXPath)
	require.NoError(t, err)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(t *testing.T, cfg *config.Pipeline)
		kind      error
		lastGood  string
		failStage string
	}{
		{
			name:      "page not found",
			mutate:    func(t *testing.T, cfg *config.Pipeline) { cfg.Source.URL += "/missing" },
			kind:      etlerr.ErrNetwork,
			lastGood:  MsgStart,
			failStage: StageExtract,
		},
		{
			name:      "missing rate file",
			mutate:    func(t *testing.T, cfg *config.Pipeline) { cfg.Transform.RatesPath = filepath.Join(t.TempDir(), "nope.csv") },
			kind:      etlerr.ErrIO,
			lastGood:  MsgExtracted,
			failStage: StageTransform,
		},
		{
			name: "non-finite rate",
			mutate: func(t *testing.T, cfg *config.Pipeline) {
				path := filepath.Join(t.TempDir(), "exchange_rate.csv")
				require.NoError(t, os.WriteFile(path, []byte("Currency,Rate\nEUR,0.93\nGBP,NaN\nINR,82.95\n"), 0o644))
				cfg.Transform.RatesPath = path
			},
			kind:      etlerr.ErrFormat,
			lastGood:  MsgExtracted,
			failStage: StageTransform,
		},
		{
			name:      "unwritable csv",
			mutate:    func(t *testing.T, cfg *config.Pipeline) { cfg.Output.CSVPath = filepath.Join(t.TempDir(), "no", "dir.csv") },
			kind:      etlerr.ErrIO,
			lastGood:  MsgTransformed,
			failStage: StageCSV,
		},
		{
			name:      "unknown storage",
			mutate:    func(t *testing.T, cfg *config.Pipeline) { cfg.Storage.Kind = "oracle" },
			kind:      etlerr.ErrConfig,
			lastGood:  MsgCSV,
			failStage: StageConnect,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			page, err := os.ReadFile(filepath.Join("testdata", "largest_banks.html"))
			require.NoError(t, err)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/" {
					http.NotFound(w, r)
					return
				}
				_, _ = w.Write(page)
			}))
			defer srv.Close()

			cfg := testConfig(t, srv.URL+"/")
			tt.mutate(t, &cfg)

			_, err = Run(context.Background(), cfg, Deps{Stdout: io.Discard, Now: fixedNow, Log: quietLogger()})
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.kind), "got %v", err)

			lines := readLines(t, cfg.Log.Path)
			require.GreaterOrEqual(t, len(lines), 2)
			require.Equal(t, stamp+tt.lastGood, lines[len(lines)-2])
			require.True(t, strings.HasPrefix(lines[len(lines)-1], stamp+tt.failStage+" failed: "), lines[len(lines)-1])
			for _, l := range lines {
				require.NotEqual(t, stamp+MsgDone, l)
			}
		})
	}
}

// closeTracker wraps a real repository and fails queries on demand.
type closeTracker struct {
	storage.Repository
	mu        sync.Mutex
	closed    bool
	failQuery bool
}

func (c *closeTracker) Query(ctx context.Context, sql string) (*storage.ResultSet, error) {
	if c.failQuery {
		return nil, errors.New("query exploded")
	}
	return c.Repository.Query(ctx, sql)
}

func (c *closeTracker) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Repository.Close()
}

func TestRunReleasesConnection(t *testing.T) {
	t.Parallel()
	for _, failQuery := range []bool{false, true} {
		srv := servePage(t, http.StatusOK)
		cfg := testConfig(t, srv.URL)

		var tracker *closeTracker
		open := func(ctx context.Context, sc storage.Config) (storage.Repository, error) {
			repo, err := storage.New(ctx, sc)
			if err != nil {
				return nil, err
			}
			tracker = &closeTracker{Repository: repo, failQuery: failQuery}
			return tracker, nil
		}

		_, err := Run(context.Background(), cfg, Deps{Stdout: io.Discard, Now: fixedNow, Log: quietLogger(), OpenRepository: open})
		if failQuery {
			require.Error(t, err)
			require.True(t, errors.Is(err, etlerr.ErrIO))
		} else {
			require.NoError(t, err)
		}
		require.NotNil(t, tracker)
		require.True(t, tracker.closed, "connection not closed (failQuery=%v)", failQuery)
	}
}

type stageBackend struct {
	mu     sync.Mutex
	stages []string
	rows   map[string]float64
	gauges map[string]float64
}

func (b *stageBackend) IncCounter(name string, delta float64, l metrics.Labels) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch name {
	case metrics.StageTotal:
		b.stages = append(b.stages, l["stage"]+":"+l["status"])
	case metrics.RowsTotal:
		b.rows[l["kind"]] += delta
	}
}
func (b *stageBackend) ObserveHistogram(string, float64, metrics.Labels) {}
func (b *stageBackend) SetGauge(name string, v float64, l metrics.Labels) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gauges[l["name"]] = v
}
func (b *stageBackend) Flush() error { return nil }

func TestRunRecordsMetrics(t *testing.T) {
	// Not parallel: installs a global metrics backend.
	fb := &stageBackend{rows: map[string]float64{}, gauges: map[string]float64{}}
	metrics.SetBackend(fb)
	t.Cleanup(func() { metrics.SetBackend(noopBackend{}) })

	srv := servePage(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	_, err := Run(context.Background(), cfg, Deps{Stdout: io.Discard, Now: fixedNow, Log: quietLogger()})
	require.NoError(t, err)

	require.Equal(t, []string{
		"extract:success", "transform:success", "write_csv:success",
		"connect:success", "load:success", "query:success",
	}, fb.stages)
	require.Equal(t, 3.0, fb.rows["extracted"])
	require.Equal(t, 3.0, fb.rows["loaded"])
	require.Zero(t, fb.rows["skipped"])
	require.InDelta(t, 229.07, fb.gauges["avg_mc_gbp_billion"], 1e-9)
	require.Positive(t, fb.gauges["page_bytes"])
}

type noopBackend struct{}

func (noopBackend) IncCounter(string, float64, metrics.Labels)       {}
func (noopBackend) ObserveHistogram(string, float64, metrics.Labels) {}
func (noopBackend) SetGauge(string, float64, metrics.Labels)         {}
func (noopBackend) Flush() error                                     { return nil }

func TestNewSource(t *testing.T) {
	t.Parallel()

	src, err := NewSource(config.Source{Kind: "http", URL: "https://example.com/banks", Options: config.Options{}})
	require.NoError(t, err)
	hs, ok := src.(*httpds.Source)
	require.True(t, ok)
	require.Equal(t, "https://example.com/banks", hs.URL())

	src, err = NewSource(config.Source{Kind: "file", Path: "page.html"})
	require.NoError(t, err)
	require.Equal(t, "page.html", src.(*file.Local).Path())

	_, err = NewSource(config.Source{Kind: "ftp"})
	require.True(t, errors.Is(err, etlerr.ErrConfig))
}

func TestNewSourceSendsHeaders(t *testing.T) {
	t.Parallel()
	got := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Clone()
	}))
	defer srv.Close()

	src, err := NewSource(config.Source{
		Kind:      "http",
		URL:       srv.URL,
		UserAgent: "banks-test/1.0",
		Options:   config.Options{"headers": map[string]any{"Accept-Language": "en"}},
	})
	require.NoError(t, err)
	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	rc.Close()

	h := <-got
	require.Equal(t, "banks-test/1.0", h.Get("User-Agent"))
	require.Equal(t, "en", h.Get("Accept-Language"))
}

func TestQueries(t *testing.T) {
	t.Parallel()
	require.Equal(t, "SELECT * FROM Largest_banks", SelectAllSQL("Largest_banks"))
	require.Equal(t, "SELECT AVG(MC_GBP_Billion) FROM Largest_banks", AverageGBPSQL("Largest_banks"))
}
