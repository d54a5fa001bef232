// Package pipeline runs the bank ETL end to end: extract the table from the
// page, convert currencies, write the CSV (and optional XLSX), replace the
// database table and print the two report queries.
//
// Stages run strictly in order and the first failure ends the run; nothing
// is retried. Every stage is timed into metrics, and the operator progress
// log gets one line per milestone:
//
//	Preliminaries complete. Initiating ETL process
//	Data extraction complete. Initiating Transformation process
//	Data transformation complete. Initiating loading process
//	Data saved to CSV file
//	SQL Connection initiated.
//	Data loaded to Database as table. Running the query
//	Process Complete.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"banketl/internal/bank"
	"banketl/internal/config"
	"banketl/internal/datasource"
	"banketl/internal/datasource/file"
	"banketl/internal/datasource/httpds"
	"banketl/internal/ddl"
	"banketl/internal/etlerr"
	"banketl/internal/export"
	"banketl/internal/extract"
	"banketl/internal/metrics"
	"banketl/internal/progress"
	"banketl/internal/query"
	"banketl/internal/storage"
	"banketl/internal/transformer"
)

// Progress log messages, in run order.
const (
	MsgStart       = "Preliminaries complete. Initiating ETL process"
	MsgExtracted   = "Data extraction complete. Initiating Transformation process"
	MsgTransformed = "Data transformation complete. Initiating loading process"
	MsgCSV         = "Data saved to CSV file"
	MsgConnected   = "SQL Connection initiated."
	MsgLoaded      = "Data loaded to Database as table. Running the query"
	MsgDone        = "Process Complete."
)

// Stage names used in metrics, diagnostics and failure lines.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageCSV       = "write_csv"
	StageXLSX      = "write_xlsx"
	StageConnect   = "connect"
	StageLoad      = "load"
	StageQuery     = "query"
)

// Deps are the run's collaborators. Zero fields are built from the config.
type Deps struct {
	// Source supplies the page. Default: HTTP or file per cfg.Source.Kind.
	Source datasource.Source
	// OpenRepository opens the database. Default: storage.New.
	OpenRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)
	// Progress receives milestone lines. Default: progress.Open(cfg.Log.Path).
	Progress *progress.Logger
	// Stdout receives the query output. Default: os.Stdout.
	Stdout io.Writer
	// Now is the clock for the progress log when Progress is nil.
	Now func() time.Time
	// Log receives diagnostics. Default: logrus.StandardLogger().
	Log logrus.FieldLogger
}

// Result summarizes a successful run.
type Result struct {
	RunID   string
	Page    extract.Result
	Rows    int
	Skipped int
	Loaded  int64
	Summary transformer.Summary
	// AvgGBP is the value returned by the AVG query.
	AvgGBP float64
}

type runner struct {
	cfg      config.Pipeline
	deps     Deps
	progress *progress.Logger
	log      logrus.FieldLogger
}

// Run executes the pipeline described by cfg.
func Run(ctx context.Context, cfg config.Pipeline, deps Deps) (res *Result, err error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.OpenRepository == nil {
		deps.OpenRepository = storage.New
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.Source == nil {
		src, err := NewSource(cfg.Source)
		if err != nil {
			return nil, err
		}
		deps.Source = src
	}

	res = &Result{RunID: uuid.NewString()}
	r := &runner{
		cfg:  cfg,
		deps: deps,
		log:  deps.Log.WithFields(logrus.Fields{"job": cfg.Job, "run_id": res.RunID}),
	}

	r.progress = deps.Progress
	if r.progress == nil {
		var opts []progress.Option
		if deps.Now != nil {
			opts = append(opts, progress.WithClock(deps.Now))
		}
		p, err := progress.Open(cfg.Log.Path, opts...)
		if err != nil {
			return nil, err
		}
		defer p.Close()
		r.progress = p
	}

	r.log.WithField("source", sourceName(deps.Source)).Info("pipeline: start")
	start := time.Now()
	defer func() {
		entry := r.log.WithField("elapsed", time.Since(start).Truncate(time.Millisecond))
		if err != nil {
			entry.WithError(err).WithField("kind", etlerr.Kind(err)).Error("pipeline: failed")
		} else {
			entry.Info("pipeline: complete")
		}
	}()

	if err := r.progress.Log(MsgStart); err != nil {
		return nil, err
	}

	// Extract.
	var table *bank.Table
	err = r.stage(StageExtract, func() error {
		opts := extract.Options{
			SkipMalformed: cfg.Parser.SkipMalformed,
			OnSkip: func(row int, err error) {
				res.Skipped++
				r.log.WithError(err).WithField("row", row).Warn("extract: skipped malformed row")
			},
		}
		t, page, err := extract.Extract(ctx, deps.Source, cfg.Parser.Columns, opts)
		res.Page = page
		table = t
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Rows = table.Len()
	metrics.RecordRow(cfg.Job, "extracted", int64(table.Len()))
	metrics.RecordRow(cfg.Job, "skipped", int64(res.Skipped))
	metrics.RecordGauge(cfg.Job, "page_bytes", float64(res.Page.Bytes))
	r.log.WithFields(logrus.Fields{
		"rows":    table.Len(),
		"bytes":   res.Page.Bytes,
		"xxh3":    res.Page.DigestHex(),
		"skipped": res.Skipped,
	}).Info("extract: done")
	if err := r.progress.Log(MsgExtracted); err != nil {
		return nil, err
	}

	// Transform.
	err = r.stage(StageTransform, func() error {
		_, err := transformer.TransformFile(table, cfg.Transform.RatesPath)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Summary = transformer.Summarize(table)
	metrics.RecordRow(cfg.Job, "transformed", int64(table.Len()))
	r.log.WithFields(logrus.Fields{
		"rows":       res.Summary.Rows,
		"mean_usd":   res.Summary.MeanUSD,
		"median_usd": res.Summary.MedianUSD,
		"max_usd":    res.Summary.MaxUSD,
		"mean_gbp":   res.Summary.MeanGBP,
	}).Info("transform: done")
	if err := r.progress.Log(MsgTransformed); err != nil {
		return nil, err
	}

	// Flat files.
	if err := r.stage(StageCSV, func() error { return export.WriteCSV(table, cfg.Output.CSVPath) }); err != nil {
		return nil, err
	}
	metrics.RecordRow(cfg.Job, "csv_written", int64(table.Len()))
	if cfg.Output.XLSXPath != "" {
		if err := r.stage(StageXLSX, func() error { return export.WriteXLSX(table, cfg.Output.XLSXPath) }); err != nil {
			return nil, err
		}
	}
	if err := r.progress.Log(MsgCSV); err != nil {
		return nil, err
	}

	// Database.
	def := ddl.BankTable(cfg.Storage.DB.Table)
	var repo storage.Repository
	err = r.stage(StageConnect, func() error {
		var err error
		repo, err = deps.OpenRepository(ctx, storage.Config{
			Kind:    cfg.Storage.Kind,
			DSN:     cfg.Storage.DB.DSN,
			Table:   cfg.Storage.DB.Table,
			Columns: def.ColumnNames(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	if err := r.progress.Log(MsgConnected); err != nil {
		return nil, err
	}

	err = r.stage(StageLoad, func() error {
		n, err := storage.ReplaceTable(ctx, cfg.Storage.Kind, repo, def, table.Values())
		res.Loaded = n
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordRow(cfg.Job, "loaded", res.Loaded)
	if err := r.progress.Log(MsgLoaded); err != nil {
		return nil, err
	}

	// Report queries.
	err = r.stage(StageQuery, func() error {
		if _, err := query.Run(ctx, repo, SelectAllSQL(cfg.Storage.DB.Table), deps.Stdout); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(deps.Stdout); err != nil {
			return etlerr.Wrap(etlerr.ErrIO, err, "query: print separator")
		}
		rs, err := query.Run(ctx, repo, AverageGBPSQL(cfg.Storage.DB.Table), deps.Stdout)
		if err != nil {
			return err
		}
		// An empty table averages to NULL; there is nothing to record then.
		if rs.Len() == 1 && rs.Rows[0][0] != nil {
			avg, err := query.Scalar(rs)
			if err != nil {
				return err
			}
			res.AvgGBP = avg
			metrics.RecordGauge(cfg.Job, "avg_mc_gbp_billion", avg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := r.progress.Log(MsgDone); err != nil {
		return nil, err
	}
	return res, nil
}

// stage runs fn, records its duration and outcome, and writes a failure
// line to the progress log when it fails.
func (r *runner) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordStep(r.cfg.Job, name, err, d)

	entry := r.log.WithFields(logrus.Fields{"stage": name, "duration": d})
	if err == nil {
		entry.Debug("pipeline: stage ok")
		return nil
	}
	entry.WithError(err).Error("pipeline: stage failed")
	if perr := r.progress.Fail(name, err); perr != nil {
		r.log.WithError(perr).Error("progress: could not record failure")
	}
	return err
}

// SelectAllSQL is the first report query.
func SelectAllSQL(table string) string { return "SELECT * FROM " + table }

// AverageGBPSQL is the second report query.
func AverageGBPSQL(table string) string {
	return "SELECT AVG(" + bank.ColGBP + ") FROM " + table
}

// NewSource builds the datasource described by s.
func NewSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "http", "":
		hdr := http.Header{}
		for k, v := range s.Options.StringMap("headers") {
			hdr.Set(k, v)
		}
		if s.UserAgent != "" {
			hdr.Set("User-Agent", s.UserAgent)
		}
		client := httpds.NewClient(httpds.Config{
			Timeout:            s.Timeout(),
			InsecureSkipVerify: s.InsecureSkipVerify,
			BaseHeaders:        hdr,
		})
		return httpds.NewSource(client, s.URL), nil
	case "file":
		return file.NewLocal(s.Path), nil
	default:
		return nil, etlerr.Newf(etlerr.ErrConfig, "pipeline: unknown source kind %q", s.Kind)
	}
}

func sourceName(src datasource.Source) string {
	switch s := src.(type) {
	case *httpds.Source:
		return s.URL()
	case *file.Local:
		return s.Path()
	default:
		return fmt.Sprintf("%T", src)
	}
}
