// Command banketl downloads the archived "largest banks" page, converts the
// market capitalisations into GBP, EUR and INR, writes them to a CSV file and
// a database table, and prints two report queries.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"banketl/internal/config"
	"banketl/internal/pipeline"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "banketl/internal/storage/all"
)

type options struct {
	cfgPath        string
	envFile        string
	metricsBackend string
	pushGatewayURL string
	datadogAddr    string
	verbose        bool
	logJSON        bool
}

// Function variables used as test seams.
var (
	runPipeline = pipeline.Run
	setupFn     = setupMetrics
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts options
	root := newRootCmd(&opts, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if opts.verbose {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(opts *options, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "banketl",
		Short:         "Extract, convert and load the largest banks by market capitalization",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(opts, stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, stdout, stderr)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.cfgPath, "config", "", "pipeline config JSON path (defaults are used when empty)")
	f.StringVar(&opts.envFile, "env-file", ".env", "KEY=VALUE file loaded before BANKETL_* overrides; ignored when missing")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logs and stack traces on failure")
	f.BoolVar(&opts.logJSON, "log-json", false, "emit diagnostics as JSON")

	rf := root.Flags()
	rf.StringVar(&opts.metricsBackend, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none); env METRICS_BACKEND")
	rf.StringVar(&opts.pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL; env PUSHGATEWAY_URL")
	rf.StringVar(&opts.datadogAddr, "datadog-addr", "", "DogStatsD address; env DD_DOGSTATSD_ADDR")

	root.AddCommand(newValidateCmd(opts, stderr))
	return root
}

func newValidateCmd(opts *options, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadConfig(opts, stderr)
			if err != nil {
				return err
			}
			logrus.WithField("job", p.Job).Info("configuration is valid")
			return nil
		},
	}
}

func configureLogging(opts *options, stderr io.Writer) {
	logrus.SetOutput(stderr)
	if opts.logJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if opts.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// loadConfig loads and lints the configuration. Every issue is printed;
// any error-level issue fails the load.
func loadConfig(opts *options, stderr io.Writer) (config.Pipeline, error) {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	p, err := config.Load(opts.cfgPath, envFiles...)
	if err != nil {
		return config.Pipeline{}, err
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		name := opts.cfgPath
		if name == "" {
			name = "defaults"
		}
		return config.Pipeline{}, fmt.Errorf("configuration is invalid: %s", name)
	}
	return p, nil
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	p, err := loadConfig(opts, stderr)
	if err != nil {
		return err
	}

	flush, err := setupFn(opts, p.Job)
	if err != nil {
		return err
	}
	defer func() {
		if err := flush(); err != nil {
			logrus.WithError(err).Warn("metrics: flush failed")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"source":  p.Source.Kind,
		"storage": p.Storage.Kind,
		"table":   p.Storage.DB.Table,
	}).Debug("pipeline: resolved configuration")

	res, err := runPipeline(ctx, p, pipeline.Deps{Stdout: stdout})
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"run_id": res.RunID,
		"rows":   res.Rows,
		"loaded": res.Loaded,
	}).Info("done")
	return nil
}

// pickString returns the first non-empty value, trimmed.
func pickString(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
