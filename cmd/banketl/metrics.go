package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"banketl/internal/metrics"
	"banketl/internal/metrics/datadog"
	"banketl/internal/metrics/prompush"
)

const defaultPushGateway = "http://localhost:9091"

// setupMetrics installs the selected metrics backend and returns the flush
// to run once the pipeline finishes. Backend selection: flag, then
// METRICS_BACKEND, then none. A backend that cannot be built is logged and
// metrics stay disabled; an unknown name is a usage error.
func setupMetrics(opts *options, job string) (func() error, error) {
	nop := func() error { return nil }

	name := opts.metricsBackend
	if name == "" || name == "none" {
		name = pickString(os.Getenv("METRICS_BACKEND"), "none")
	}

	var b metrics.Backend
	switch name {
	case "none":
		logrus.WithField("backend", name).Debug("metrics: disabled")
		return nop, nil

	case "pushgateway":
		url := pickString(opts.pushGatewayURL, os.Getenv("PUSHGATEWAY_URL"), defaultPushGateway)
		pb, err := prompush.NewBackend(job, url)
		if err != nil {
			logrus.WithError(err).Warn("metrics: could not init pushgateway backend; using nop")
			return nop, nil
		}
		logrus.WithFields(logrus.Fields{"backend": name, "url": url, "job": job}).Info("metrics: enabled")
		b = pb

	case "datadog":
		addr := pickString(opts.datadogAddr, os.Getenv("DD_DOGSTATSD_ADDR"), "127.0.0.1:8125")
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "banketl.",
			GlobalTags: []string{"job:" + job},
		})
		if err != nil {
			logrus.WithError(err).Warn("metrics: could not init datadog backend; using nop")
			return nop, nil
		}
		logrus.WithFields(logrus.Fields{"backend": name, "addr": addr}).Info("metrics: enabled")
		b = db

	default:
		return nil, fmt.Errorf("unknown metrics backend %q (want pushgateway, datadog or none)", name)
	}

	metrics.SetBackend(b)
	return metrics.Flush, nil
}
