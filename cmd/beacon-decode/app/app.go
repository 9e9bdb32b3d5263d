// Package app is the beacon-decode CLI's orchestration layer, grounded on
// cmd/sweeper/app of the teacher repo: a config loader, a Run(ctx, config,
// logger) entry point, and an Orchestrator-equivalent (here, Runner) built
// from functional options.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cospas-sarsat/beacon-core/internal/metrics"
	"github.com/cospas-sarsat/beacon-core/internal/telemetry"
)

// Run opens the configured sample source and output sink, wires a Runner,
// and drives it to completion. It mirrors the teacher's
// cmd/sweeper/app.Run: resource setup up front with defer-based cleanup,
// delegating the actual work to an Orchestrator-equivalent.
func Run(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	source, err := OpenSampleSource(cfg.Input.Path, cfg.Input.Format)
	if err != nil {
		return fmt.Errorf("opening sample source: %w", err)
	}
	defer source.Close()

	sink, err := OpenSink(cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("opening output sink: %w", err)
	}
	defer sink.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	if cfg.Metrics.Enabled {
		srv := startMetricsServer(cfg.Metrics.Addr, reg, logger)
		defer srv.Close()
	}

	var opts []Option
	if cfg.Telemetry.Enabled {
		fix := &telemetry.StationFix{
			Timestamp: time.Now().UTC(),
			Latitude:  cfg.Telemetry.Latitude,
			Longitude: cfg.Telemetry.Longitude,
			Altitude:  cfg.Telemetry.Altitude,
		}
		opts = append(opts, WithTelemetry(telemetry.NewStaticProvider(fix)))
	}

	runner := NewRunner(cfg.Pipeline, source, cfg.Input.ChunkSamples, sink, logger, m, opts...)

	start := time.Now()
	runErr := runner.Run(ctx)
	elapsed := time.Since(start)

	logSummary(logger, runner, elapsed)
	return runErr
}

// startMetricsServer exposes the Prometheus registry over HTTP, following
// the teacher's promauto/promhttp convention (no teacher file runs an
// HTTP server directly, but madpsy-ka9q_ubersdr's prometheus.go wires the
// same client_golang stack behind a registry this way).
func startMetricsServer(addr string, reg *prometheus.Registry, logger *slog.Logger) io.Closer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", slog.String("err", err.Error()))
		}
	}()
	return srv
}

// logSummary reports the elapsed time and the Runner's demodulation and
// decode failure counts, formatted with go-humanize, the teacher's
// dependency of choice for human-readable counts (internal/storage's
// helpers.go formats row counts the same way).
func logSummary(logger *slog.Logger, r *Runner, elapsed time.Duration) {
	stats := r.Stats()
	logger.Info("decode run finished",
		slog.String("elapsed", elapsed.Round(time.Millisecond).String()),
		slog.String("demod_failures", humanize.Comma(int64(stats["demod_failures"]))),
		slog.String("decode_failures", humanize.Comma(int64(stats["decode_failures"]))),
	)
}
