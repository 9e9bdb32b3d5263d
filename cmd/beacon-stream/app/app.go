package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	decodeapp "github.com/cospas-sarsat/beacon-core/cmd/beacon-decode/app"
	"github.com/cospas-sarsat/beacon-core/internal/metrics"
	"github.com/cospas-sarsat/beacon-core/internal/telemetry"
)

// Run starts the websocket server and drives the pipeline Runner with the
// Hub as its sink, so every decoded BeaconRecord is broadcast live to
// whatever subscribers are connected at the time (there is no replay
// buffer for a record missed before a client joins, per spec.md §1's
// "no persistence of decoded beacons" non-goal).
func Run(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	source, err := decodeapp.OpenSampleSource(cfg.Input.Path, cfg.Input.Format)
	if err != nil {
		return fmt.Errorf("opening sample source: %w", err)
	}
	defer source.Close()

	hub := NewHub(logger)
	srv := NewServer(hub, logger)
	httpServer := &http.Server{Addr: cfg.Listen.Addr, Handler: srv.Handler()}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("websocket server stopped", slog.String("err", err.Error()))
		}
	}()
	defer httpServer.Close()

	m := metrics.New(prometheus.NewRegistry())

	var opts []decodeapp.Option
	if cfg.Telemetry.Enabled {
		fix := &telemetry.StationFix{
			Timestamp: time.Now().UTC(),
			Latitude:  cfg.Telemetry.Latitude,
			Longitude: cfg.Telemetry.Longitude,
			Altitude:  cfg.Telemetry.Altitude,
		}
		opts = append(opts, decodeapp.WithTelemetry(telemetry.NewStaticProvider(fix)))
	}

	runner := decodeapp.NewRunner(cfg.Pipeline, source, cfg.Input.ChunkSamples, hub, logger, m, opts...)
	logger.Info("beacon-stream listening", slog.String("addr", cfg.Listen.Addr))
	return runner.Run(ctx)
}
