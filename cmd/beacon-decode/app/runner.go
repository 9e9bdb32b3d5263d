package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cospas-sarsat/beacon-core/internal/config"
	"github.com/cospas-sarsat/beacon-core/internal/decoder"
	"github.com/cospas-sarsat/beacon-core/internal/detector"
	"github.com/cospas-sarsat/beacon-core/internal/fgb"
	"github.com/cospas-sarsat/beacon-core/internal/iq"
	"github.com/cospas-sarsat/beacon-core/internal/metrics"
	"github.com/cospas-sarsat/beacon-core/internal/pipeline"
	"github.com/cospas-sarsat/beacon-core/internal/router"
	"github.com/cospas-sarsat/beacon-core/internal/sgb"
	"github.com/cospas-sarsat/beacon-core/internal/telemetry"
)

const portCapacity = 8

// Option configures a Runner, following the functional-options pattern
// internal/detector, internal/router, internal/fgb etc. all use.
type Option func(*Runner)

// WithTelemetry attaches a provider of the receiving station's position;
// every decoded event is tagged with its most recent fix, mirroring the
// teacher's Orchestrator.WithTelemetry (cmd/sweeper/app/orchestrator.go),
// adapted from "enrich a stored sweep sample" to "enrich a decoded beacon
// record".
func WithTelemetry(provider telemetry.Provider) Option {
	return func(r *Runner) { r.telemetry = provider }
}

// Runner is the external collaborator spec.md §2/§5 describes as driving
// the pipeline: it owns the sample source, invokes each stage's feed()/
// Route()/Demodulate()/Decode() operations, and fans decoded records out
// to a Sink. It cannot live in internal/pipeline itself, because every
// stage package already imports internal/pipeline for Port/Stats/error
// types; a Runner referencing those concrete stage packages from inside
// internal/pipeline would import them back and cycle (DESIGN.md).
//
// Each individual stage remains the single-threaded cooperative unit
// spec.md §5 specifies - Feed, Route, Demodulate and Decode are never
// called concurrently with themselves. What Runner adds is concurrency
// *across* stages, the way a real receiver overlaps I/O with demodulation:
// one goroutine feeds samples and routes bursts, one drains each
// demodulator's port, and one goroutine serializes writes to the Sink.
type Runner struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	stats   *pipeline.Stats

	telemetry telemetry.Provider

	source       *SampleSource
	chunkSamples int
	sink         Sink

	det      *detector.Detector
	rtr      *router.Router
	fgbDemod *fgb.Demodulator
	sgbDemod *sgb.Demodulator
	dec      *decoder.Decoder

	fgbPort *pipeline.Port
	sgbPort *pipeline.Port
}

// NewRunner wires a complete pipeline from a pipeline configuration, a
// sample source and an output sink.
func NewRunner(cfg *config.Config, source *SampleSource, chunkSamples int, sink Sink, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fgbPort := pipeline.NewPort("bursts_1g", portCapacity)
	sgbPort := pipeline.NewPort("bursts_2g", portCapacity)

	r := &Runner{
		logger:       logger,
		metrics:      m,
		stats:        pipeline.NewStats(),
		source:       source,
		chunkSamples: chunkSamples,
		sink:         sink,
		det:          detector.New(cfg, detector.WithLogger(logger), detector.WithMetrics(m)),
		rtr: router.New(cfg, router.WithLogger(logger), router.WithMetrics(m),
			router.WithFGBPort(fgbPort), router.WithSGBPort(sgbPort)),
		fgbDemod: fgb.New(cfg, fgb.WithLogger(logger), fgb.WithMetrics(m)),
		sgbDemod: sgb.New(cfg, sgb.WithLogger(logger), sgb.WithMetrics(m)),
		dec:      decoder.New(decoder.WithLogger(logger), decoder.WithMetrics(m)),
		fgbPort:  fgbPort,
		sgbPort:  sgbPort,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drives the pipeline to completion: it feeds the entire sample
// source through detector and router, demodulates and decodes every
// routed burst, and writes every resulting DecodedEvent to the sink. It
// returns the first error encountered by any stage (errgroup.WithContext
// cancels every other goroutine's context the moment one occurs), except
// io.EOF from the sample source, which just means the capture ended.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	results := make(chan DecodedEvent, portCapacity)

	var consumers sync.WaitGroup
	consumers.Add(2)

	g.Go(func() error {
		defer consumers.Done()
		return r.consumeFGB(ctx, results)
	})
	g.Go(func() error {
		defer consumers.Done()
		return r.consumeSGB(ctx, results)
	})
	g.Go(func() error {
		defer func() {
			r.fgbPort.Close()
			r.sgbPort.Close()
		}()
		return r.feedLoop(ctx)
	})

	writerDone := make(chan struct{})
	g.Go(func() error {
		defer close(writerDone)
		return r.writeResults(results)
	})

	go func() {
		consumers.Wait()
		close(results)
	}()

	err := g.Wait()
	<-writerDone
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// feedLoop reads chunks from the sample source and pushes them through
// the detector and router, stopping at end of stream or ctx cancellation.
func (r *Runner) feedLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		samples, err := r.source.Next(r.chunkSamples)
		if len(samples) > 0 {
			bursts := r.det.Feed(samples, nil)
			for _, b := range bursts {
				r.routeBurst(ctx, b)
			}
		}
		if err != nil {
			return err
		}
	}
}

// routeBurst classifies one closed burst. The router itself already
// serializes Route calls (internal/router.Router.mu) and blocks on a full
// output port, which is feedLoop's only back-pressure mechanism: a slow
// demodulator stalls sample ingestion rather than dropping bursts.
func (r *Runner) routeBurst(ctx context.Context, b *iq.BurstBuffer) {
	select {
	case <-ctx.Done():
		return
	default:
	}
	r.rtr.Route(b, nil)
}

func (r *Runner) consumeFGB(ctx context.Context, results chan<- DecodedEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-r.fgbPort.Chan():
			if !ok {
				return nil
			}
			r.demodulateAndDecode(ctx, b, r.fgbDemod.Demodulate, results)
		}
	}
}

func (r *Runner) consumeSGB(ctx context.Context, results chan<- DecodedEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-r.sgbPort.Chan():
			if !ok {
				return nil
			}
			r.demodulateAndDecode(ctx, b, r.sgbDemod.Demodulate, results)
		}
	}
}

// demodulateAndDecode runs one burst through a demodulator and the
// decoder. A SyncLost error from the demodulator is logged
// and the burst is dropped (spec.md §7: the pipeline never aborts on data
// errors); a MalformedFrame from the decoder is likewise logged, not
// fatal - only Runner's own I/O errors propagate. The result send
// respects ctx so a consumer never blocks forever once the writer has
// exited and stopped draining results.
func (r *Runner) demodulateAndDecode(ctx context.Context, b *iq.BurstBuffer, demodulate func(*iq.BurstBuffer) (*fgb.DemodulatedFrame, error), results chan<- DecodedEvent) {
	frame, err := demodulate(b)
	if err != nil {
		r.stats.Inc("demod_failures")
		r.logger.Debug("demodulation failed", slog.String("burst_id", b.ID.String()), slog.String("err", err.Error()))
		return
	}

	rec, err := r.dec.Decode(frame)
	if err != nil {
		r.stats.Inc("decode_failures")
		r.logger.Warn("decode failed", slog.String("burst_id", b.ID.String()), slog.String("err", err.Error()))
		return
	}

	ev := DecodedEvent{
		BurstID:       b.ID.String(),
		CaptureOffset: b.CaptureOffset,
		Record:        rec,
	}
	if r.telemetry != nil {
		ev.StationFix = r.telemetry.Get()
	}

	select {
	case results <- ev:
	case <-ctx.Done():
	}
}

func (r *Runner) writeResults(results <-chan DecodedEvent) error {
	for ev := range results {
		if err := r.sink.Write(ev); err != nil {
			return fmt.Errorf("writing decoded event: %w", err)
		}
	}
	return nil
}

// Stats returns the Runner's own counters (demod_failures, decode_failures),
// distinct from each stage's internal Stats.
func (r *Runner) Stats() map[string]uint64 { return r.stats.Snapshot() }
