// Package router implements the burst router of spec.md §4.2: it
// classifies a closed BurstBuffer as FGB or SGB and delivers it atomically
// to exactly one downstream demodulator channel.
package router

import (
	"io"
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/cospas-sarsat/beacon-core/internal/config"
	"github.com/cospas-sarsat/beacon-core/internal/iq"
	"github.com/cospas-sarsat/beacon-core/internal/metrics"
	"github.com/cospas-sarsat/beacon-core/internal/pipeline"
)

// Option configures a Router.
type Option func(*Router)

// WithLogger attaches a logger; a discard logger is used by default.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger.With(slog.String("stage", "router"))
	}
}

// WithMetrics attaches a Prometheus exporter for the router's counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithFGBPort attaches the output port a classified FGB burst is published
// to.
func WithFGBPort(p *pipeline.Port) Option {
	return func(r *Router) { r.fgbPort = p }
}

// WithSGBPort attaches the output port a classified SGB burst is published
// to.
func WithSGBPort(p *pipeline.Port) Option {
	return func(r *Router) { r.sgbPort = p }
}

// Router classifies bursts and steers them to the correct demodulator
// (spec.md §4.2).
type Router struct {
	cfg     *config.Config
	logger  *slog.Logger
	stats   *pipeline.Stats
	metrics *metrics.Metrics

	fgbPort *pipeline.Port
	sgbPort *pipeline.Port

	// mu serializes Route calls so that a burst is always delivered
	// atomically to one output before the next burst is accepted
	// (spec.md §4.2 "Concurrency note", §5 back-pressure).
	mu sync.Mutex
}

// New creates a Router for the given configuration.
func New(cfg *config.Config, opts ...Option) *Router {
	r := &Router{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stats:  pipeline.NewStats(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route classifies b and publishes it on the matching output port. The
// tagged stream's burst_start/burst_end markers are written to out (which
// may be nil) at b's original capture offsets, per spec.md §6. Counters
// bursts_1g/bursts_2g are incremented at the moment classification is
// committed, before the burst is handed to the (possibly blocking) output
// port, so a terminated pipeline still reports an accurate count
// (spec.md §4.2).
func (r *Router) Route(b *iq.BurstBuffer, out *pipeline.OutBuf) iq.BurstClass {
	r.mu.Lock()
	defer r.mu.Unlock()

	class := r.classify(b)

	switch class {
	case iq.ClassFGB:
		r.stats.Inc("bursts_1g")
		if r.metrics != nil {
			r.metrics.Bursts1G.Inc()
		}
	case iq.ClassSGB:
		r.stats.Inc("bursts_2g")
		if r.metrics != nil {
			r.metrics.Bursts2G.Inc()
		}
	}

	r.logger.Debug("burst routed",
		slog.String("id", b.ID.String()),
		slog.String("class", class.String()),
		slog.Int("len", b.Len()))

	if out != nil {
		end := b.CaptureOffset
		if b.Len() > 0 {
			end += uint64(b.Len()) - 1
		}
		out.BurstStart(b.CaptureOffset, b.ID.String())
		out.Samples = append(out.Samples, b.Samples...)
		out.BurstEnd(end, b.ID.String())
	}

	switch class {
	case iq.ClassFGB:
		if r.fgbPort != nil {
			r.fgbPort.Publish(b)
		}
	case iq.ClassSGB:
		if r.sgbPort != nil {
			r.sgbPort.Publish(b)
		}
	}

	return class
}

// classify implements the length-threshold primary rule plus the
// phase-stability secondary confirmation of spec.md §4.2.
func (r *Router) classify(b *iq.BurstBuffer) iq.BurstClass {
	n := b.Len()

	if n < r.cfg.SizeThresholdSamples {
		return iq.ClassFGB
	}

	if n < 2*r.cfg.SizeThresholdSamples && r.hasStableCarrier(b) {
		return iq.ClassFGB
	}

	return iq.ClassSGB
}

// hasStableCarrier measures phase stability over the first
// PhaseStabilityWindowSamples of b: an unmodulated FGB-style carrier shows
// a low standard deviation of sample-to-sample phase differences.
func (r *Router) hasStableCarrier(b *iq.BurstBuffer) bool {
	window := r.cfg.PhaseStabilityWindowSamples()
	if window > b.Len() {
		window = b.Len()
	}
	if window < 2 {
		return false
	}

	diffs := make([]float64, 0, window-1)
	prevPhase := b.Samples[0].Phase()
	for i := 1; i < window; i++ {
		phase := b.Samples[i].Phase()
		diffs = append(diffs, iq.WrapPhase(phase-prevPhase))
		prevPhase = phase
	}

	_, std := stat.MeanStdDev(diffs, nil)
	return std < r.cfg.PhaseStabilityStddev
}

// Bursts1G returns the number of bursts classified as first-generation.
func (r *Router) Bursts1G() uint64 { return r.stats.Get("bursts_1g") }

// Bursts2G returns the number of bursts classified as second-generation.
func (r *Router) Bursts2G() uint64 { return r.stats.Get("bursts_2g") }

// ResetStatistics clears counters only (spec.md §5).
func (r *Router) ResetStatistics() { r.stats.Reset() }
