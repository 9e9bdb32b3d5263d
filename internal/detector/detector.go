// Package detector implements the burst detector of spec.md §4.1: it
// converts a continuous IQ stream into discrete BurstBuffers using a
// two-phase calibrate-then-detect algorithm and a three-state machine
// (IDLE / IN_BURST / BURST_COMPLETE).
package detector

import (
	"io"
	"log/slog"
	"time"

	"github.com/cospas-sarsat/beacon-core/internal/config"
	"github.com/cospas-sarsat/beacon-core/internal/iq"
	"github.com/cospas-sarsat/beacon-core/internal/metrics"
	"github.com/cospas-sarsat/beacon-core/internal/pipeline"
)

const (
	amplitudeFloor   = 1e-2
	correlationFloor = 1e-8
)

// Option configures a Detector, following the functional-options pattern
// used throughout the teacher's sdr.Device.
type Option func(*Detector)

// WithLogger attaches a logger; a discard logger is used by default.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger.With(slog.String("stage", "detector"))
	}
}

// WithMetrics attaches a Prometheus exporter for the detector's counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Detector) { d.metrics = m }
}

// WithPort attaches the "bursts" message port; publishing blocks if the
// port's bounded channel is full, which is how back-pressure (spec.md §5)
// is implemented: the detector simply stops making progress until the
// consumer drains the port.
func WithPort(p *pipeline.Port) Option {
	return func(d *Detector) { d.port = p }
}

// Detector isolates energy-bounded bursts from a continuous IQ stream
// (spec.md §4.1).
type Detector struct {
	cfg    *config.Config
	logger *slog.Logger
	stats  *pipeline.Stats
	metrics *metrics.Metrics
	port   *pipeline.Port

	feat feature

	calibrated bool
	calSamples []float64
	threshold  float64

	inBurst          bool
	burst            []iq.Sample
	burstStartOffset uint64
	silence          int

	totalSeen uint64
}

// New creates a Detector for the given configuration.
func New(cfg *config.Config, opts ...Option) *Detector {
	lag := int(cfg.SamplesPerBit())
	d := &Detector{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stats:  pipeline.NewStats(),
		feat:   newFeature(cfg.Feature, lag),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed consumes samples, producing zero or more complete bursts. Samples
// and burst_start/burst_end markers are appended to out's tagged stream
// (spec.md §6); out may be nil if the caller has no use for the tagged
// stream (it still receives the returned bursts).
func (d *Detector) Feed(samples []iq.Sample, out *pipeline.OutBuf) []*iq.BurstBuffer {
	var completed []*iq.BurstBuffer

	for _, s := range samples {
		f := d.feat.push(s)
		d.totalSeen++
		index := d.totalSeen - 1

		if out != nil {
			out.Samples = append(out.Samples, s)
		}

		if !d.calibrated {
			d.calSamples = append(d.calSamples, f)
			if len(d.calSamples) >= d.cfg.CalibrationSamples() {
				d.finishCalibration()
			}
			continue
		}

		above := f > d.threshold
		switch {
		case !d.inBurst && above:
			d.inBurst = true
			d.burst = []iq.Sample{s}
			d.burstStartOffset = index
			d.silence = 0

		case d.inBurst && above:
			d.burst = append(d.burst, s)
			d.silence = 0

		case d.inBurst && !above:
			d.burst = append(d.burst, s)
			d.silence++

			if d.silence >= d.cfg.SilenceLimitSamples() {
				if b := d.closeBurst(index, out); b != nil {
					completed = append(completed, b)
				}
				d.inBurst = false
				d.burst = nil
			}
		}
	}

	return completed
}

// closeBurst implements the BURST_COMPLETE / discard branch of the
// detection table (spec.md §4.1). It returns the finished burst, or nil if
// it was discarded for being too short.
func (d *Detector) closeBurst(endIndex uint64, out *pipeline.OutBuf) *iq.BurstBuffer {
	if len(d.burst) < d.cfg.MinBurstSamples() {
		d.stats.Inc("bursts_too_short")
		if d.metrics != nil {
			d.metrics.BurstsTooShort.Inc()
		}
		d.logger.Debug("discarding burst shorter than minimum",
			slog.Int("len", len(d.burst)),
			slog.Int("min", d.cfg.MinBurstSamples()))
		return nil
	}

	b := iq.NewBurstBuffer(d.burstStartOffset, d.burst, time.Now())

	if out != nil {
		out.BurstStart(d.burstStartOffset, b.ID.String())
		out.BurstEnd(endIndex, b.ID.String())
	}

	d.stats.Inc("bursts_detected")
	if d.metrics != nil {
		d.metrics.BurstsDetected.Inc()
	}
	d.logger.Debug("burst closed", slog.String("id", b.ID.String()), slog.Int("len", b.Len()))

	// Publishing here, before returning to the caller, means a full port
	// blocks the detector's own goroutine: no further samples are
	// evaluated against the state machine until the previous burst has
	// been taken by the consumer (spec.md §4.1 BURST_COMPLETE row, §5
	// back-pressure).
	if d.port != nil {
		d.port.Publish(b)
	}

	return b
}

func (d *Detector) finishCalibration() {
	var max float64
	for _, v := range d.calSamples {
		if v > max {
			max = v
		}
	}

	threshold := d.cfg.ThresholdFactor * max
	floor := amplitudeFloor
	if d.cfg.Feature == config.FeatureAutocorrelate {
		floor = correlationFloor
	}
	if threshold < floor {
		threshold = floor
	}

	d.threshold = threshold
	d.calibrated = true
	d.calSamples = nil

	d.logger.Debug("calibration complete", slog.Float64("threshold", threshold))
}

// ResetStatistics clears counters only (spec.md §5).
func (d *Detector) ResetStatistics() {
	d.stats.Reset()
}

// ResetState performs a full reset: it clears the state machine, discards
// any partially accumulated burst, and forgets calibration. It is safe to
// call at any time and a second call is a no-op (spec.md §5, §8).
func (d *Detector) ResetState() {
	d.calibrated = false
	d.calSamples = nil
	d.threshold = 0
	d.inBurst = false
	d.burst = nil
	d.silence = 0
	d.totalSeen = 0
	d.feat = newFeature(d.cfg.Feature, int(d.cfg.SamplesPerBit()))
}

// BurstsDetected returns the number of bursts closed so far.
func (d *Detector) BurstsDetected() uint64 {
	return d.stats.Get("bursts_detected")
}

// BurstsTooShort returns the number of candidate bursts discarded for
// being shorter than the configured minimum.
func (d *Detector) BurstsTooShort() uint64 {
	return d.stats.Get("bursts_too_short")
}

// Calibrated reports whether the calibration window has completed.
func (d *Detector) Calibrated() bool {
	return d.calibrated
}
