package fgb

import (
	"io"
	"log/slog"
	"math"

	"github.com/cospas-sarsat/beacon-core/internal/config"
	"github.com/cospas-sarsat/beacon-core/internal/iq"
	"github.com/cospas-sarsat/beacon-core/internal/metrics"
	"github.com/cospas-sarsat/beacon-core/internal/pipeline"
)

const (
	carrierFloor        = 5e-3 // minimum |sample| treated as "carrier present"
	maxAcquisitionTries = 4
)

// state is one of the five acquisition states of spec.md §4.3.1.
type state int

const (
	stateCarrierSearch state = iota
	stateCarrierTracking
	stateBitSync
	stateFrameSync
	stateMessage
)

func (s state) String() string {
	switch s {
	case stateCarrierSearch:
		return "CARRIER_SEARCH"
	case stateCarrierTracking:
		return "CARRIER_TRACKING"
	case stateBitSync:
		return "BIT_SYNC"
	case stateFrameSync:
		return "FRAME_SYNC"
	case stateMessage:
		return "MESSAGE"
	default:
		return "UNKNOWN"
	}
}

// Option configures a Demodulator.
type Option func(*Demodulator)

// WithLogger attaches a logger; a discard logger is used by default.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Demodulator) {
		d.logger = logger.With(slog.String("stage", "fgb"))
	}
}

// WithMetrics attaches a Prometheus exporter for the demodulator's
// counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Demodulator) { d.metrics = m }
}

// Demodulator recovers a 112 or 144-bit frame from a first-generation
// burst (spec.md §4.3): carrier acquisition, frequency-offset correction,
// Manchester bit recovery and timing tracking, frame-sync pattern
// matching.
type Demodulator struct {
	cfg     *config.Config
	logger  *slog.Logger
	stats   *pipeline.Stats
	metrics *metrics.Metrics
}

// New creates a Demodulator for the given configuration.
func New(cfg *config.Config, opts ...Option) *Demodulator {
	d := &Demodulator{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stats:  pipeline.NewStats(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Demodulate attempts to recover exactly one frame from a captured FGB
// burst. It may retry acquisition from successive starting points within
// the same burst after a sync-loss reset (spec.md §4.3.6), bounded by
// maxAcquisitionTries, before giving up and returning a *pipeline.SyncLostError.
func (d *Demodulator) Demodulate(b *iq.BurstBuffer) (*DemodulatedFrame, error) {
	samples := b.Samples
	start := 0
	var lastErr error

	for try := 0; try < maxAcquisitionTries && start < len(samples); try++ {
		frame, nextStart, err := d.acquire(samples, start)
		if frame != nil {
			d.stats.Inc("frames_decoded")
			if d.metrics != nil {
				kind := "fgb_short"
				if frame.IsLong() {
					kind = "fgb_long"
				}
				d.metrics.FramesDecoded.WithLabelValues(kind).Inc()
			}
			return frame, nil
		}
		lastErr = err
		start = nextStart
	}

	if lastErr == nil {
		lastErr = &pipeline.SyncLostError{State: stateCarrierSearch.String(), ConsecutiveAmbiguous: 0}
	}
	return nil, lastErr
}

// acquire runs the five-state machine once starting at samples[from:]. It
// returns the decoded frame, or nil plus the sample index the caller
// should resume scanning from on failure.
func (d *Demodulator) acquire(samples []iq.Sample, from int) (*DemodulatedFrame, int, error) {
	st := stateCarrierSearch
	cursor := from

	fe := newFreqEstimator(d.cfg.SampleRate, d.cfg.CarrierSearchWindowSamples())
	var correctionPerSample float64 // radians of de-rotation applied per sample, frozen once set
	var offsetHz float64

	presenceRun := 0
	var clock *bitClock

	var bitSyncBits []byte
	var frameSyncBits []byte
	var messageBits []byte
	var messageTarget int
	ambiguousRun := 0
	ambiguousTotal := 0

	fail := func(reachedState state) (*DemodulatedFrame, int, error) {
		d.stats.Inc("sync_failures")
		if d.metrics != nil {
			d.metrics.SyncFailures.WithLabelValues(reachedState.String()).Inc()
		}
		d.logger.Debug("sync lost", slog.String("state", reachedState.String()), slog.Int("at", cursor))
		next := from + d.cfg.CarrierSearchWindowSamples()
		if next <= from {
			next = from + 1
		}
		return nil, next, &pipeline.SyncLostError{State: reachedState.String(), ConsecutiveAmbiguous: ambiguousRun}
	}

	for cursor < len(samples) {
		switch st {
		case stateCarrierSearch:
			s := samples[cursor]
			if s.Abs() >= carrierFloor {
				fe.push(s.Phase())
			}
			cursor++

			if fe.Len() < d.cfg.CarrierSearchWindowSamples() {
				continue
			}

			off, residual := fe.estimate()
			if residual > d.cfg.FrequencyLockResidualStddev {
				// Not a clean linear ramp yet: discard the window and
				// start a fresh one, looking for a stable carrier.
				fe.Reset()
				continue
			}

			offsetHz = off
			if math.Abs(offsetHz) > d.cfg.FrequencyOffsetHzThreshold {
				correctionPerSample = 2 * math.Pi * offsetHz / d.cfg.SampleRate
				// Freeze the correction now and de-rotate every sample from
				// here to the end of the burst once, rather than redoing it
				// per bit (spec.md §4.3.2: correction is frozen at lock).
				base := cursor
				rotated := make([]iq.Sample, len(samples))
				copy(rotated, samples[:base])
				for i := base; i < len(samples); i++ {
					rotated[i] = samples[i].Rotate(correctionPerSample * float64(i-base))
				}
				samples = rotated
			}
			presenceRun = 0
			st = stateCarrierTracking

		case stateCarrierTracking:
			s := samples[cursor]
			if s.Abs() >= carrierFloor {
				presenceRun++
			} else {
				presenceRun = 0
			}
			cursor++

			if presenceRun >= d.cfg.CarrierPresenceRunSamples() {
				clock = newBitClock(d.cfg, float64(cursor), d.cfg.SamplesPerBit())
				bitSyncBits = make([]byte, 0, BitSyncLen)
				ambiguousRun = 0
				st = stateBitSync
			}

		case stateBitSync:
			if !clock.hasRoom(len(samples)) {
				return fail(st)
			}
			bit, ambiguous := clock.decodeBit(samples)
			if ambiguous {
				ambiguousRun++
				ambiguousTotal++
				if ambiguousRun >= d.cfg.MaxConsecutiveAmbiguousBits {
					return fail(st)
				}
			} else {
				ambiguousRun = 0
			}
			bitSyncBits = append(bitSyncBits, bit)
			cursor = int(math.Round(clock.pos))

			if len(bitSyncBits) >= BitSyncLen {
				clock.useFineGain()
				frameSyncBits = make([]byte, 0, FrameSyncLen)
				ambiguousRun = 0
				st = stateFrameSync
			}

		case stateFrameSync:
			if !clock.hasRoom(len(samples)) {
				return fail(st)
			}
			bit, ambiguous := clock.decodeBit(samples)
			if ambiguous {
				ambiguousRun++
				ambiguousTotal++
				if ambiguousRun >= d.cfg.MaxConsecutiveAmbiguousBits {
					return fail(st)
				}
			} else {
				ambiguousRun = 0
			}
			frameSyncBits = append(frameSyncBits, bit)
			cursor = int(math.Round(clock.pos))

			if len(frameSyncBits) >= FrameSyncLen {
				messageTarget = LongMsgLen // upper bound; narrowed once the format-flag bit arrives
				messageBits = make([]byte, 0, messageTarget)
				ambiguousRun = 0
				st = stateMessage
			}

		case stateMessage:
			if !clock.hasRoom(len(samples)) {
				return fail(st)
			}
			bit, ambiguous := clock.decodeBit(samples)
			if ambiguous {
				ambiguousRun++
				ambiguousTotal++
				if ambiguousRun >= d.cfg.MaxConsecutiveAmbiguousBits {
					return fail(st)
				}
			} else {
				ambiguousRun = 0
			}

			// The first message bit is the format flag (spec.md §6): 1
			// selects the 120-bit long message, 0 the 88-bit short one.
			// This mirrors the original decoder's STATE_DATA_DECODE, which
			// keys d_is_long_frame off d_bit_count==0 rather than any
			// duration heuristic.
			if len(messageBits) == 0 {
				if bit == 1 {
					messageTarget = LongMsgLen
				} else {
					messageTarget = ShortMsgLen
				}
			}

			messageBits = append(messageBits, bit)
			cursor = int(math.Round(clock.pos))

			if len(messageBits) >= messageTarget {
				return d.buildFrame(bitSyncBits, frameSyncBits, messageBits, clock.spb, offsetHz, ambiguousTotal)
			}
		}
	}

	return fail(st)
}

func (d *Demodulator) buildFrame(bitSync, frameSync, message []byte, spb, offsetHz float64, ambiguousBits int) (*DemodulatedFrame, int, error) {
	pattern := FrameSyncPattern(bitsToPattern(frameSync))
	warn := false
	known := false
	for _, p := range KnownFrameSyncPatterns {
		if p == pattern {
			known = true
			if p == FrameSyncAlternate {
				warn = true
			}
			break
		}
	}
	if !known {
		warn = true
	}

	all := make([]byte, 0, len(bitSync)+len(frameSync)+len(message))
	all = append(all, bitSync...)
	all = append(all, frameSync...)
	all = append(all, message...)

	frame := &DemodulatedFrame{
		Bits:      all,
		Class:     iq.ClassFGB,
		FrameSync: pattern,
		SyncWarn:  warn,
		Quality: Quality{
			SamplesPerBit:   spb,
			FrequencyOffset: offsetHz,
			AmbiguousBits:   ambiguousBits,
		},
	}
	return frame, len(all), nil
}
