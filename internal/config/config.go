// Package config defines the in-memory configuration surface for the
// pipeline (spec.md §6). There is deliberately no on-disk loader here: the
// caller sources the bytes (environment, embedded default, a remote
// fetch, a test fixture) and hands them to ParseConfig, or constructs a
// Config directly.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FeatureKind selects the burst-detector's feature signal (spec.md §4.1).
type FeatureKind string

const (
	FeatureAmplitude     FeatureKind = "amplitude"
	FeatureAutocorrelate FeatureKind = "autocorrelation"
)

// Config carries every tunable named in spec.md §6 plus the detector and
// demodulator constants from §4.1-§4.3 that a deployment may need to adapt
// to a different front end.
type Config struct {
	// SampleRate in Hz. Controls samples-per-bit, carrier-window length,
	// etc. (spec.md §6).
	SampleRate float64 `yaml:"sampleRate"`

	// BitRate in bits/sec, 400 for FGB biphase-L.
	BitRate float64 `yaml:"bitRate"`

	// BufferDurationMS is reserved storage for the detector's history
	// buffer (spec.md §6); informational in this implementation since
	// Go's slice growth makes pre-sizing optional, but exposed for
	// parity with the original configuration surface.
	BufferDurationMS int `yaml:"bufferDurationMs"`

	// ThresholdFactor multiplies the calibration-window feature maximum
	// to set the detection trigger level (spec.md §4.1).
	ThresholdFactor float64 `yaml:"thresholdFactor"`

	// MinBurstDurationMS: bursts shorter than this are discarded.
	MinBurstDurationMS float64 `yaml:"minBurstDurationMs"`

	// CalibrationDurationMS is the calibration window length, nominally
	// 500ms (spec.md §4.1).
	CalibrationDurationMS float64 `yaml:"calibrationDurationMs"`

	// SilenceLimitMS is the silence timeout before a burst is closed,
	// 10-50ms (spec.md §4.1).
	SilenceLimitMS float64 `yaml:"silenceLimitMs"`

	// Feature selects amplitude or autocorrelation-magnitude as the
	// detector's feature signal (spec.md §4.1).
	Feature FeatureKind `yaml:"feature"`

	// DebugMode is part of the configuration surface but no stage reads
	// it: log verbosity is set by the level of the slog handler the
	// caller supplies, not by this flag.
	DebugMode bool `yaml:"debugMode"`

	// SizeThresholdSamples is the FGB/SGB classification boundary
	// (spec.md §4.2), default 25000 samples at 40kHz nominal.
	SizeThresholdSamples int `yaml:"sizeThresholdSamples"`

	// PhaseStabilityWindowMS is the 160ms confirmation window used by the
	// router's secondary classification check (spec.md §4.2).
	PhaseStabilityWindowMS float64 `yaml:"phaseStabilityWindowMs"`

	// PhaseStabilityStddev is the σ threshold (rad) below which the
	// router treats the window as an unmodulated FGB carrier.
	PhaseStabilityStddev float64 `yaml:"phaseStabilityStddev"`

	// CarrierSearchWindowMS is the window over which CARRIER_SEARCH
	// accumulates unwrapped phase for the frequency-offset linear fit
	// (spec.md §4.3.2), nominally 125ms (5000 samples @ 40kHz).
	CarrierSearchWindowMS float64 `yaml:"carrierSearchWindowMs"`

	// FrequencyLockResidualStddev is the σ (rad) of the linear-fit
	// residual below which the frequency-offset estimate is accepted as
	// locked (spec.md §4.3.2).
	FrequencyLockResidualStddev float64 `yaml:"frequencyLockResidualStddev"`

	// FrequencyOffsetHzThreshold: a locked offset estimate whose
	// magnitude exceeds this many Hz is applied as a per-sample phase
	// de-rotation correction before CARRIER_TRACKING (spec.md §4.3.2).
	FrequencyOffsetHzThreshold float64 `yaml:"frequencyOffsetHzThreshold"`

	// CarrierPresenceRunMS is the run length of consecutive above-floor
	// samples CARRIER_TRACKING requires before declaring carrier presence
	// confirmed and advancing to BIT_SYNC (spec.md §4.3.3).
	CarrierPresenceRunMS float64 `yaml:"carrierPresenceRunMs"`

	// MaxConsecutiveAmbiguousBits is the number of consecutive '?' bit
	// decisions that forces a reset to CARRIER_SEARCH (spec.md §4.3.6).
	MaxConsecutiveAmbiguousBits int `yaml:"maxConsecutiveAmbiguousBits"`

	// ManchesterJumpLow is the minimum half-bit phase-difference
	// magnitude (rad) that the bit decision treats as a genuine biphase-L
	// transition rather than an ambiguous one (spec.md §4.3.4).
	// ManchesterJumpHigh must exceed it (Validate checks this) but places
	// no upper bound on the bit decision.
	ManchesterJumpLow  float64 `yaml:"manchesterJumpLow"`
	ManchesterJumpHigh float64 `yaml:"manchesterJumpHigh"`

	// TimingGainCoarse/Fine are the proportional gains applied to the
	// measured edge-timing error while adjusting the sampling-instant
	// offset μ, coarse during BIT_SYNC and fine from FRAME_SYNC onward
	// (spec.md §4.3.5).
	TimingGainCoarse float64 `yaml:"timingGainCoarse"`
	TimingGainFine   float64 `yaml:"timingGainFine"`

	// TimingOffsetClampSamples bounds how far μ may drift per bit, to
	// keep a single bad edge measurement from derailing acquisition
	// (spec.md §4.3.5).
	TimingOffsetClampSamples float64 `yaml:"timingOffsetClampSamples"`
}

// DefaultConfig returns the nominal values used throughout spec.md §4: a
// 40kHz sample rate, 400bps biphase-L, 10ms silence timeout, amplitude
// feature detection.
func DefaultConfig() *Config {
	return &Config{
		SampleRate:              40_000,
		BitRate:                 400,
		BufferDurationMS:        2_000,
		ThresholdFactor:         3.0,
		MinBurstDurationMS:      300,
		CalibrationDurationMS:   500,
		SilenceLimitMS:          10,
		Feature:                 FeatureAmplitude,
		DebugMode:               false,
		SizeThresholdSamples:    25_000,
		PhaseStabilityWindowMS:  160,
		PhaseStabilityStddev:    0.3,

		CarrierSearchWindowMS:       125,
		FrequencyLockResidualStddev: 0.3,
		FrequencyOffsetHzThreshold:  10,
		CarrierPresenceRunMS:        25,
		MaxConsecutiveAmbiguousBits: 5,
		ManchesterJumpLow:           1.0,
		ManchesterJumpHigh:          1.5,
		TimingGainCoarse:            0.2,
		TimingGainFine:              0.1,
		TimingOffsetClampSamples:    25,
	}
}

// SamplesPerBit returns the nominal (unmeasured) Manchester bit period in
// samples, SampleRate/BitRate (spec.md §4.3.4).
func (c *Config) SamplesPerBit() float64 {
	return c.SampleRate / c.BitRate
}

// CalibrationSamples returns the calibration window length in samples.
func (c *Config) CalibrationSamples() int {
	return int(c.CalibrationDurationMS / 1000 * c.SampleRate)
}

// SilenceLimitSamples returns the silence timeout in samples.
func (c *Config) SilenceLimitSamples() int {
	return int(c.SilenceLimitMS / 1000 * c.SampleRate)
}

// MinBurstSamples returns the minimum burst length in samples.
func (c *Config) MinBurstSamples() int {
	return int(c.MinBurstDurationMS / 1000 * c.SampleRate)
}

// PhaseStabilityWindowSamples returns the router's confirmation-window
// length in samples.
func (c *Config) PhaseStabilityWindowSamples() int {
	return int(c.PhaseStabilityWindowMS / 1000 * c.SampleRate)
}

// CarrierSearchWindowSamples returns the frequency-offset fit window length
// in samples.
func (c *Config) CarrierSearchWindowSamples() int {
	return int(c.CarrierSearchWindowMS / 1000 * c.SampleRate)
}

// CarrierPresenceRunSamples returns the above-floor run length required to
// confirm carrier presence.
func (c *Config) CarrierPresenceRunSamples() int {
	return int(c.CarrierPresenceRunMS / 1000 * c.SampleRate)
}

// Validate checks that the configuration describes a physically sensible
// pipeline, following the teacher's Validate()-before-use idiom
// (internal/sdr/rtl.Config.Validate).
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("config: sampleRate must be positive: %v", c.SampleRate)
	}
	if c.BitRate <= 0 {
		return fmt.Errorf("config: bitRate must be positive: %v", c.BitRate)
	}
	if c.SamplesPerBit() < 2 {
		return fmt.Errorf("config: sampleRate/bitRate too low to resolve a Manchester half-bit: %v", c.SamplesPerBit())
	}
	if c.ThresholdFactor <= 0 {
		return fmt.Errorf("config: thresholdFactor must be positive: %v", c.ThresholdFactor)
	}
	if c.MinBurstDurationMS <= 0 {
		return fmt.Errorf("config: minBurstDurationMs must be positive: %v", c.MinBurstDurationMS)
	}
	if c.CalibrationDurationMS <= 0 {
		return fmt.Errorf("config: calibrationDurationMs must be positive: %v", c.CalibrationDurationMS)
	}
	if c.SilenceLimitMS <= 0 {
		return fmt.Errorf("config: silenceLimitMs must be positive: %v", c.SilenceLimitMS)
	}
	switch c.Feature {
	case FeatureAmplitude, FeatureAutocorrelate:
	default:
		return fmt.Errorf("config: unknown feature kind: %q", c.Feature)
	}
	if c.SizeThresholdSamples <= 0 {
		return fmt.Errorf("config: sizeThresholdSamples must be positive: %d", c.SizeThresholdSamples)
	}
	if c.PhaseStabilityWindowMS <= 0 {
		return fmt.Errorf("config: phaseStabilityWindowMs must be positive: %v", c.PhaseStabilityWindowMS)
	}
	if c.PhaseStabilityStddev <= 0 {
		return fmt.Errorf("config: phaseStabilityStddev must be positive: %v", c.PhaseStabilityStddev)
	}
	if c.CarrierSearchWindowMS <= 0 {
		return fmt.Errorf("config: carrierSearchWindowMs must be positive: %v", c.CarrierSearchWindowMS)
	}
	if c.FrequencyLockResidualStddev <= 0 {
		return fmt.Errorf("config: frequencyLockResidualStddev must be positive: %v", c.FrequencyLockResidualStddev)
	}
	if c.CarrierPresenceRunMS <= 0 {
		return fmt.Errorf("config: carrierPresenceRunMs must be positive: %v", c.CarrierPresenceRunMS)
	}
	if c.MaxConsecutiveAmbiguousBits <= 0 {
		return fmt.Errorf("config: maxConsecutiveAmbiguousBits must be positive: %d", c.MaxConsecutiveAmbiguousBits)
	}
	if c.ManchesterJumpLow <= 0 || c.ManchesterJumpHigh <= c.ManchesterJumpLow {
		return fmt.Errorf("config: manchesterJumpLow/High must satisfy 0 < low < high: %v/%v", c.ManchesterJumpLow, c.ManchesterJumpHigh)
	}
	if c.TimingGainCoarse <= 0 || c.TimingGainFine <= 0 {
		return fmt.Errorf("config: timingGainCoarse/Fine must be positive: %v/%v", c.TimingGainCoarse, c.TimingGainFine)
	}
	if c.TimingOffsetClampSamples <= 0 {
		return fmt.Errorf("config: timingOffsetClampSamples must be positive: %v", c.TimingOffsetClampSamples)
	}
	return nil
}

// ParseConfig unmarshals a YAML-encoded Config already held in memory. It
// never reads from the filesystem; sourcing the bytes is the caller's
// responsibility (see spec.md §1 Non-goals: no on-disk configuration
// loader).
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
