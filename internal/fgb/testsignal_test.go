package fgb

import (
	"math"

	"github.com/cospas-sarsat/beacon-core/internal/config"
	"github.com/cospas-sarsat/beacon-core/internal/iq"
)

// phaseSample returns a unit-magnitude sample at the given phase.
func phaseSample(phase float64) iq.Sample {
	return iq.Sample(complex(math.Cos(phase), math.Sin(phase)))
}

// patternBits converts a "0101..." string into a bit slice.
func patternBits(pattern string) []byte {
	bits := make([]byte, len(pattern))
	for i, c := range pattern {
		if c == '1' {
			bits[i] = 1
		}
	}
	return bits
}

// synthFGBBurst renders a clean (noiseless, zero frequency offset)
// first-generation burst: an unmodulated carrier long enough to satisfy
// CARRIER_SEARCH/CARRIER_TRACKING, followed by biphase-L symbols for the
// given header+message bits. Each bit is encoded as a ±1.25rad phase swing
// at the bit's midpoint, which is comfortably inside
// [ManchesterJumpLow, +inf) and unambiguous in sign. A '1' is the nominal
// +1.1rad→−1.1rad transition, a '0' the nominal −1.1rad→+1.1rad transition
// (spec.md §4.3.4).
func synthFGBBurst(cfg *config.Config, bits []byte) []iq.Sample {
	spb := cfg.SamplesPerBit()
	width := int(math.Round(spb))
	half := width / 2

	preambleLen := cfg.CarrierSearchWindowSamples() + cfg.CarrierPresenceRunSamples()
	out := make([]iq.Sample, 0, preambleLen+len(bits)*width)
	for i := 0; i < preambleLen; i++ {
		out = append(out, phaseSample(0))
	}

	for _, bit := range bits {
		p1, p2 := -1.25, 1.25
		if bit == 1 {
			p1, p2 = 1.25, -1.25
		}
		for i := 0; i < half; i++ {
			out = append(out, phaseSample(p1))
		}
		for i := half; i < width; i++ {
			out = append(out, phaseSample(p2))
		}
	}
	return out
}

func testFGBConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SampleRate = 4000
	cfg.BitRate = 400 // 10 samples/bit
	cfg.CarrierSearchWindowMS = 125
	cfg.FrequencyLockResidualStddev = 0.3
	cfg.FrequencyOffsetHzThreshold = 10
	cfg.CarrierPresenceRunMS = 25
	cfg.MaxConsecutiveAmbiguousBits = 5
	cfg.ManchesterJumpLow = 1.0
	cfg.ManchesterJumpHigh = 1.5
	cfg.TimingGainCoarse = 0.2
	cfg.TimingGainFine = 0.1
	cfg.TimingOffsetClampSamples = 5
	return cfg
}

func headerBits(sync FrameSyncPattern) []byte {
	bitSync := make([]byte, BitSyncLen)
	for i := range bitSync {
		bitSync[i] = 1
	}
	return append(bitSync, patternBits(string(sync))...)
}

// fixedMessageBits returns a deterministic message of n bits whose first
// bit (the format flag, spec.md §6) is forced to formatFlag: 0 selects the
// 88-bit short message, 1 the 120-bit long one.
func fixedMessageBits(n int, formatFlag byte) []byte {
	out := make([]byte, n)
	for i := range out {
		// an arbitrary but deterministic pattern, not all-identical so the
		// decoder actually exercises both symbol values.
		out[i] = byte((i*7 + i/3) % 2)
	}
	out[0] = formatFlag
	return out
}
