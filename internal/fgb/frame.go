// Package fgb implements the first-generation-beacon demodulator of
// spec.md §4.3: a five-state acquisition machine (carrier search, carrier
// tracking, bit sync, frame sync, message) built on three estimators
// (frequency offset, carrier presence, Manchester bit timing).
package fgb

import "github.com/cospas-sarsat/beacon-core/internal/iq"

const (
	BitSyncLen   = 15  // leading all-ones preamble
	FrameSyncLen = 9   // frame-sync pattern
	ShortMsgLen  = 88  // message bits, short frame
	LongMsgLen   = 120 // message bits, long frame

	ShortFrameLen = BitSyncLen + FrameSyncLen + ShortMsgLen // 112
	LongFrameLen  = BitSyncLen + FrameSyncLen + LongMsgLen  // 144
)

// FrameSyncPattern is one of the known 9-bit frame-sync patterns
// (spec.md §6, §9 Open Question c).
type FrameSyncPattern string

const (
	FrameSyncNormal    FrameSyncPattern = "000101111"
	FrameSyncTest      FrameSyncPattern = "011010000"
	FrameSyncAlternate FrameSyncPattern = "001010010" // undocumented meaning; accepted with a warning
	FrameSyncAlternate2 FrameSyncPattern = "110101000"
)

// KnownFrameSyncPatterns lists every pattern the demodulator accepts
// without flagging a sync warning, except FrameSyncAlternate which is
// accepted but always warned about per spec.md §9(c).
var KnownFrameSyncPatterns = []FrameSyncPattern{
	FrameSyncNormal,
	FrameSyncTest,
	FrameSyncAlternate,
	FrameSyncAlternate2,
}

// Quality summarizes the demodulator's confidence in a frame, carried on
// DemodulatedFrame (spec.md §3).
type Quality struct {
	SamplesPerBit   float64
	FrequencyOffset float64 // Hz
	AmbiguousBits   int
}

// DemodulatedFrame is an ordered sequence of 112 or 144 bits produced by
// the FGB demodulator (spec.md §3).
type DemodulatedFrame struct {
	Bits    []byte // 0/1, never '?' - ambiguous bits are resolved to a sign-based guess
	Class   iq.BurstClass
	Quality Quality

	// SyncWarn is set by the FGB demodulator when the frame-sync pattern
	// matched an accepted but undocumented alternate (spec.md §9(c)), or
	// did not match any known pattern at all; bit-sync is not checked
	// here. The SGB stub sets it on every frame.
	SyncWarn bool

	// FrameSync is the 9-bit pattern actually observed, for diagnostics.
	FrameSync FrameSyncPattern
}

// Len returns the number of bits in the frame.
func (f *DemodulatedFrame) Len() int { return len(f.Bits) }

// IsLong reports whether the frame is the 144-bit long variant.
func (f *DemodulatedFrame) IsLong() bool { return len(f.Bits) == LongFrameLen }

// bitsToPattern renders a bit slice as a string of '0'/'1' for pattern
// matching against FrameSyncPattern constants.
func bitsToPattern(bits []byte) string {
	buf := make([]byte, len(bits))
	for i, b := range bits {
		if b == 1 {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}
