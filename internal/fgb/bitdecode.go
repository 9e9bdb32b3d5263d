package fgb

import (
	"math"

	"github.com/cospas-sarsat/beacon-core/internal/config"
	"github.com/cospas-sarsat/beacon-core/internal/iq"
)

// bitClock tracks the fractional sample position of the current bit period
// and implements the adaptive timing recovery of spec.md §4.3.5: each bit,
// it locates the biphase-L mid-bit transition as the largest phase jump
// within ±40% of a bit period around the expected centre, decodes the
// half-bit phases either side of the centre, and nudges its own
// position estimate (μ) toward the observed transition so slow drift
// between the receiver's nominal bit rate and the beacon's actual bit rate
// is tracked rather than accumulated as error.
type bitClock struct {
	cfg   *config.Config
	pos   float64 // sample index of the start of the current bit
	spb   float64 // current samples-per-bit estimate
	gain  float64 // TimingGainCoarse during BIT_SYNC, TimingGainFine after
	clamp float64
}

func newBitClock(cfg *config.Config, startPos, samplesPerBit float64) *bitClock {
	return &bitClock{
		cfg:   cfg,
		pos:   startPos,
		spb:   samplesPerBit,
		gain:  cfg.TimingGainCoarse,
		clamp: cfg.TimingOffsetClampSamples,
	}
}

// useFineGain switches from the coarse (BIT_SYNC) to the fine
// (FRAME_SYNC/MESSAGE) timing-error gain, per spec.md §4.3.5.
func (c *bitClock) useFineGain() { c.gain = c.cfg.TimingGainFine }

// decodeBit consumes the bit period starting at c.pos, returns the decoded
// value (0/1), whether the transition was ambiguous, and advances c.pos by
// one bit period adjusted by the measured timing error.
func (c *bitClock) decodeBit(samples []iq.Sample) (bit byte, ambiguous bool) {
	start := int(math.Round(c.pos))
	width := int(math.Round(c.spb))
	end := start + width
	if start < 0 || end > len(samples) || width < 4 {
		return 0, true
	}

	margin := width / 10 // search start+10%..start+90%, i.e. centre ±40%
	transitionIdx := findTransition(samples, start+margin, end-margin)

	q1 := start + width/4
	q2 := start + (3 * width / 4)
	if q1 < start {
		q1 = start
	}
	if q2 >= end {
		q2 = end - 1
	}

	bit, ambiguous = decodeBitHalves(samples[q1].Phase(), samples[q2].Phase(), c.cfg.ManchesterJumpLow, c.cfg.ManchesterJumpHigh)

	expected := float64(start) + c.spb/2
	errSamples := float64(transitionIdx) - expected
	if errSamples > c.clamp {
		errSamples = c.clamp
	}
	if errSamples < -c.clamp {
		errSamples = -c.clamp
	}

	c.pos += c.spb + c.gain*errSamples
	return bit, ambiguous
}

// hasRoom reports whether another full bit period is available starting at
// the clock's current position.
func (c *bitClock) hasRoom(total int) bool {
	return int(math.Round(c.pos))+int(math.Round(c.spb)) <= total
}

// findTransition scans [start,end) for the sample-to-sample phase jump of
// largest magnitude, the biphase-L mid-bit transition spec.md §4.3.4
// describes. It returns the index of the second sample of the jump.
func findTransition(samples []iq.Sample, start, end int) int {
	best := start + 1
	bestMag := -1.0
	prev := samples[start].Phase()
	for i := start + 1; i < end; i++ {
		phase := samples[i].Phase()
		mag := math.Abs(iq.WrapPhase(phase - prev))
		if mag > bestMag {
			bestMag = mag
			best = i
		}
		prev = phase
	}
	return best
}

// decodeBitHalves decides a biphase-L symbol from the carrier phase sampled
// at the first and second quarter of the bit period. A '1' is the nominal
// +1.1→−1.1 transition (diff < 0), a '0' the nominal −1.1→+1.1 transition
// (diff > 0); its magnitude must clear jumpLow to be accepted as a genuine
// transition rather than noise (spec.md §4.3.4). Below jumpLow the call
// falls back to the sign of diff rather than a hard guess, with ambiguous
// set so the caller can still count and act on the low-confidence decision.
func decodeBitHalves(phase1, phase2, jumpLow, jumpHigh float64) (bit byte, ambiguous bool) {
	diff := iq.WrapPhase(phase2 - phase1)
	mag := math.Abs(diff)
	_ = jumpHigh // upper bound is informational; any transition past jumpLow is decodable
	if diff < 0 {
		bit = 1
	} else {
		bit = 0
	}
	if mag < jumpLow {
		return bit, true
	}
	return bit, false
}
