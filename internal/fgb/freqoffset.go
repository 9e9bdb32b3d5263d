package fgb

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cospas-sarsat/beacon-core/internal/iq"
)

// freqEstimator implements the CARRIER_SEARCH frequency-offset estimate of
// spec.md §4.3.2: it integrates wrapped sample-to-sample phase differences
// into an unwrapped phase track, fits a line against sample index with
// gonum/stat, and reports the residual standard deviation as a linearity
// (lock) confidence measure. A stable, unmodulated carrier produces an
// almost perfectly linear unwrapped-phase ramp whose slope is the angular
// frequency offset.
type freqEstimator struct {
	sampleRate float64

	unwrapped []float64
	index     []float64

	havePrev bool
	prev     float64
	cum      float64
}

func newFreqEstimator(sampleRate float64, capacity int) *freqEstimator {
	return &freqEstimator{
		sampleRate: sampleRate,
		unwrapped:  make([]float64, 0, capacity),
		index:      make([]float64, 0, capacity),
	}
}

// push feeds one sample's phase into the running unwrap. It should only be
// called with samples whose magnitude clears the carrier-presence floor;
// low-magnitude samples have unreliable phase and would corrupt the fit.
func (e *freqEstimator) push(phase float64) {
	if !e.havePrev {
		e.havePrev = true
		e.prev = phase
		e.cum = 0
		e.unwrapped = append(e.unwrapped, 0)
		e.index = append(e.index, float64(len(e.index)))
		return
	}
	e.cum += iq.WrapPhase(phase - e.prev)
	e.prev = phase
	e.unwrapped = append(e.unwrapped, e.cum)
	e.index = append(e.index, float64(len(e.index)))
}

// Len reports how many samples have been accumulated.
func (e *freqEstimator) Len() int { return len(e.unwrapped) }

// Reset clears the accumulated window without reallocating.
func (e *freqEstimator) Reset() {
	e.unwrapped = e.unwrapped[:0]
	e.index = e.index[:0]
	e.havePrev = false
	e.cum = 0
}

// estimate fits a line to the unwrapped phase track and returns the
// frequency offset in Hz along with the fit's residual standard deviation
// (rad), the linearity confidence spec.md §4.3.2 tests against
// FrequencyLockResidualStddev before accepting the estimate.
func (e *freqEstimator) estimate() (offsetHz, residualStd float64) {
	if len(e.unwrapped) < 2 {
		return 0, 1e9
	}

	intercept, slope := stat.LinearRegression(e.index, e.unwrapped, nil, false)

	residuals := make([]float64, len(e.unwrapped))
	for i, y := range e.unwrapped {
		residuals[i] = y - (intercept + slope*e.index[i])
	}
	_, residualStd = stat.MeanStdDev(residuals, nil)

	// slope is radians/sample; offsetHz = slope * sampleRate / (2*pi).
	offsetHz = slope * e.sampleRate / (2 * math.Pi)
	return offsetHz, residualStd
}
