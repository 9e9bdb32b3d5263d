package detector

import (
	"math/cmplx"

	"github.com/cospas-sarsat/beacon-core/internal/config"
	"github.com/cospas-sarsat/beacon-core/internal/iq"
)

// feature computes the detector's per-sample decision statistic. Both
// variants named in spec.md §4.1 are implemented; newFeature selects one
// from the configuration.
type feature interface {
	push(s iq.Sample) float64
}

func newFeature(kind config.FeatureKind, lagSamples int) feature {
	if kind == config.FeatureAutocorrelate {
		return newAutocorrFeature(lagSamples)
	}
	return amplitudeFeature{}
}

// amplitudeFeature is the simple |sample| variant.
type amplitudeFeature struct{}

func (amplitudeFeature) push(s iq.Sample) float64 {
	return s.Abs()
}

// autocorrFeature computes the magnitude of a sliding autocorrelation at a
// lag equal to one bit period (spec.md §4.1): at sample n,
//
//	R(n) = (1/L) * sum_{k=0}^{L-1} s[n-k] * conj(s[n-k-L])
//
// which responds strongly to the ~400bps Manchester structure of an FGB
// burst (and, less selectively, to SGB energy) while rejecting stationary
// narrowband interference that amplitude thresholding alone would trigger
// on.
type autocorrFeature struct {
	lag  int
	ring []iq.Sample // circular buffer, capacity 2*lag
	pos  int         // absolute count of samples pushed so far
}

func newAutocorrFeature(lag int) *autocorrFeature {
	if lag < 1 {
		lag = 1
	}
	return &autocorrFeature{lag: lag, ring: make([]iq.Sample, 2*lag)}
}

func (f *autocorrFeature) at(absIndex int) iq.Sample {
	i := absIndex % len(f.ring)
	if i < 0 {
		i += len(f.ring)
	}
	return f.ring[i]
}

func (f *autocorrFeature) push(s iq.Sample) float64 {
	f.ring[f.pos%len(f.ring)] = s
	f.pos++

	if f.pos < 2*f.lag {
		return 0
	}

	var sum complex128
	n := f.pos // n-1 is the index of the sample just pushed
	for k := 0; k < f.lag; k++ {
		a := complex128(f.at(n - 1 - k))
		b := complex128(f.at(n - 1 - k - f.lag))
		sum += a * cmplx.Conj(b)
	}
	sum /= complex(float64(f.lag), 0)

	return cmplx.Abs(sum)
}
