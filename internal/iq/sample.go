// Package iq holds the data types that move through the pipeline:
// complex baseband samples and the burst buffers built from them. A
// BurstBuffer is owned by exactly one stage at a time; passing it to the
// next stage is a transfer of ownership, never a shared reference.
package iq

import "math"

// Sample is a single complex baseband value. Float64 is used throughout
// even though the wire format from most front ends is single precision;
// the estimators in internal/fgb accumulate many small phase corrections
// and benefit from the extra headroom.
type Sample complex128

// Abs returns the magnitude of the sample.
func (s Sample) Abs() float64 {
	return math.Hypot(real(complex128(s)), imag(complex128(s)))
}

// Phase returns the phase angle of the sample in (-pi, pi].
func (s Sample) Phase() float64 {
	return math.Atan2(imag(complex128(s)), real(complex128(s)))
}

// Rotate multiplies the sample by exp(-i*phi), i.e. de-rotates it by phi.
func (s Sample) Rotate(phi float64) Sample {
	c, sn := math.Cos(phi), math.Sin(phi)
	r, im := real(complex128(s)), imag(complex128(s))
	return Sample(complex(r*c+im*sn, im*c-r*sn))
}

// WrapPhase normalizes an angle to (-pi, pi].
func WrapPhase(phi float64) float64 {
	return phi - 2*math.Pi*math.Round(phi/(2*math.Pi))
}
