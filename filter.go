package soundfont

import "math"

// lowpass is a direct-form-II-transposed biquad low-pass filter whose
// coefficients are recomputed whenever the cutoff changes (§4.7). qInv is
// fixed per voice (derived from the region's InitialFilterQ); the rest is
// recomputed every effect block while the filter is active.
type lowpass struct {
	qInv           float64
	a0, a1, b1, b2 float64
	z1, z2         float64
	active         bool
}

// setup recomputes the biquad coefficients for a normalized cutoff fc
// (cycles per sample, i.e. Hz/sampleRate).
func (lp *lowpass) setup(fc float64) {
	k := math.Tan(math.Pi * fc)
	kk := k * k
	norm := 1 / (1 + k*lp.qInv + kk)
	lp.a0 = kk * norm
	lp.a1 = 2 * lp.a0
	lp.b1 = 2 * (kk - 1) * norm
	lp.b2 = (1 - k*lp.qInv + kk) * norm
}

// process filters one sample.
func (lp *lowpass) process(in float64) float64 {
	out := in*lp.a0 + lp.z1
	lp.z1 = in*lp.a1 + lp.z2 - lp.b1*out
	lp.z2 = in*lp.a0 - lp.b2*out
	return out
}
