package dsp

import "math"

// biquad is a single second-order IIR section in transposed direct form II.
// z1/z2 are the delay line; they are the only mutable state and are what the
// windowing engine carries across window boundaries.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

func (s *biquad) process(x float64) float64 {
	y := s.b0*x + s.z1
	s.z1 = s.b1*x - s.a1*y + s.z2
	s.z2 = s.b2*x - s.a2*y
	return y
}

func (s *biquad) reset() {
	s.z1 = 0
	s.z2 = 0
}

// Biquad coefficient formulas below follow the RBJ Audio EQ Cookbook,
// normalised so a0 == 1.

func lowpassBiquad(sampleRate, freq, q float64) *biquad {
	w := 2 * math.Pi * freq / sampleRate
	cosw, sinw := math.Cos(w), math.Sin(w)
	alpha := sinw / (2 * q)

	a0 := 1 + alpha
	return &biquad{
		b0: (1 - cosw) / 2 / a0,
		b1: (1 - cosw) / a0,
		b2: (1 - cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

func highpassBiquad(sampleRate, freq, q float64) *biquad {
	w := 2 * math.Pi * freq / sampleRate
	cosw, sinw := math.Cos(w), math.Sin(w)
	alpha := sinw / (2 * q)

	a0 := 1 + alpha
	return &biquad{
		b0: (1 + cosw) / 2 / a0,
		b1: -(1 + cosw) / a0,
		b2: (1 + cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

func notchBiquad(sampleRate, freq, q float64) *biquad {
	w := 2 * math.Pi * freq / sampleRate
	cosw, sinw := math.Cos(w), math.Sin(w)
	alpha := sinw / (2 * q)

	a0 := 1 + alpha
	return &biquad{
		b0: 1 / a0,
		b1: -2 * cosw / a0,
		b2: 1 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

// butterworthQ returns the Q of section i out of n in a cascade realising a
// Butterworth response of order 2n. For n == 1 this is the familiar 0.7071.
func butterworthQ(i, n int) float64 {
	theta := math.Pi * (2*float64(i) + 1) / (4 * float64(n))
	return 1 / (2 * math.Cos(theta))
}
