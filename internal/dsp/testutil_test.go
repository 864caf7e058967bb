package dsp

import (
	"math"
	"testing"
)

// noiseGen is a deterministic LCG-based Gaussian noise source so tests are
// reproducible without math/rand seeding complexity.
type noiseGen struct {
	state uint32
}

func (g *noiseGen) uniform() float64 {
	g.state = g.state*1664525 + 1013904223
	return float64(g.state) / float64(math.MaxUint32)
}

// gaussian approximates N(0,1) by summing twelve uniforms (Irwin-Hall).
func (g *noiseGen) gaussian() float64 {
	var sum float64
	for i := 0; i < 12; i++ {
		sum += g.uniform()
	}
	return sum - 6
}

// generateNoise returns n samples of deterministic Gaussian noise with the
// given standard deviation.
func generateNoise(t *testing.T, n int, sigma float64, seed uint32) []float64 {
	t.Helper()

	g := noiseGen{state: seed}
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = sigma * g.gaussian()
	}
	return samples
}

// generateSine returns n samples of a sine wave at freq Hz.
func generateSine(t *testing.T, n int, freq, amp, sampleRate float64) []float64 {
	t.Helper()

	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return samples
}
