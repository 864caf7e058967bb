package dsp

import (
	"math"
	"sort"
	"testing"
)

// exactSigma computes median(|x|)/0.6745 by sorting, for comparison with the
// streaming estimate.
func exactSigma(samples []float64) float64 {
	abs := make([]float64, len(samples))
	for i, x := range samples {
		abs[i] = math.Abs(x)
	}
	sort.Float64s(abs)
	n := len(abs)
	var median float64
	if n%2 == 1 {
		median = abs[n/2]
	} else {
		median = (abs[n/2-1] + abs[n/2]) / 2
	}
	return median / quirogaScale
}

// The estimate must depend only on the sample sequence, not on how it is
// chunked. This is what makes thresholds identical across execution modes.
func TestSigmaChunkingInvariance(t *testing.T) {
	signal := generateNoise(t, 50000, 2.0, 99)

	whole := NewSigmaEstimator()
	whole.ObserveAll(signal)

	for _, size := range []int{1, 13, 500, 20000, 50000} {
		chunked := NewSigmaEstimator()
		for start := 0; start < len(signal); start += size {
			end := start + size
			if end > len(signal) {
				end = len(signal)
			}
			chunked.ObserveAll(signal[start:end])
		}
		if chunked.Sigma() != whole.Sigma() {
			t.Errorf("chunk size %d: sigma %v differs from whole-stream %v", size, chunked.Sigma(), whole.Sigma())
		}
	}
}

func TestSigmaAccuracy(t *testing.T) {
	tests := []struct {
		name  string
		sigma float64
		seed  uint32
	}{
		{"unit noise", 1.0, 1},
		{"microvolt scale", 12.5, 2},
		{"small amplitude", 0.01, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := generateNoise(t, 100000, tt.sigma, tt.seed)

			e := NewSigmaEstimator()
			e.ObserveAll(signal)

			got := e.Sigma()
			exact := exactSigma(signal)
			if relErr := math.Abs(got-exact) / exact; relErr > 0.02 {
				t.Errorf("streaming sigma %v vs exact %v: relative error %g > 2%%", got, exact, relErr)
			}
			// For Gaussian noise the Quiroga estimate should also land near
			// the true standard deviation.
			if relErr := math.Abs(got-tt.sigma) / tt.sigma; relErr > 0.05 {
				t.Errorf("sigma estimate %v vs true %v: relative error %g > 5%%", got, tt.sigma, relErr)
			}
		})
	}
}

// Spikes are rare, so injecting a handful of large excursions must barely
// move the median-based estimate. This robustness is why Quiroga's estimator
// is used instead of the plain standard deviation.
func TestSigmaRobustToSpikes(t *testing.T) {
	signal := generateNoise(t, 50000, 1.0, 7)

	clean := NewSigmaEstimator()
	clean.ObserveAll(signal)

	spiky := append([]float64(nil), signal...)
	for i := 1000; i < len(spiky); i += 5000 {
		spiky[i] = 80
	}
	withSpikes := NewSigmaEstimator()
	withSpikes.ObserveAll(spiky)

	if relDiff := math.Abs(withSpikes.Sigma()-clean.Sigma()) / clean.Sigma(); relDiff > 0.02 {
		t.Errorf("sigma moved by %g%% after spike injection, want < 2%%", relDiff*100)
	}
}

func TestSigmaSmallCounts(t *testing.T) {
	t.Run("no samples", func(t *testing.T) {
		e := NewSigmaEstimator()
		if got := e.Sigma(); got != 0 {
			t.Errorf("Sigma() with no samples = %v, want 0", got)
		}
	})

	t.Run("fewer than five samples", func(t *testing.T) {
		e := NewSigmaEstimator()
		e.ObserveAll([]float64{-3, 1, 2})
		want := 2.0 / quirogaScale // median(|{-3,1,2}|) = 2
		if got := e.Sigma(); math.Abs(got-want) > 1e-12 {
			t.Errorf("Sigma() = %v, want %v", got, want)
		}
	})
}

func TestSigmaReset(t *testing.T) {
	e := NewSigmaEstimator()
	e.ObserveAll(generateNoise(t, 1000, 5.0, 11))
	e.Reset()
	if e.Count() != 0 {
		t.Errorf("Count() after Reset = %d, want 0", e.Count())
	}

	signal := generateNoise(t, 10000, 1.0, 12)
	e.ObserveAll(signal)
	fresh := NewSigmaEstimator()
	fresh.ObserveAll(signal)
	if e.Sigma() != fresh.Sigma() {
		t.Errorf("reused estimator sigma %v differs from fresh %v", e.Sigma(), fresh.Sigma())
	}
}
