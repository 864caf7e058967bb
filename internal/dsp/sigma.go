package dsp

import (
	"math"
	"sort"
)

// quirogaScale converts the median absolute value of bandpassed neural data
// into an estimate of the noise standard deviation (Quiroga et al. 2004).
const quirogaScale = 0.6745

// SigmaEstimator estimates the noise standard deviation of a filtered channel
// as median(|x|)/0.6745, streaming one sample at a time. The median is
// tracked with the P-squared algorithm (Jain & Chlamtac 1985), so memory is
// constant and the result depends only on the sample sequence, never on how
// it was chunked into windows.
type SigmaEstimator struct {
	// Marker heights, positions and desired positions for the five P²
	// markers tracking the 0.5 quantile of |x|.
	q     [5]float64
	n     [5]int
	np    [5]float64
	dn    [5]float64
	count int
}

// NewSigmaEstimator returns an estimator with no samples observed.
func NewSigmaEstimator() *SigmaEstimator {
	e := &SigmaEstimator{}
	e.Reset()
	return e
}

// Reset discards all observed samples.
func (e *SigmaEstimator) Reset() {
	*e = SigmaEstimator{
		np: [5]float64{1, 2, 3, 4, 5},
		dn: [5]float64{0, 0.25, 0.5, 0.75, 1},
	}
}

// Observe feeds one filtered sample.
func (e *SigmaEstimator) Observe(x float64) {
	v := math.Abs(x)

	if e.count < 5 {
		e.q[e.count] = v
		e.count++
		if e.count == 5 {
			sort.Float64s(e.q[:])
			for i := range e.n {
				e.n[i] = i + 1
			}
		}
		return
	}
	e.count++

	// Find the cell k with q[k] <= v < q[k+1], adjusting extremes.
	var k int
	switch {
	case v < e.q[0]:
		e.q[0] = v
		k = 0
	case v >= e.q[4]:
		e.q[4] = v
		k = 3
	default:
		for k = 0; k < 3; k++ {
			if v < e.q[k+1] {
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		e.n[i]++
	}
	for i := range e.np {
		e.np[i] += e.dn[i]
	}

	// Nudge interior markers toward their desired positions.
	for i := 1; i <= 3; i++ {
		d := e.np[i] - float64(e.n[i])
		if (d >= 1 && e.n[i+1]-e.n[i] > 1) || (d <= -1 && e.n[i-1]-e.n[i] < -1) {
			sign := 1.0
			if d < 0 {
				sign = -1.0
			}
			qp := e.parabolic(i, sign)
			if e.q[i-1] < qp && qp < e.q[i+1] {
				e.q[i] = qp
			} else {
				e.q[i] = e.linear(i, sign)
			}
			e.n[i] += int(sign)
		}
	}
}

// ObserveAll feeds a window of filtered samples.
func (e *SigmaEstimator) ObserveAll(samples []float64) {
	for _, x := range samples {
		e.Observe(x)
	}
}

func (e *SigmaEstimator) parabolic(i int, d float64) float64 {
	ni := float64(e.n[i])
	nm := float64(e.n[i-1])
	np := float64(e.n[i+1])
	return e.q[i] + d/(np-nm)*((ni-nm+d)*(e.q[i+1]-e.q[i])/(np-ni)+
		(np-ni-d)*(e.q[i]-e.q[i-1])/(ni-nm))
}

func (e *SigmaEstimator) linear(i int, d float64) float64 {
	j := i + int(d)
	return e.q[i] + d*(e.q[j]-e.q[i])/float64(e.n[j]-e.n[i])
}

// Count reports how many samples have been observed.
func (e *SigmaEstimator) Count() int { return e.count }

// Sigma returns the current noise estimate. With fewer than five samples the
// median falls back to an exact sort of what was seen; zero samples yield 0.
func (e *SigmaEstimator) Sigma() float64 {
	if e.count == 0 {
		return 0
	}
	if e.count < 5 {
		tmp := make([]float64, e.count)
		copy(tmp, e.q[:e.count])
		sort.Float64s(tmp)
		var median float64
		if e.count%2 == 1 {
			median = tmp[e.count/2]
		} else {
			median = (tmp[e.count/2-1] + tmp[e.count/2]) / 2
		}
		return median / quirogaScale
	}
	return e.q[2] / quirogaScale
}
