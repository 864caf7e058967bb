package dsp

import "fmt"

// cascade chains second-order sections. Every concrete filter in this package
// is a cascade; only the section design differs.
type cascade struct {
	sections []*biquad
}

func (c *cascade) Apply(samples []float64) {
	for i, x := range samples {
		for _, s := range c.sections {
			x = s.process(x)
		}
		samples[i] = x
	}
}

func (c *cascade) Reset() {
	for _, s := range c.sections {
		s.reset()
	}
}

const defaultOrder = 2

// newBandpass realises the bandpass as high-pass sections at LowCut followed
// by low-pass sections at HighCut, each edge a Butterworth cascade of
// cfg.Order biquads. The series HP+LP form keeps the band edges independent,
// which is how MEA rigs specify their spike band.
func newBandpass(cfg FilterConfig, sampleRate float64) (Filter, error) {
	order := cfg.Order
	if order == 0 {
		order = defaultOrder
	}
	nyquist := sampleRate / 2

	switch {
	case order < 0:
		return nil, fmt.Errorf("%w: order %d", ErrInvalidFilterConfig, cfg.Order)
	case cfg.LowCut <= 0 || cfg.HighCut <= 0:
		return nil, fmt.Errorf("%w: cutoffs must be positive, got %g-%g Hz",
			ErrInvalidFilterConfig, cfg.LowCut, cfg.HighCut)
	case cfg.LowCut >= cfg.HighCut:
		return nil, fmt.Errorf("%w: LowCut %g Hz >= HighCut %g Hz",
			ErrInvalidFilterConfig, cfg.LowCut, cfg.HighCut)
	case cfg.HighCut >= nyquist:
		return nil, fmt.Errorf("%w: HighCut %g Hz >= Nyquist %g Hz",
			ErrInvalidFilterConfig, cfg.HighCut, nyquist)
	}

	sections := make([]*biquad, 0, 2*order)
	for i := 0; i < order; i++ {
		sections = append(sections, highpassBiquad(sampleRate, cfg.LowCut, butterworthQ(i, order)))
	}
	for i := 0; i < order; i++ {
		sections = append(sections, lowpassBiquad(sampleRate, cfg.HighCut, butterworthQ(i, order)))
	}
	return &cascade{sections: sections}, nil
}

// notchQ gives roughly a 2 Hz-wide rejection band at 50/60 Hz, narrow enough
// to leave the spike band untouched.
const notchQ = 30.0

func newNotch(cfg FilterConfig, sampleRate float64) (Filter, error) {
	nyquist := sampleRate / 2
	if cfg.PowerlineHz <= 0 || cfg.PowerlineHz >= nyquist {
		return nil, fmt.Errorf("%w: notch centre %g Hz outside (0, %g) Hz",
			ErrInvalidFilterConfig, cfg.PowerlineHz, nyquist)
	}
	return &cascade{sections: []*biquad{notchBiquad(sampleRate, cfg.PowerlineHz, notchQ)}}, nil
}
