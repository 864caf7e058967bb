// Package detect turns filtered channel samples into spike events. The
// threshold estimator derives per-channel detection thresholds from the noise
// level; the detector scans windows in time order with refractory state
// carried across window boundaries.
package detect

import (
	"errors"
	"fmt"
)

// Method identifies a spike detection method in the registry.
type Method string

// MethodThreshold detects spikes as excursions beyond a noise-derived
// amplitude threshold.
const MethodThreshold Method = "threshold"

// Sentinel errors for detection setup.
var (
	ErrNoThresholdConfigured = errors.New("no threshold configured: at least one of FactorPos/FactorNeg is required")
	ErrInvalidDetectConfig   = errors.New("invalid detection configuration")
)

// Config holds the spike detection parameters. Factors are pointers so that
// "absent" and "zero" are distinguishable; an absent factor disables that
// polarity entirely.
type Config struct {
	Method    Method
	FactorPos *float64 // positive-going threshold = FactorPos * sigma
	FactorNeg *float64 // negative-going threshold = FactorNeg * sigma (applied below zero)

	// RefractoryPeriod is the minimum spacing between accepted events on one
	// channel, in seconds. 0 disables refractory suppression.
	RefractoryPeriod float64
}

// Sign is the polarity of a spike event.
type Sign int8

// Spike polarities.
const (
	SignPositive Sign = 1
	SignNegative Sign = -1
)

func (s Sign) String() string {
	if s == SignNegative {
		return "neg"
	}
	return "pos"
}

// Event is one detected spike.
type Event struct {
	Channel   int     // channel index within the recording
	Time      float64 // seconds from recording start
	Sign      Sign
	Amplitude float64 // filtered sample value at the crossing, signed
}

// Thresholds are the per-channel detection levels, fixed for the whole
// channel once estimated.
type Thresholds struct {
	Pos    float64 // crossing when sample >= Pos
	Neg    float64 // crossing when sample <= -Neg
	HasPos bool
	HasNeg bool
}

// EstimateThresholds converts a channel's noise sigma into detection levels.
// Returns ErrNoThresholdConfigured when neither factor is set.
func EstimateThresholds(cfg Config, sigma float64) (Thresholds, error) {
	if cfg.FactorPos == nil && cfg.FactorNeg == nil {
		return Thresholds{}, ErrNoThresholdConfigured
	}
	var thr Thresholds
	if cfg.FactorPos != nil {
		if *cfg.FactorPos <= 0 {
			return Thresholds{}, fmt.Errorf("%w: FactorPos %g must be positive", ErrInvalidDetectConfig, *cfg.FactorPos)
		}
		thr.Pos = *cfg.FactorPos * sigma
		thr.HasPos = true
	}
	if cfg.FactorNeg != nil {
		if *cfg.FactorNeg <= 0 {
			return Thresholds{}, fmt.Errorf("%w: FactorNeg %g must be positive", ErrInvalidDetectConfig, *cfg.FactorNeg)
		}
		thr.Neg = *cfg.FactorNeg * sigma
		thr.HasNeg = true
	}
	return thr, nil
}

// Detector consumes successive windows of one filtered channel and emits
// spike events. Implementations carry state across Detect calls so that
// windowed scanning matches whole-channel scanning exactly. A Detector must
// never be shared between channels.
type Detector interface {
	// Detect scans one window and returns the events found in it. The
	// window is the continuation of the previous one.
	Detect(samples []float64) []Event
	// Reset rewinds the detector to the start of the channel.
	Reset()
}

type builderFunc func(channel int, sampleRate float64, cfg Config, thr Thresholds) (Detector, error)

// builders maps Method to its constructor, mirroring the filter design
// registry: new methods plug in here.
var builders = map[Method]builderFunc{
	MethodThreshold: newThresholdDetector,
}

// NewDetector builds the detector selected by cfg.Method for one channel.
func NewDetector(channel int, sampleRate float64, cfg Config, thr Thresholds) (Detector, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %g Hz", ErrInvalidDetectConfig, sampleRate)
	}
	if cfg.RefractoryPeriod < 0 {
		return nil, fmt.Errorf("%w: refractory period %g s", ErrInvalidDetectConfig, cfg.RefractoryPeriod)
	}
	build, ok := builders[cfg.Method]
	if !ok {
		return nil, fmt.Errorf("%w: unknown detection method %q", ErrInvalidDetectConfig, cfg.Method)
	}
	return build(channel, sampleRate, cfg, thr)
}
