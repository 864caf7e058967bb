// Package dsp implements the signal-conditioning stages applied to raw MEA
// channel data before spike detection: a causal stateful bandpass filter, a
// powerline notch filter, and a streaming noise-level estimator.
package dsp

import (
	"errors"
	"fmt"
)

// FilterType identifies a filter design in the registry.
type FilterType string

// Filter types selectable via configuration.
const (
	// FilterBandpass passes the band between LowCut and HighCut. This is the
	// standard conditioning for extracellular spike detection (roughly
	// 200 Hz - 3 kHz for most MEA systems).
	FilterBandpass FilterType = "bandpass"

	// FilterNotch rejects a narrow band around the powerline frequency
	// (50/60 Hz hum picked up by the recording chain).
	FilterNotch FilterType = "notch"
)

// ErrInvalidFilterConfig indicates a filter configuration that cannot be
// realised at the recording's sample rate.
var ErrInvalidFilterConfig = errors.New("invalid filter configuration")

// FilterConfig holds the filter stage parameters. Loaded once and shared
// read-only across all channels and windows.
type FilterConfig struct {
	Type    FilterType
	LowCut  float64 // Hz, bandpass lower edge
	HighCut float64 // Hz, bandpass upper edge

	// Order is the number of second-order sections per band edge.
	// 0 means the default of 2 (a 4th-order Butterworth edge).
	Order int

	// PowerlineHz is the notch centre frequency. The caller resolves 0 to
	// the locally detected mains frequency before building the filter.
	PowerlineHz float64
}

// Filter applies a causal filter to successive windows of one channel.
// Implementations carry their delay-line state between Apply calls so that
// filtering a channel window by window is bit-identical to filtering it in
// one call. A Filter must never be shared between channels; Reset returns it
// to the zero-state for reuse on a fresh pass.
type Filter interface {
	// Apply filters samples in place and advances the carried state.
	Apply(samples []float64)
	// Reset clears the carried state without touching the coefficients.
	Reset()
}

// designFunc builds a Filter for a sample rate, validating the configuration
// against it.
type designFunc func(cfg FilterConfig, sampleRate float64) (Filter, error)

// designs maps FilterType to its design function. New filter types register
// here and become selectable through configuration without touching callers.
var designs = map[FilterType]designFunc{
	FilterBandpass: newBandpass,
	FilterNotch:    newNotch,
}

// NewFilter builds the filter selected by cfg.Type for the given sample
// rate. Returns ErrInvalidFilterConfig (wrapped) for unrealisable parameters
// or an unknown type.
func NewFilter(cfg FilterConfig, sampleRate float64) (Filter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %g Hz", ErrInvalidFilterConfig, sampleRate)
	}
	design, ok := designs[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown filter type %q", ErrInvalidFilterConfig, cfg.Type)
	}
	return design(cfg, sampleRate)
}
