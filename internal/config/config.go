// Package config loads and validates the run configuration. Configuration is
// an explicit value handed down to the orchestrator; nothing in this module
// reads global state.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tivenide/MEAexplorer/internal/detect"
	"github.com/tivenide/MEAexplorer/internal/dsp"
)

// ErrConfiguration marks invalid configuration. Configuration errors are
// fatal and reported before any channel is touched.
var ErrConfiguration = errors.New("configuration error")

// Mode selects the execution strategy.
type Mode string

// Execution modes.
const (
	// ModeSerial loads each channel whole and processes it as one window.
	ModeSerial Mode = "serial"
	// ModeSerialWindow streams each channel in fixed-duration windows,
	// bounding memory while producing identical results.
	ModeSerialWindow Mode = "serialWindow"
)

// Config is the full run configuration.
type Config struct {
	InputFolder  string `yaml:"InputFolder"`
	OutputFolder string `yaml:"OutputFolder"`

	ExecutionMode Mode `yaml:"ExecutionMode"`

	// Workers caps the number of channels processed concurrently.
	// 0 or 1 means sequential.
	Workers int `yaml:"Workers"`

	SerialWindow   SerialWindow   `yaml:"SerialWindow"`
	Filter         Filter         `yaml:"Filter"`
	SpikeDetection SpikeDetection `yaml:"SpikeDetection"`
}

// SerialWindow configures the windowed execution mode.
type SerialWindow struct {
	WindowTimeInSec float64 `yaml:"WindowTimeInSec"`
}

// Filter configures the filter stage. LowCut/HighCut are checked against the
// Nyquist frequency per recording, once the sample rate is known.
type Filter struct {
	Type    string  `yaml:"Type"`
	LowCut  float64 `yaml:"LowCut"`
	HighCut float64 `yaml:"HighCut"`
	Order   int     `yaml:"Order"`

	// PowerlineHz is the notch centre frequency; 0 selects automatic
	// detection from the local timezone.
	PowerlineHz float64 `yaml:"PowerlineHz"`
}

// SpikeDetection configures the detection stage. The factors are pointers so
// a polarity can be left unconfigured, which disables it.
type SpikeDetection struct {
	Method           string   `yaml:"Method"`
	FactorPos        *float64 `yaml:"FactorPos"`
	FactorNeg        *float64 `yaml:"FactorNeg"`
	RefractoryPeriod float64  `yaml:"RefractoryPeriod"`
}

// Default returns the configuration baseline. Detection factors have no
// default: at least one must be configured explicitly.
func Default() Config {
	return Config{
		ExecutionMode: ModeSerialWindow,
		Workers:       1,
		SerialWindow:  SerialWindow{WindowTimeInSec: 2},
		Filter: Filter{
			Type:    string(dsp.FilterBandpass),
			LowCut:  200,
			HighCut: 3000,
			Order:   2,
		},
		SpikeDetection: SpikeDetection{
			Method:           string(detect.MethodThreshold),
			RefractoryPeriod: 0.001,
		},
	}
}

// Load reads a YAML configuration file over the defaults and validates it.
// Unknown keys are rejected to catch typos.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfiguration, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks everything that can be checked without knowing a
// recording's sample rate.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
	}

	if c.InputFolder == "" {
		return fail("InputFolder is required")
	}
	if c.OutputFolder == "" {
		return fail("OutputFolder is required")
	}
	switch c.ExecutionMode {
	case ModeSerial:
	case ModeSerialWindow:
		if c.SerialWindow.WindowTimeInSec <= 0 {
			return fail("SerialWindow.WindowTimeInSec must be positive in %s mode, got %g",
				ModeSerialWindow, c.SerialWindow.WindowTimeInSec)
		}
	default:
		return fail("ExecutionMode must be %q or %q, got %q", ModeSerial, ModeSerialWindow, c.ExecutionMode)
	}
	if c.Workers < 0 {
		return fail("Workers must be >= 0, got %d", c.Workers)
	}

	switch dsp.FilterType(c.Filter.Type) {
	case dsp.FilterBandpass:
		if c.Filter.LowCut <= 0 {
			return fail("Filter.LowCut must be positive, got %g", c.Filter.LowCut)
		}
		if c.Filter.HighCut <= c.Filter.LowCut {
			return fail("Filter.HighCut (%g Hz) must exceed Filter.LowCut (%g Hz)", c.Filter.HighCut, c.Filter.LowCut)
		}
	case dsp.FilterNotch:
		if c.Filter.PowerlineHz < 0 {
			return fail("Filter.PowerlineHz must be >= 0, got %g", c.Filter.PowerlineHz)
		}
	default:
		return fail("Filter.Type %q is not a known filter type", c.Filter.Type)
	}
	if c.Filter.Order < 0 {
		return fail("Filter.Order must be >= 0, got %d", c.Filter.Order)
	}

	sd := c.SpikeDetection
	if detect.Method(sd.Method) != detect.MethodThreshold {
		return fail("SpikeDetection.Method %q is not a known detection method", sd.Method)
	}
	if sd.FactorPos == nil && sd.FactorNeg == nil {
		return fail("at least one of SpikeDetection.FactorPos/FactorNeg is required")
	}
	if sd.FactorPos != nil && *sd.FactorPos <= 0 {
		return fail("SpikeDetection.FactorPos must be positive, got %g", *sd.FactorPos)
	}
	if sd.FactorNeg != nil && *sd.FactorNeg <= 0 {
		return fail("SpikeDetection.FactorNeg must be positive, got %g", *sd.FactorNeg)
	}
	if sd.RefractoryPeriod < 0 {
		return fail("SpikeDetection.RefractoryPeriod must be >= 0, got %g", sd.RefractoryPeriod)
	}
	return nil
}

// FilterConfig converts to the filter stage configuration.
func (c *Config) FilterConfig() dsp.FilterConfig {
	return dsp.FilterConfig{
		Type:        dsp.FilterType(c.Filter.Type),
		LowCut:      c.Filter.LowCut,
		HighCut:     c.Filter.HighCut,
		Order:       c.Filter.Order,
		PowerlineHz: c.Filter.PowerlineHz,
	}
}

// DetectConfig converts to the detection stage configuration.
func (c *Config) DetectConfig() detect.Config {
	return detect.Config{
		Method:           detect.Method(c.SpikeDetection.Method),
		FactorPos:        c.SpikeDetection.FactorPos,
		FactorNeg:        c.SpikeDetection.FactorNeg,
		RefractoryPeriod: c.SpikeDetection.RefractoryPeriod,
	}
}
