// Package engine drives the per-channel processing pipeline: it streams a
// channel through the filter and detector window by window, carrying filter,
// estimator and refractory state across window boundaries so results do not
// depend on the window length.
//
// Each channel takes two passes. The estimation pass streams every window
// through the filter and the noise estimator to fix the detection thresholds.
// The detection pass rewinds the cursor, resets the filter, and scans every
// window against those fixed thresholds. Both passes consume identical
// sample sequences regardless of window size, which makes whole-channel and
// windowed execution produce bit-identical spike lists.
package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/tivenide/MEAexplorer/internal/detect"
	"github.com/tivenide/MEAexplorer/internal/dsp"
	"github.com/tivenide/MEAexplorer/internal/source"
)

// Phase is the stage a channel is currently in, exposed for progress
// reporting and tests.
type Phase int

// Channel processing phases, in order.
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseFiltering
	PhaseEstimating
	PhaseDetecting
	PhaseEmitting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseFiltering:
		return "filtering"
	case PhaseEstimating:
		return "estimating"
	case PhaseDetecting:
		return "detecting"
	case PhaseEmitting:
		return "emitting"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Progress reports one channel's position in the pipeline.
type Progress struct {
	Channel int
	Phase   Phase
	Window  int // windows completed in the current pass
}

// Engine holds the per-run pipeline configuration. It is stateless across
// channels; all mutable state lives on the stack of ProcessChannel, so one
// Engine may process channels concurrently.
type Engine struct {
	Filter dsp.FilterConfig
	Detect detect.Config

	// WindowSamples is the window length. The orchestrator sets it to the
	// whole channel length in serial mode.
	WindowSamples int

	// OnProgress, when set, is called at window granularity. It must be
	// safe for concurrent use when channels run concurrently.
	OnProgress func(Progress)
}

// ChannelResult is the outcome of one fully processed channel.
type ChannelResult struct {
	Channel    int
	Sigma      float64 // estimated noise standard deviation
	Thresholds detect.Thresholds
	Events     []detect.Event
	Samples    int64 // samples streamed per pass
	Windows    int   // windows streamed per pass
}

// ProcessChannel runs both passes over one channel. Any failure discards the
// channel entirely; no partial events are returned. Cancellation is checked
// at window granularity.
func (e *Engine) ProcessChannel(ctx context.Context, cur source.Cursor, channel int, sampleRate float64) (*ChannelResult, error) {
	if e.WindowSamples <= 0 {
		return nil, fmt.Errorf("window length %d samples: must be positive", e.WindowSamples)
	}

	filter, err := dsp.NewFilter(e.Filter, sampleRate)
	if err != nil {
		return nil, err
	}

	res := &ChannelResult{Channel: channel}
	buf := make([]float64, e.WindowSamples)

	// Estimation pass: fix the thresholds before any detection happens.
	estimator := dsp.NewSigmaEstimator()
	err = e.streamWindows(ctx, cur, channel, buf, func(window []float64) {
		e.report(channel, PhaseFiltering, res.Windows)
		filter.Apply(window)
		e.report(channel, PhaseEstimating, res.Windows)
		estimator.ObserveAll(window)
		res.Windows++
		res.Samples += int64(len(window))
	})
	if err != nil {
		return nil, err
	}

	res.Sigma = estimator.Sigma()
	res.Thresholds, err = detect.EstimateThresholds(e.Detect, res.Sigma)
	if err != nil {
		return nil, err
	}
	detector, err := detect.NewDetector(channel, sampleRate, e.Detect, res.Thresholds)
	if err != nil {
		return nil, err
	}

	// Detection pass: rewind and scan with the fixed thresholds.
	if err := cur.Reset(); err != nil {
		return nil, err
	}
	filter.Reset()

	window := 0
	err = e.streamWindows(ctx, cur, channel, buf, func(samples []float64) {
		e.report(channel, PhaseFiltering, window)
		filter.Apply(samples)
		e.report(channel, PhaseDetecting, window)
		res.Events = append(res.Events, detector.Detect(samples)...)
		window++
	})
	if err != nil {
		return nil, err
	}

	e.report(channel, PhaseDone, window)
	return res, nil
}

// streamWindows reads full windows (the final one may be shorter) and hands
// each to process.
func (e *Engine) streamWindows(ctx context.Context, cur source.Cursor, channel int, buf []float64, process func([]float64)) error {
	window := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.report(channel, PhaseLoading, window)

		n, err := fill(cur, buf)
		if n > 0 {
			process(buf[:n])
			window++
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// fill reads from cur until buf is full or the channel ends.
func fill(cur source.Cursor, buf []float64) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := cur.Next(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (e *Engine) report(channel int, phase Phase, window int) {
	if e.OnProgress != nil {
		e.OnProgress(Progress{Channel: channel, Phase: phase, Window: window})
	}
}
