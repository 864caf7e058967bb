// Package run orchestrates the processing of one recording: it sizes windows
// for the selected execution mode, fans channels out over workers, collects
// per-channel failures without aborting the batch, and merges the surviving
// results in channel order.
package run

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tivenide/MEAexplorer/internal/config"
	"github.com/tivenide/MEAexplorer/internal/detect"
	"github.com/tivenide/MEAexplorer/internal/dsp"
	"github.com/tivenide/MEAexplorer/internal/engine"
	"github.com/tivenide/MEAexplorer/internal/powerline"
	"github.com/tivenide/MEAexplorer/internal/source"
)

// ChannelError is a non-fatal failure of a single channel. The rest of the
// recording is unaffected.
type ChannelError struct {
	Channel int
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %d: %v", e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// Options configures one recording run.
type Options struct {
	Mode            config.Mode
	WindowTimeInSec float64
	Workers         int // <= 1 means sequential

	Filter dsp.FilterConfig
	Detect detect.Config

	OnProgress func(engine.Progress)

	// OnChannelDone, when set, is called as each channel finishes, with
	// either a result or a failure. Called from worker goroutines when
	// Workers > 1.
	OnChannelDone func(res *engine.ChannelResult, fail *ChannelError)
}

// Result is the outcome of one recording.
type Result struct {
	Recording source.RecordingInfo

	// Channels holds the successfully processed channels in channel order.
	Channels []*engine.ChannelResult
	// Failures holds the channels that were discarded, in channel order.
	Failures []*ChannelError

	// Events is the merged event list, ordered by channel then time. It
	// always mirrors the per-channel lists in Channels; consumers counting
	// spikes read it instead of re-merging.
	Events []detect.Event

	WindowSamples int
	Elapsed       time.Duration
}

// Spikes counts merged events by polarity.
func (r *Result) Spikes() (pos, neg int) {
	for _, ev := range r.Events {
		if ev.Sign == detect.SignNegative {
			neg++
		} else {
			pos++
		}
	}
	return pos, neg
}

// Process runs the full pipeline over every channel of src. Recording-level
// problems (unrealisable filter, no thresholds configured, cancellation)
// return an error; individual channel failures are collected in the result.
func Process(ctx context.Context, src source.Source, opts Options) (*Result, error) {
	start := time.Now()
	info := src.Info()

	filterCfg := opts.Filter
	if filterCfg.Type == dsp.FilterNotch && filterCfg.PowerlineHz == 0 {
		filterCfg.PowerlineHz = powerline.Detect()
	}

	// Fail the whole recording up front for configuration that would fail
	// every channel identically.
	if _, err := dsp.NewFilter(filterCfg, info.SampleRate); err != nil {
		return nil, fmt.Errorf("recording %s: %w", info.Name, err)
	}
	if opts.Detect.FactorPos == nil && opts.Detect.FactorNeg == nil {
		return nil, fmt.Errorf("recording %s: %w", info.Name, detect.ErrNoThresholdConfigured)
	}

	windowSamples, err := windowLength(opts, info)
	if err != nil {
		return nil, fmt.Errorf("recording %s: %w", info.Name, err)
	}

	eng := &engine.Engine{
		Filter:        filterCfg,
		Detect:        opts.Detect,
		WindowSamples: windowSamples,
		OnProgress:    opts.OnProgress,
	}

	results := make([]*engine.ChannelResult, info.Channels)
	failures := make([]*ChannelError, info.Channels)

	processOne := func(ch int) {
		res, err := processChannel(ctx, eng, src, ch, info.SampleRate)
		if err != nil {
			failures[ch] = &ChannelError{Channel: ch, Err: err}
		} else {
			results[ch] = res
		}
		if opts.OnChannelDone != nil {
			opts.OnChannelDone(results[ch], failures[ch])
		}
	}

	if opts.Workers > 1 {
		var wg sync.WaitGroup
		work := make(chan int)
		for w := 0; w < opts.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for ch := range work {
					processOne(ch)
				}
			}()
		}
		for ch := 0; ch < info.Channels; ch++ {
			work <- ch
		}
		close(work)
		wg.Wait()
	} else {
		for ch := 0; ch < info.Channels; ch++ {
			processOne(ch)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("recording %s: %w", info.Name, err)
	}

	out := &Result{Recording: info, WindowSamples: windowSamples}
	for ch := 0; ch < info.Channels; ch++ {
		if results[ch] != nil {
			out.Channels = append(out.Channels, results[ch])
			out.Events = append(out.Events, results[ch].Events...)
		}
		if failures[ch] != nil {
			out.Failures = append(out.Failures, failures[ch])
		}
	}
	// Channel order is already ascending; events within a channel are in
	// time order, so the merged list only needs the cross-channel ordering
	// confirmed.
	sort.SliceStable(out.Events, func(i, j int) bool {
		a, b := out.Events[i], out.Events[j]
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		return a.Time < b.Time
	})

	out.Elapsed = time.Since(start)
	return out, nil
}

func processChannel(ctx context.Context, eng *engine.Engine, src source.Source, ch int, rate float64) (*engine.ChannelResult, error) {
	cur, err := src.Channel(ch)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	return eng.ProcessChannel(ctx, cur, ch, rate)
}

// windowLength resolves the execution mode into a concrete window size.
// Serial mode processes the whole channel as a single window.
func windowLength(opts Options, info source.RecordingInfo) (int, error) {
	switch opts.Mode {
	case config.ModeSerial:
		if info.Samples < 1 {
			return 1, nil
		}
		return int(info.Samples), nil
	case config.ModeSerialWindow:
		n := int(opts.WindowTimeInSec * info.SampleRate)
		if n < 1 {
			return 0, fmt.Errorf("%w: window of %g s is shorter than one sample at %g Hz",
				config.ErrConfiguration, opts.WindowTimeInSec, info.SampleRate)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: unknown execution mode %q", config.ErrConfiguration, opts.Mode)
	}
}
