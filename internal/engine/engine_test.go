package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tivenide/MEAexplorer/internal/detect"
	"github.com/tivenide/MEAexplorer/internal/dsp"
	"github.com/tivenide/MEAexplorer/internal/source"
)

func f64(v float64) *float64 { return &v }

// lcgNoise generates deterministic pseudo-Gaussian noise (sum of twelve LCG
// uniforms) so tests are reproducible.
func lcgNoise(t *testing.T, n int, sigma float64, seed uint32) []float64 {
	t.Helper()

	state := seed
	uniform := func() float64 {
		state = state*1664525 + 1013904223
		return float64(state) / float64(math.MaxUint32)
	}
	samples := make([]float64, n)
	for i := range samples {
		var sum float64
		for j := 0; j < 12; j++ {
			sum += uniform()
		}
		samples[i] = sigma * (sum - 6)
	}
	return samples
}

func testEngine(windowSamples int) *Engine {
	return &Engine{
		Filter:        dsp.FilterConfig{Type: dsp.FilterBandpass, LowCut: 200, HighCut: 3000},
		Detect:        detect.Config{Method: detect.MethodThreshold, FactorPos: f64(6), FactorNeg: f64(5), RefractoryPeriod: 0.001},
		WindowSamples: windowSamples,
	}
}

func processChannel(t *testing.T, e *Engine, samples []float64, rate float64) *ChannelResult {
	t.Helper()

	src, err := source.NewMemory("test", rate, [][]float64{samples})
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	cur, err := src.Channel(0)
	if err != nil {
		t.Fatalf("Channel: %v", err)
	}
	res, err := e.ProcessChannel(context.Background(), cur, 0, rate)
	if err != nil {
		t.Fatalf("ProcessChannel: %v", err)
	}
	return res
}

// Whole-channel execution and windowed execution must agree bit for bit:
// same sigma, same thresholds, same events. This is the central invariant of
// the two execution modes.
func TestModeEquivalence(t *testing.T) {
	const rate = 10000.0
	signal := lcgNoise(t, 95000, 3.0, 42) // 9.5 s, not a multiple of any window below
	for i := 5000; i < len(signal); i += 9000 {
		signal[i] += 60
		signal[i+4000] -= 55
	}

	serial := processChannel(t, testEngine(len(signal)), signal, rate)
	if len(serial.Events) == 0 {
		t.Fatal("serial run found no events; test signal is broken")
	}

	for _, windowSamples := range []int{20000, 10000, 7777, 1000} {
		res := processChannel(t, testEngine(windowSamples), signal, rate)

		if res.Sigma != serial.Sigma {
			t.Errorf("window %d: sigma %v != serial %v", windowSamples, res.Sigma, serial.Sigma)
		}
		if res.Thresholds != serial.Thresholds {
			t.Errorf("window %d: thresholds %+v != serial %+v", windowSamples, res.Thresholds, serial.Thresholds)
		}
		if len(res.Events) != len(serial.Events) {
			t.Fatalf("window %d: %d events != serial %d", windowSamples, len(res.Events), len(serial.Events))
		}
		for i := range res.Events {
			if res.Events[i] != serial.Events[i] {
				t.Errorf("window %d: event %d = %+v != serial %+v", windowSamples, i, res.Events[i], serial.Events[i])
			}
		}
		if res.Samples != serial.Samples {
			t.Errorf("window %d: streamed %d samples, serial streamed %d", windowSamples, res.Samples, serial.Samples)
		}
	}
}

// Five impulses injected into a mid-band carrier must come back as exactly
// five positive events near the injection times, in both execution modes.
// The 1 kHz unit carrier pins sigma near 1.05 (median of |sin| over a cycle
// is 0.707), far below the impulse response peaks.
func TestInjectedSpikesRecovered(t *testing.T) {
	const (
		rate     = 10000.0
		duration = 6.0
	)
	n := int(duration * rate)
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * 1000 * float64(i) / rate)
	}
	injected := []float64{0.8, 1.9, 3.0, 4.1, 5.2}
	for _, at := range injected {
		signal[int(at*rate)] += 100
	}

	e := testEngine(n)
	e.Detect.RefractoryPeriod = 0.01 // outlasts the filter ringing
	serial := processChannel(t, e, signal, rate)

	if len(serial.Events) != len(injected) {
		t.Fatalf("got %d events, want %d: %+v", len(serial.Events), len(injected), serial.Events)
	}
	for i, ev := range serial.Events {
		if ev.Sign != detect.SignPositive {
			t.Errorf("event %d sign = %v, want pos", i, ev.Sign)
		}
		if math.Abs(ev.Time-injected[i]) > 0.002 {
			t.Errorf("event %d at %v s, want within 2 ms of %v s", i, ev.Time, injected[i])
		}
	}

	ew := testEngine(int(2 * rate)) // 2 s windows
	ew.Detect.RefractoryPeriod = 0.01
	windowed := processChannel(t, ew, signal, rate)
	if len(windowed.Events) != len(serial.Events) {
		t.Fatalf("windowed run found %d events, serial found %d", len(windowed.Events), len(serial.Events))
	}
	for i := range windowed.Events {
		if windowed.Events[i] != serial.Events[i] {
			t.Errorf("event %d differs between modes: %+v vs %+v", i, windowed.Events[i], serial.Events[i])
		}
	}
}

func TestShortFinalWindow(t *testing.T) {
	const rate = 10000.0
	signal := lcgNoise(t, 25001, 1.0, 5) // one sample past the window grid

	res := processChannel(t, testEngine(10000), signal, rate)
	if res.Samples != 25001 {
		t.Errorf("streamed %d samples, want 25001", res.Samples)
	}
	if res.Windows != 3 {
		t.Errorf("streamed %d windows, want 3", res.Windows)
	}
}

func TestProcessChannelErrors(t *testing.T) {
	const rate = 10000.0
	newCursor := func(t *testing.T) source.Cursor {
		src, err := source.NewMemory("test", rate, [][]float64{lcgNoise(t, 1000, 1.0, 1)})
		if err != nil {
			t.Fatalf("NewMemory: %v", err)
		}
		cur, err := src.Channel(0)
		if err != nil {
			t.Fatalf("Channel: %v", err)
		}
		return cur
	}

	t.Run("invalid window length", func(t *testing.T) {
		e := testEngine(0)
		if _, err := e.ProcessChannel(context.Background(), newCursor(t), 0, rate); err == nil {
			t.Error("want error for zero window length")
		}
	})

	t.Run("invalid filter config", func(t *testing.T) {
		e := testEngine(1000)
		e.Filter.HighCut = 9000 // above Nyquist at 10 kHz
		_, err := e.ProcessChannel(context.Background(), newCursor(t), 0, rate)
		if !errors.Is(err, dsp.ErrInvalidFilterConfig) {
			t.Errorf("error = %v, want ErrInvalidFilterConfig", err)
		}
	})

	t.Run("no factors configured", func(t *testing.T) {
		e := testEngine(1000)
		e.Detect.FactorPos = nil
		e.Detect.FactorNeg = nil
		_, err := e.ProcessChannel(context.Background(), newCursor(t), 0, rate)
		if !errors.Is(err, detect.ErrNoThresholdConfigured) {
			t.Errorf("error = %v, want ErrNoThresholdConfigured", err)
		}
	})

	t.Run("cancellation discards the channel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		e := testEngine(100)
		res, err := e.ProcessChannel(ctx, newCursor(t), 0, rate)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if res != nil {
			t.Errorf("result = %+v, want nil after cancellation", res)
		}
	})
}

func TestProgressReachesDone(t *testing.T) {
	const rate = 10000.0
	var phases []Phase
	e := testEngine(5000)
	e.OnProgress = func(p Progress) { phases = append(phases, p.Phase) }

	processChannel(t, e, lcgNoise(t, 20000, 1.0, 9), rate)

	if len(phases) == 0 {
		t.Fatal("no progress reported")
	}
	if phases[len(phases)-1] != PhaseDone {
		t.Errorf("final phase = %v, want done", phases[len(phases)-1])
	}
	seen := map[Phase]bool{}
	for _, p := range phases {
		seen[p] = true
	}
	for _, want := range []Phase{PhaseLoading, PhaseFiltering, PhaseEstimating, PhaseDetecting, PhaseDone} {
		if !seen[want] {
			t.Errorf("phase %v never reported", want)
		}
	}
}
