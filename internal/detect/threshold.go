package detect

import "math"

// thresholdDetector emits an event whenever a sample exceeds a threshold and
// the channel is out of its refractory period. State is the absolute sample
// index and the index of the last accepted spike, both carried across
// windows.
type thresholdDetector struct {
	channel    int
	rate       float64
	thr        Thresholds
	refractory int64 // minimum spacing in samples

	offset    int64 // absolute index of the next sample to scan
	lastSpike int64
}

func newThresholdDetector(channel int, sampleRate float64, cfg Config, thr Thresholds) (Detector, error) {
	if !thr.HasPos && !thr.HasNeg {
		return nil, ErrNoThresholdConfigured
	}
	d := &thresholdDetector{
		channel:    channel,
		rate:       sampleRate,
		thr:        thr,
		refractory: int64(math.Round(cfg.RefractoryPeriod * sampleRate)),
	}
	d.Reset()
	return d, nil
}

func (d *thresholdDetector) Reset() {
	d.offset = 0
	// Far enough back that a crossing at sample 0 is never suppressed.
	d.lastSpike = math.MinInt64 / 2
}

func (d *thresholdDetector) Detect(samples []float64) []Event {
	var events []Event
	for i, x := range samples {
		idx := d.offset + int64(i)
		if idx-d.lastSpike < d.refractory {
			continue
		}

		pos := d.thr.HasPos && x >= d.thr.Pos
		neg := d.thr.HasNeg && x <= -d.thr.Neg
		if !pos && !neg {
			continue
		}

		sign := SignPositive
		if neg && !pos {
			sign = SignNegative
		} else if pos && neg {
			// Degenerate case (both thresholds at zero): keep the polarity
			// with the greater deviation beyond its threshold.
			if -x-d.thr.Neg > x-d.thr.Pos {
				sign = SignNegative
			}
		}

		events = append(events, Event{
			Channel:   d.channel,
			Time:      float64(idx) / d.rate,
			Sign:      sign,
			Amplitude: x,
		})
		d.lastSpike = idx
	}
	d.offset += int64(len(samples))
	return events
}
