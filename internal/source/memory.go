package source

import (
	"fmt"
	"io"
)

// MemorySource serves channels from slices already in memory. Used by tests
// and by library callers that generate or load data themselves.
type MemorySource struct {
	info     RecordingInfo
	channels [][]float64
}

// NewMemory builds a source over the given channels. All channels must have
// equal length.
func NewMemory(name string, sampleRate float64, channels [][]float64) (*MemorySource, error) {
	var samples int64
	if len(channels) > 0 {
		samples = int64(len(channels[0]))
	}
	labels := make([]string, len(channels))
	for i, ch := range channels {
		if int64(len(ch)) != samples {
			return nil, fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d",
				ErrSourceUnavailable, i, len(ch), samples)
		}
		labels[i] = fmt.Sprintf("Ch %d", i)
	}
	return &MemorySource{
		info: RecordingInfo{
			Name:       name,
			SampleRate: sampleRate,
			Channels:   len(channels),
			Samples:    samples,
			Labels:     labels,
		},
		channels: channels,
	}, nil
}

func (s *MemorySource) Info() RecordingInfo { return s.info }

func (s *MemorySource) Channel(idx int) (Cursor, error) {
	if idx < 0 || idx >= len(s.channels) {
		return nil, fmt.Errorf("%w: channel %d out of range [0,%d)", ErrSourceUnavailable, idx, len(s.channels))
	}
	return &memoryCursor{data: s.channels[idx]}, nil
}

func (s *MemorySource) Close() error { return nil }

type memoryCursor struct {
	data []float64
	pos  int
}

func (c *memoryCursor) Next(buf []float64) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	n := copy(buf, c.data[c.pos:])
	c.pos += n
	if c.pos >= len(c.data) {
		return n, io.EOF
	}
	return n, nil
}

func (c *memoryCursor) Reset() error {
	c.pos = 0
	return nil
}

func (c *memoryCursor) Close() error { return nil }
