// Package source provides sample sources for recordings: adapters that
// expose multichannel voltage data as per-channel rewindable cursors, keeping
// the processing pipeline independent of the container format.
package source

import "errors"

// ErrSourceUnavailable indicates a recording that cannot be opened or read.
var ErrSourceUnavailable = errors.New("sample source unavailable")

// RecordingInfo describes a recording's shape. SampleRate is uniform across
// channels; sources reject recordings where it is not.
type RecordingInfo struct {
	Name       string   // recording identifier, used to derive output names
	SampleRate float64  // Hz
	Channels   int      // number of data channels
	Samples    int64    // samples per channel
	Labels     []string // one label per channel (electrode IDs)
}

// Duration returns the recording length in seconds.
func (ri RecordingInfo) Duration() float64 {
	if ri.SampleRate <= 0 {
		return 0
	}
	return float64(ri.Samples) / ri.SampleRate
}

// Cursor streams one channel's samples in time order. Next follows io.Reader
// conventions: it may return n > 0 together with io.EOF at the end of the
// channel. Reset rewinds to the first sample so the channel can be streamed
// again.
type Cursor interface {
	Next(buf []float64) (int, error)
	Reset() error
	Close() error
}

// Source is an open recording. Channel cursors are independent: each may be
// read from its own goroutine.
type Source interface {
	Info() RecordingInfo
	// Channel returns a fresh cursor positioned at the channel's first
	// sample. Channel indices run 0..Info().Channels-1.
	Channel(idx int) (Cursor, error)
	Close() error
}
