package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/OpenPSG/edf"
)

// annotationsLabel marks the EDF+ annotations pseudo-signal, which carries no
// voltage data and is skipped.
const annotationsLabel = "EDF Annotations"

// EDFSource reads an EDF/EDF+ recording from disk. The edf reader does not
// expose the parsed header, so the shape metadata (rate, channel count,
// labels) is read from the header block directly; sample decoding and
// digital-to-physical calibration are left to the edf package.
//
// Each cursor holds its own file handle, so cursors for different channels
// can be read concurrently.
type EDFSource struct {
	path    string
	info    RecordingInfo
	signals []int // channel index -> EDF signal index
}

// OpenEDF opens and validates an EDF recording. All data channels must share
// one sample rate; mixed-rate files are rejected.
func OpenEDF(path string) (*EDFSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	meta, err := readHeaderMeta(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
	}

	src := &EDFSource{path: path}
	var rate float64
	for i, sig := range meta.signals {
		if sig.label == annotationsLabel {
			continue
		}
		r := float64(sig.samplesPerRecord) / meta.recordSeconds
		if len(src.signals) == 0 {
			rate = r
		} else if r != rate {
			return nil, fmt.Errorf("%w: %s: mixed sample rates (%g vs %g Hz)",
				ErrSourceUnavailable, path, rate, r)
		}
		src.signals = append(src.signals, i)
		src.info.Labels = append(src.info.Labels, sig.label)
		src.info.Samples = int64(meta.dataRecords) * int64(sig.samplesPerRecord)
	}
	if len(src.signals) == 0 {
		return nil, fmt.Errorf("%w: %s: no data channels", ErrSourceUnavailable, path)
	}

	src.info.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	src.info.SampleRate = rate
	src.info.Channels = len(src.signals)
	return src, nil
}

func (s *EDFSource) Info() RecordingInfo { return s.info }

func (s *EDFSource) Channel(idx int) (Cursor, error) {
	if idx < 0 || idx >= len(s.signals) {
		return nil, fmt.Errorf("%w: channel %d out of range [0,%d)", ErrSourceUnavailable, idx, len(s.signals))
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	r, err := edf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.path, err)
	}
	sr, err := r.Signal(s.signals[idx])
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.path, err)
	}
	return &edfCursor{f: f, r: r, signal: s.signals[idx], sr: sr}, nil
}

func (s *EDFSource) Close() error { return nil }

type edfCursor struct {
	f      *os.File
	r      *edf.Reader
	signal int
	sr     *edf.SignalReader
}

func (c *edfCursor) Next(buf []float64) (int, error) {
	return c.sr.Read(buf)
}

// Reset rewinds by taking a fresh SignalReader over the same open reader.
func (c *edfCursor) Reset() error {
	sr, err := c.r.Signal(c.signal)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	c.sr = sr
	return nil
}

func (c *edfCursor) Close() error { return c.f.Close() }

// signalMeta is the per-signal header metadata needed to shape the
// recording.
type signalMeta struct {
	label            string
	samplesPerRecord int
}

type headerMeta struct {
	dataRecords   int
	recordSeconds float64
	signals       []signalMeta
}

// readHeaderMeta parses the EDF header block: a fixed 256-byte preamble
// followed by per-signal field arrays (field-major, ASCII).
func readHeaderMeta(r io.Reader) (*headerMeta, error) {
	b := make([]byte, 256)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	meta := &headerMeta{}
	var err error
	meta.dataRecords, err = strconv.Atoi(strings.TrimSpace(string(b[236:244])))
	if err != nil {
		return nil, fmt.Errorf("parsing data record count: %w", err)
	}
	meta.recordSeconds, err = strconv.ParseFloat(strings.TrimSpace(string(b[244:252])), 64)
	if err != nil {
		return nil, fmt.Errorf("parsing data record duration: %w", err)
	}
	if meta.recordSeconds <= 0 {
		return nil, fmt.Errorf("non-positive data record duration %g s", meta.recordSeconds)
	}
	signalCount, err := strconv.Atoi(strings.TrimSpace(string(b[252:256])))
	if err != nil {
		return nil, fmt.Errorf("parsing signal count: %w", err)
	}
	if signalCount <= 0 {
		return nil, fmt.Errorf("non-positive signal count %d", signalCount)
	}

	meta.signals = make([]signalMeta, signalCount)

	// Field widths in order: label 16, transducer 80, dimension 8,
	// physical min/max 8+8, digital min/max 8+8, prefiltering 80,
	// samples per record 8, reserved 32.
	readField := func(width int) ([]string, error) {
		buf := make([]byte, width)
		vals := make([]string, signalCount)
		for i := 0; i < signalCount; i++ {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("reading signal headers: %w", err)
			}
			vals[i] = strings.TrimSpace(string(buf))
		}
		return vals, nil
	}

	labels, err := readField(16)
	if err != nil {
		return nil, err
	}
	for _, width := range []int{80, 8, 8, 8, 8, 8, 80} {
		if _, err := readField(width); err != nil {
			return nil, err
		}
	}
	samples, err := readField(8)
	if err != nil {
		return nil, err
	}

	for i := range meta.signals {
		meta.signals[i].label = labels[i]
		meta.signals[i].samplesPerRecord, err = strconv.Atoi(samples[i])
		if err != nil {
			return nil, fmt.Errorf("parsing samples per record for signal %d: %w", i, err)
		}
		if meta.signals[i].samplesPerRecord <= 0 {
			return nil, fmt.Errorf("non-positive samples per record for signal %d", i)
		}
	}
	return meta, nil
}
