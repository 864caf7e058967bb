// Package sink persists detected spike events. The CSV sink writes one
// delimited file per recording under the configured output folder.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tivenide/MEAexplorer/internal/detect"
)

// Sink receives the complete, ordered event list of one recording. Events
// arrive sorted by channel, then by time.
type Sink interface {
	Write(recording string, events []detect.Event) error
}

// CSVSink writes `<recording>.spikes.csv` files with the columns
// channel,time_s,sign,amplitude.
type CSVSink struct {
	dir string
}

// NewCSV creates the output folder if needed and returns a sink writing
// into it.
func NewCSV(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output folder: %w", err)
	}
	return &CSVSink{dir: dir}, nil
}

// Path returns the output file path for a recording.
func (s *CSVSink) Path(recording string) string {
	return filepath.Join(s.dir, recording+".spikes.csv")
}

func (s *CSVSink) Write(recording string, events []detect.Event) error {
	f, err := os.Create(s.Path(recording))
	if err != nil {
		return fmt.Errorf("creating spike file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"channel", "time_s", "sign", "amplitude"}); err != nil {
		f.Close()
		return err
	}
	for _, ev := range events {
		record := []string{
			strconv.Itoa(ev.Channel),
			strconv.FormatFloat(ev.Time, 'f', 6, 64),
			ev.Sign.String(),
			strconv.FormatFloat(ev.Amplitude, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
