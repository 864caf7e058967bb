package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/tivenide/MEAexplorer/internal/detect"
)

func TestCSVSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	s, err := NewCSV(dir)
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}

	events := []detect.Event{
		{Channel: 0, Time: 0.8125, Sign: detect.SignPositive, Amplitude: 42.5},
		{Channel: 0, Time: 1.25, Sign: detect.SignNegative, Amplitude: -38},
		{Channel: 3, Time: 0.5, Sign: detect.SignPositive, Amplitude: 51},
	}
	if err := s.Write("rec01", events); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := os.Open(s.Path("rec01"))
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	want := [][]string{
		{"channel", "time_s", "sign", "amplitude"},
		{"0", "0.812500", "pos", "42.5"},
		{"0", "1.250000", "neg", "-38"},
		{"3", "0.500000", "pos", "51"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d: %v", len(rows), len(want), rows)
	}
	for i, row := range rows {
		for j := range want[i] {
			if row[j] != want[i][j] {
				t.Errorf("row %d col %d = %q, want %q", i, j, row[j], want[i][j])
			}
		}
	}
}

func TestCSVSinkEmptyEvents(t *testing.T) {
	s, err := NewCSV(t.TempDir())
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}
	if err := s.Write("empty", nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(s.Path("empty"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "channel,time_s,sign,amplitude\n" {
		t.Errorf("empty recording output = %q, want header only", data)
	}
}
