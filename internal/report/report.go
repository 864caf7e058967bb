// Package report generates the per-recording analysis report saved alongside
// the spike output: run parameters, per-channel noise and threshold figures,
// spike counts, and any channel failures.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tivenide/MEAexplorer/internal/config"
	"github.com/tivenide/MEAexplorer/internal/detect"
	"github.com/tivenide/MEAexplorer/internal/run"
)

// Data bundles everything the report needs.
type Data struct {
	Result     *run.Result
	Mode       config.Mode
	FilterDesc string // human-readable filter description, e.g. "bandpass 200-3000 Hz"
	OutputPath string // spike CSV path; the report lands next to it
	Version    string
	StartTime  time.Time
}

// Generate writes the report next to the spike output file, with the
// extension swapped for .log.
func Generate(data Data) error {
	logPath := strings.TrimSuffix(data.OutputPath, filepath.Ext(data.OutputPath)) + ".log"
	f, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	writeHeader(f, data)
	writeRunSummary(f, data)
	writeChannelTable(f, data.Result)
	writeFailures(f, data.Result)
	return nil
}

// writeSection writes a section title with a dashed underline.
func writeSection(f *os.File, title string) {
	fmt.Fprintln(f, title)
	fmt.Fprintln(f, strings.Repeat("-", len(title)))
}

func writeHeader(f *os.File, data Data) {
	info := data.Result.Recording
	fmt.Fprintf(f, "MEAexplorer %s - spike detection report\n", data.Version)
	fmt.Fprintf(f, "Recording: %s (%d channels, %.0f Hz, %.1f s)\n",
		info.Name, info.Channels, info.SampleRate, info.Duration())
	fmt.Fprintf(f, "Generated: %s\n\n", data.StartTime.Format(time.RFC1123))
}

func writeRunSummary(f *os.File, data Data) {
	res := data.Result
	pos, neg := res.Spikes()

	writeSection(f, "Run Summary")
	fmt.Fprintf(f, "Execution mode:     %s\n", data.Mode)
	fmt.Fprintf(f, "Window length:      %d samples (%.3f s)\n",
		res.WindowSamples, float64(res.WindowSamples)/res.Recording.SampleRate)
	fmt.Fprintf(f, "Filter:             %s\n", data.FilterDesc)
	fmt.Fprintf(f, "Channels processed: %d of %d\n", len(res.Channels), res.Recording.Channels)
	fmt.Fprintf(f, "Spikes detected:    %d (%d pos, %d neg)\n", pos+neg, pos, neg)
	fmt.Fprintf(f, "Processing time:    %s\n\n", res.Elapsed.Round(time.Millisecond))
}

func writeChannelTable(f *os.File, res *run.Result) {
	if len(res.Channels) == 0 {
		return
	}

	table := &Table{Headers: []string{"Sigma uV", "Thr+", "Thr-", "Pos", "Neg"}}
	for _, ch := range res.Channels {
		var pos, neg int
		for _, ev := range ch.Events {
			if ev.Sign == detect.SignNegative {
				neg++
			} else {
				pos++
			}
		}
		label := fmt.Sprintf("Ch %d", ch.Channel)
		if ch.Channel < len(res.Recording.Labels) {
			label = res.Recording.Labels[ch.Channel]
		}
		table.Rows = append(table.Rows, Row{
			Label: label,
			Values: []string{
				formatMetric(ch.Sigma),
				formatThreshold(ch.Thresholds.Pos, ch.Thresholds.HasPos),
				formatThreshold(ch.Thresholds.Neg, ch.Thresholds.HasNeg),
				strconv.Itoa(pos),
				strconv.Itoa(neg),
			},
		})
	}

	writeSection(f, "Channels")
	fmt.Fprintln(f, table.String())
}

func writeFailures(f *os.File, res *run.Result) {
	if len(res.Failures) == 0 {
		return
	}

	writeSection(f, "Failed Channels")
	for _, fail := range res.Failures {
		fmt.Fprintf(f, "channel %d: %v\n", fail.Channel, fail.Err)
	}
	fmt.Fprintln(f)
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func formatThreshold(v float64, set bool) string {
	if !set {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
