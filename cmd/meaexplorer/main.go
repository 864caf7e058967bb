package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tivenide/MEAexplorer/internal/cli"
	"github.com/tivenide/MEAexplorer/internal/config"
	"github.com/tivenide/MEAexplorer/internal/dsp"
	"github.com/tivenide/MEAexplorer/internal/engine"
	"github.com/tivenide/MEAexplorer/internal/report"
	"github.com/tivenide/MEAexplorer/internal/run"
	"github.com/tivenide/MEAexplorer/internal/sink"
	"github.com/tivenide/MEAexplorer/internal/source"
	"github.com/tivenide/MEAexplorer/internal/ui"
)

var version = "0.1.0"

// CLI defines the command-line interface
type CLI struct {
	Version bool   `short:"v" help:"Show version information"`
	Config  string `short:"c" type:"path" default:"config.yaml" help:"Path to YAML config file"`
	NoUI    bool   `name:"no-ui" help:"Disable the progress UI (plain output for scripts and CI)"`
	Logs    bool   `help:"Save a per-recording analysis report next to the spike output"`
}

func main() {
	cliArgs := &CLI{}
	kong.Parse(cliArgs,
		kong.Name("meaexplorer"),
		kong.Description("Spike detection for multi-electrode array recordings"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	cfg, err := config.Load(cliArgs.Config)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	recordings, err := findRecordings(cfg.InputFolder)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	if len(recordings) == 0 {
		cli.PrintError(fmt.Sprintf("no .edf recordings found in %s", cfg.InputFolder))
		os.Exit(1)
	}

	snk, err := sink.NewCSV(cfg.OutputFolder)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	batch := &batch{
		cfg:        cfg,
		sink:       snk,
		recordings: recordings,
		logs:       cliArgs.Logs,
	}

	var failed int
	if cliArgs.NoUI {
		failed = batch.runPlain()
	} else {
		failed = batch.runTUI()
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// findRecordings lists the .edf files of the input folder, sorted by name.
func findRecordings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input folder: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".edf") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// batch processes the recording queue and reports per-recording outcomes
// through a notifier.
type batch struct {
	cfg        *config.Config
	sink       *sink.CSVSink
	recordings []string
	logs       bool
}

// outcome is what the notifier learns about a finished recording.
type outcome struct {
	index      int
	name       string
	result     *run.Result
	outputPath string
	err        error
}

type notifier interface {
	start(index int, name string, channels int)
	progress(index int, channelsDone, spikes int)
	done(outcome)
}

// process runs every recording and returns the number of recording-level
// failures. Per-channel failures are reported but do not fail the batch.
func (b *batch) process(notify notifier) int {
	failed := 0
	for i, path := range b.recordings {
		out := b.processOne(i, path, notify)
		notify.done(out)
		if out.err != nil {
			failed++
		}
	}
	return failed
}

func (b *batch) processOne(index int, path string, notify notifier) outcome {
	startTime := time.Now()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := outcome{index: index, name: name}

	src, err := source.OpenEDF(path)
	if err != nil {
		out.err = err
		return out
	}
	defer src.Close()

	info := src.Info()
	out.name = info.Name
	notify.start(index, info.Name, info.Channels)

	var mu sync.Mutex
	channelsDone, spikes := 0, 0

	opts := run.Options{
		Mode:            b.cfg.ExecutionMode,
		WindowTimeInSec: b.cfg.SerialWindow.WindowTimeInSec,
		Workers:         b.cfg.Workers,
		Filter:          b.cfg.FilterConfig(),
		Detect:          b.cfg.DetectConfig(),
		OnChannelDone: func(res *engine.ChannelResult, _ *run.ChannelError) {
			mu.Lock()
			channelsDone++
			if res != nil {
				spikes += len(res.Events)
			}
			done, found := channelsDone, spikes
			mu.Unlock()
			notify.progress(index, done, found)
		},
	}

	res, err := run.Process(context.Background(), src, opts)
	if err != nil {
		out.err = err
		return out
	}
	out.result = res

	if err := b.sink.Write(info.Name, res.Events); err != nil {
		out.err = err
		return out
	}
	out.outputPath = b.sink.Path(info.Name)

	if b.logs {
		err := report.Generate(report.Data{
			Result:     res,
			Mode:       b.cfg.ExecutionMode,
			FilterDesc: describeFilter(b.cfg.FilterConfig()),
			OutputPath: out.outputPath,
			Version:    version,
			StartTime:  startTime,
		})
		if err != nil {
			cli.PrintWarning(fmt.Sprintf("%s: %v", info.Name, err))
		}
	}
	return out
}

func describeFilter(fc dsp.FilterConfig) string {
	if fc.Type == dsp.FilterNotch {
		if fc.PowerlineHz == 0 {
			return "notch (auto powerline)"
		}
		return fmt.Sprintf("notch %g Hz", fc.PowerlineHz)
	}
	return fmt.Sprintf("%s %g-%g Hz", fc.Type, fc.LowCut, fc.HighCut)
}

// runTUI drives the batch under the bubbletea progress UI.
func (b *batch) runTUI() int {
	names := make([]string, len(b.recordings))
	for i, path := range b.recordings {
		names[i] = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	model := ui.NewModel(names)
	p := tea.NewProgram(model, tea.WithAltScreen())

	failed := 0
	go func() {
		failed = b.process(&teaNotifier{p: p})
		p.Send(ui.AllCompleteMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		return 1
	}
	// Keep the summary visible after the alt screen is torn down.
	if m, ok := finalModel.(ui.Model); ok && m.Done {
		fmt.Print(m.View())
	}
	return failed
}

// teaNotifier forwards batch events to the bubbletea program.
type teaNotifier struct {
	p *tea.Program
}

func (n *teaNotifier) start(index int, name string, channels int) {
	n.p.Send(ui.RecordingStartMsg{Index: index, Name: name, Channels: channels})
}

func (n *teaNotifier) progress(index int, channelsDone, spikes int) {
	n.p.Send(ui.ChannelProgressMsg{Index: index, ChannelsDone: channelsDone, Spikes: spikes})
}

func (n *teaNotifier) done(out outcome) {
	msg := ui.RecordingCompleteMsg{Index: out.index, OutputPath: out.outputPath, Error: out.err}
	if out.result != nil {
		msg.SpikesPos, msg.SpikesNeg = out.result.Spikes()
		msg.FailedChannels = len(out.result.Failures)
	}
	n.p.Send(msg)
}

// runPlain drives the batch with line-oriented output.
func (b *batch) runPlain() int {
	return b.process(&plainNotifier{})
}

type plainNotifier struct{}

func (n *plainNotifier) start(index int, name string, channels int) {
	fmt.Printf("processing %s (%d channels)\n", name, channels)
}

func (n *plainNotifier) progress(int, int, int) {}

func (n *plainNotifier) done(out outcome) {
	if out.err != nil {
		cli.PrintError(fmt.Sprintf("%s: %v", out.name, out.err))
		return
	}
	pos, neg := out.result.Spikes()
	fmt.Printf("%s: %d spikes (%d pos, %d neg) -> %s\n",
		out.name, pos+neg, pos, neg, out.outputPath)
	for _, fail := range out.result.Failures {
		cli.PrintWarning(fmt.Sprintf("%s: %v", out.name, fail))
	}
}
