// Package ui provides the bubbletea terminal interface for batch runs: a
// recording queue with per-recording channel progress and a final summary.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RecordingStatus is the processing state of one recording in the queue.
type RecordingStatus int

const (
	StatusQueued RecordingStatus = iota
	StatusProcessing
	StatusComplete
	StatusError
)

// RecordingProgress tracks one recording through the batch.
type RecordingProgress struct {
	Name   string
	Status RecordingStatus

	Channels     int
	ChannelsDone int
	Spikes       int

	SpikesPos      int
	SpikesNeg      int
	FailedChannels int
	OutputPath     string

	StartTime   time.Time
	ElapsedTime time.Duration

	Error error
}

// Model is the bubbletea model for the batch run.
type Model struct {
	Recordings   []RecordingProgress
	CurrentIndex int
	Completed    int
	Failed       int

	StartTime time.Time
	Done      bool

	// ProgressChan receives messages from the processing goroutine.
	ProgressChan chan tea.Msg

	Width  int
	Height int
}

// NewModel creates a model with the given recording names queued.
func NewModel(names []string) Model {
	recs := make([]RecordingProgress, len(names))
	for i, name := range names {
		recs[i] = RecordingProgress{Name: name, Status: StatusQueued}
	}
	return Model{
		Recordings:   recs,
		CurrentIndex: -1,
		StartTime:    time.Now(),
		ProgressChan: make(chan tea.Msg, 100),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForProgress(m.ProgressChan)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case RecordingStartMsg:
		m.CurrentIndex = msg.Index
		rec := &m.Recordings[msg.Index]
		rec.Status = StatusProcessing
		rec.Channels = msg.Channels
		rec.StartTime = time.Now()
		return m, waitForProgress(m.ProgressChan)

	case ChannelProgressMsg:
		if msg.Index >= 0 && msg.Index < len(m.Recordings) {
			rec := &m.Recordings[msg.Index]
			rec.ChannelsDone = msg.ChannelsDone
			rec.Spikes = msg.Spikes
			rec.ElapsedTime = time.Since(rec.StartTime)
		}
		return m, waitForProgress(m.ProgressChan)

	case RecordingCompleteMsg:
		if msg.Index >= 0 && msg.Index < len(m.Recordings) {
			rec := &m.Recordings[msg.Index]
			rec.SpikesPos = msg.SpikesPos
			rec.SpikesNeg = msg.SpikesNeg
			rec.FailedChannels = msg.FailedChannels
			rec.OutputPath = msg.OutputPath
			rec.Error = msg.Error
			rec.ElapsedTime = time.Since(rec.StartTime)
			if msg.Error != nil {
				rec.Status = StatusError
				m.Failed++
			} else {
				rec.Status = StatusComplete
				m.Completed++
			}
		}
		return m, waitForProgress(m.ProgressChan)

	case AllCompleteMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	if m.Done {
		return renderCompletionSummary(m)
	}
	return renderProcessingView(m)
}

// waitForProgress creates a command that waits for the next progress message.
func waitForProgress(progressChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-progressChan
	}
}
