package ui

// RecordingStartMsg indicates a recording has started processing.
type RecordingStartMsg struct {
	Index    int
	Name     string
	Channels int
}

// ChannelProgressMsg reports progress within the active recording.
type ChannelProgressMsg struct {
	Index        int
	ChannelsDone int
	Spikes       int // spikes found so far
}

// RecordingCompleteMsg indicates a recording has finished.
type RecordingCompleteMsg struct {
	Index          int
	SpikesPos      int
	SpikesNeg      int
	FailedChannels int
	OutputPath     string
	Error          error
}

// AllCompleteMsg indicates the whole batch is done.
type AllCompleteMsg struct{}
