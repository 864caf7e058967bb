package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderProcessingView renders the live batch view.
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	b.WriteString(renderQueue(m))
	b.WriteString("\n")
	b.WriteString(renderOverallProgress(m))

	return b.String()
}

func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#0E7490")).
		Render("MEAexplorer ⚡ - Spike Detection")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(fmt.Sprintf("Processing %d recording(s)", len(m.Recordings)))

	return title + "\n" + subtitle
}

func renderQueue(m Model) string {
	var b strings.Builder
	for i := range m.Recordings {
		b.WriteString(renderEntry(m.Recordings[i]))
		b.WriteString("\n")
	}
	return b.String()
}

// renderEntry renders one recording in the queue.
func renderEntry(rec RecordingProgress) string {
	switch rec.Status {
	case StatusComplete:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
		summary := fmt.Sprintf("%d spikes (%d pos, %d neg)", rec.SpikesPos+rec.SpikesNeg, rec.SpikesPos, rec.SpikesNeg)
		if rec.FailedChannels > 0 {
			summary += fmt.Sprintf(" | %d channel(s) failed", rec.FailedChannels)
		}
		return fmt.Sprintf(" %s %s → %s\n   %s", icon, rec.Name, filepath.Base(rec.OutputPath), summary)

	case StatusProcessing:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("⚙")
		return fmt.Sprintf(" %s %s\n%s", icon, rec.Name, renderActiveDetails(rec))

	case StatusError:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, rec.Name, rec.Error)

	default:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, rec.Name)
	}
}

// renderActiveDetails renders the progress box for the active recording.
func renderActiveDetails(rec RecordingProgress) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#0E7490")).
		Padding(0, 1).
		Width(60)

	var content strings.Builder
	content.WriteString(fmt.Sprintf("Channels: %d/%d\n", rec.ChannelsDone, rec.Channels))

	progress := 0.0
	if rec.Channels > 0 {
		progress = float64(rec.ChannelsDone) / float64(rec.Channels)
	}
	content.WriteString(renderProgressBar(progress, 40))
	content.WriteString("\n\n")
	content.WriteString(fmt.Sprintf("⏱  Elapsed: %.1fs | Spikes so far: %d",
		rec.ElapsedTime.Seconds(), rec.Spikes))

	return box.Render(content.String())
}

func renderProgressBar(progress float64, width int) string {
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %d%%", bar, int(progress*100))
}

func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#888888")).
		Padding(0, 1).
		Width(60)

	var content string
	if m.CurrentIndex >= 0 && m.CurrentIndex < len(m.Recordings) {
		content = fmt.Sprintf("Recording %d of %d (%d complete)",
			m.CurrentIndex+1, len(m.Recordings), m.Completed)
	} else {
		content = fmt.Sprintf("Overall: %d/%d complete", m.Completed, len(m.Recordings))
	}
	return box.Render(content)
}

// renderCompletionSummary renders the final screen after the batch is done.
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00AA00")).
		Render("✨ Detection Complete!")
	b.WriteString(header)
	b.WriteString("\n\n")

	for i := range m.Recordings {
		rec := m.Recordings[i]
		switch rec.Status {
		case StatusComplete:
			icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
			b.WriteString(fmt.Sprintf(" %s %s → %s\n   %d spikes (%d pos, %d neg) in %.1fs\n",
				icon, rec.Name, filepath.Base(rec.OutputPath),
				rec.SpikesPos+rec.SpikesNeg, rec.SpikesPos, rec.SpikesNeg,
				rec.ElapsedTime.Seconds()))
		case StatusError:
			icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
			b.WriteString(fmt.Sprintf(" %s %s\n   Error: %v\n", icon, rec.Name, rec.Error))
		}
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%d recording(s) processed, %d failed\n", m.Completed, m.Failed))

	return b.String()
}
