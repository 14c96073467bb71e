package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dalimagaadi/kord-app/internal/core"
	"github.com/dalimagaadi/kord-app/internal/tui/styles"
)

// NowPlaying displays the current track and effective playback status
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel
func (n *NowPlaying) Render(state *core.PlaybackState, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if !state.HasTrack() {
		content = styles.Muted.Render("No track selected")
	} else {
		content = n.renderTrack(state, width-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (n *NowPlaying) renderTrack(state *core.PlaybackState, width int) string {
	track := state.Track

	icon := styles.StatusIcon(state.IsPlaying)
	title := styles.Title.Width(width - 4).Render(track.DisplayTitle())
	artist := styles.Subtitle.Render(track.Artist)

	// Account for times on either side
	progressWidth := width - 14
	if progressWidth < 10 {
		progressWidth = 10
	}
	progressBar := styles.ProgressBar(state.ProgressPercent(), progressWidth)
	progress := fmt.Sprintf("%s %s %s", formatDuration(state.Progress), progressBar, formatDuration(track.Duration))

	info := fmt.Sprintf("%s  %s  🔊 %d%%", styles.SourceLabel(track.Source), phaseLabel(state), state.VolumePercent())

	lines := []string{
		icon + " " + title,
		"  " + artist,
		"",
		progress,
		"",
		info,
	}
	if state.Error != nil {
		lines = append(lines, styles.Failed.Render(truncate(state.Error.Message, width)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func phaseLabel(state *core.PlaybackState) string {
	switch {
	case state.Error != nil:
		return styles.Failed.Render("error")
	case state.Ended:
		return styles.Muted.Render("ended")
	case state.Phase == core.PhaseAwaitingReady:
		return styles.Dim.Render("loading…")
	case state.IsPlaying:
		return styles.Playing.Render("playing")
	default:
		return styles.Paused.Render("paused")
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-:--"
	}
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
