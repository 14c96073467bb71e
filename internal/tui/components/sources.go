package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/dalimagaadi/kord-app/internal/playback"
	"github.com/dalimagaadi/kord-app/internal/tui/styles"
)

// Sources displays every registered backend and which one owns playback.
type Sources struct{}

// NewSources creates a new Sources component
func NewSources() *Sources {
	return &Sources{}
}

// Render renders the sources panel
func (s *Sources) Render(sources []playback.SourceStatus, width, height int, focused bool) string {
	title := styles.PanelTitle("Sources", focused)

	var content string
	if len(sources) == 0 {
		content = styles.Muted.Render("No backends enabled")
	} else {
		content = s.renderSources(sources, width-4, height-4)
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

func (s *Sources) renderSources(sources []playback.SourceStatus, width, maxLines int) string {
	lines := make([]string, 0, len(sources))

	for _, src := range sources {
		active := "  "
		if src.Active {
			active = styles.Playing.Render("● ")
		}

		line := fmt.Sprintf("%s%s %s", active, styles.SourceLabel(src.Source), sourceState(src))
		if src.Error != "" {
			line += " " + styles.Failed.Render(truncate(src.Error, width-len(line)))
		}
		lines = append(lines, line)

		if len(lines) >= maxLines {
			break
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sourceState(src playback.SourceStatus) string {
	switch {
	case !src.Ready:
		return styles.Dim.Render("not loaded")
	case src.Playing:
		return styles.Playing.Render("playing")
	default:
		return styles.Muted.Render("ready")
	}
}
