package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spotibaby/internal/shared"
)

const defaultBarWidth = 30

// renderTransport draws the now-playing line and progress bar from the latest snapshot.
func (m *Model) renderTransport() string {
	st := m.state

	icon := "⏸"
	if st.IsPlaying {
		icon = styles.ok.Render("▶")
	}

	name := m.trackName()
	if name == "" {
		name = styles.help.Render("nothing playing")
	} else {
		name = styles.track.Render(name)
	}
	if st.PendingTrackID != "" {
		name += styles.help.Render(" (starting...)")
	}

	width := defaultBarWidth
	if m.width > 40 {
		width = m.width / 3
	}
	progress := fmt.Sprintf("%s %s %s",
		shared.FormatMillis(st.PositionMs),
		progressBar(st.PositionMs, st.DurationMs, width),
		shared.FormatMillis(st.DurationMs),
	)

	return styles.bar.Render(fmt.Sprintf("%s %s\n%s  %s", icon, name, progress, styles.phase(st.Phase)))
}

// progressBar renders position/duration as a fixed-width bar.
func progressBar(positionMs, durationMs, width int) string {
	filled := 0
	if durationMs > 0 {
		filled = positionMs * width / durationMs
	}
	filled = max(0, min(filled, width))
	return styles.fill.Render(strings.Repeat("━", filled)) + strings.Repeat("─", width-filled)
}
