package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/spotibaby/internal/session"
)

// Theme names the colors the kiosk draws with.
type Theme struct {
	Accent string
	OK     string
	Error  string
	Warn   string
	Muted  string
}

var defaultTheme = Theme{
	Accent: "#1DB954",
	OK:     "#04B575",
	Error:  "#FF0000",
	Warn:   "#FFA500",
	Muted:  "#626262",
}

var styles = newPalette(defaultTheme)

type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	bar   lipgloss.Style
	fill  lipgloss.Style
	track lipgloss.Style
}

func newPalette(t Theme) palette {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		title: fg(t.Accent).Bold(true).MarginBottom(1),
		ok:    fg(t.OK).Bold(true),
		err:   fg(t.Error).Bold(true),
		warn:  fg(t.Warn),
		help:  fg(t.Muted).Italic(true),
		bar: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color(t.Muted)),
		fill:  fg(t.Accent),
		track: fg(t.Accent).Bold(true),
	}
}

var phaseLabels = map[session.Phase]string{
	session.PhaseUninitialized: "offline",
	session.PhaseTokenAcquired: "waiting for device",
	session.PhaseEngineReady:   "device ready",
	session.PhaseActive:        "device ready",
	session.PhaseDegraded:      "reconnecting",
}

// phase styles the connection label; only a degraded session draws attention.
func (p palette) phase(ph session.Phase) string {
	label, ok := phaseLabels[ph]
	if !ok {
		label = phaseLabels[session.PhaseUninitialized]
	}
	if ph == session.PhaseDegraded {
		return p.warn.Render(label)
	}
	return p.help.Render(label)
}
