package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	canvas  lipgloss.Style
	stats   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	graph   lipgloss.Style
	help    lipgloss.Style
	good    lipgloss.Style
	warning lipgloss.Style
	bad     lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Padding(1, 2),
		stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(46),
		header:  lipgloss.NewStyle().Foreground(t.Title).Bold(true).MarginBottom(1),
		label:   lipgloss.NewStyle().Foreground(t.Label).Width(12),
		value:   lipgloss.NewStyle().Foreground(t.Value),
		graph:   lipgloss.NewStyle().Foreground(t.Graph).Padding(1, 0),
		help:    lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		good:    lipgloss.NewStyle().Foreground(t.Good).Bold(true),
		warning: lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		bad:     lipgloss.NewStyle().Foreground(t.Error).Bold(true),
	}
}

// Sparkline renders values as one row of block characters, sampled to
// fit width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		idx := int((values[i*step] - lo) / rng * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)
		b.WriteRune(chars[idx])
	}
	return b.String()
}

// ProgressBar renders fraction in [0, 1] as a bar of width cells.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
