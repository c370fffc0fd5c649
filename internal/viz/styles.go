package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles of the live view for one theme.
type Styles struct {
	Canvas  lipgloss.Style
	Frustum lipgloss.Style
	Stats   lipgloss.Style
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Active  lipgloss.Style
	Graph   lipgloss.Style
	Help    lipgloss.Style

	Running lipgloss.Style
	Paused  lipgloss.Style
	Waiting lipgloss.Style
	Failed  lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Canvas:  lipgloss.NewStyle().Padding(1, 2),
		Frustum: lipgloss.NewStyle().Foreground(t.Primary),
		Stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(44),
		Header: lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		Label:  lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:  lipgloss.NewStyle().Foreground(t.Text),
		Active: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Graph:  lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 0),
		Help:   lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),

		Running: lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		Paused:  lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		Waiting: lipgloss.NewStyle().Foreground(t.Muted).Bold(true),
		Failed:  lipgloss.NewStyle().Foreground(t.Error).Bold(true),
	}
}

// ProgressBar renders a bar filled to percent, clamped to [0, 1].
func (s Styles) ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if filled == width {
		return s.Running.Render(bar)
	}
	return s.Active.Render(bar)
}

// Sparkline renders the last width values scaled between their min and max.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune("▁▂▃▄▅▆▇█")
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(chars)-1))
		b.WriteRune(chars[max(0, min(idx, len(chars)-1))])
	}
	return b.String()
}
