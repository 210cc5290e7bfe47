package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Bar renders frac in [0, 1] as a width-cell bar.
func Bar(frac float64, width int) string {
	filled := int(frac*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// LevelBar colours a Bar by how full it is: good above 40%, warning above
// 15%, bad below.
func LevelBar(frac float64, width int, st Styles) string {
	style := st.Good
	switch {
	case frac <= 0.15:
		style = st.Bad
	case frac <= 0.4:
		style = st.Warn
	}
	return style.Render(Bar(frac, width))
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline draws the last width values scaled between their min and max.
func Sparkline(values []float64, width int, style lipgloss.Style) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(sparkChars)-1))
		b.WriteRune(sparkChars[max(0, min(len(sparkChars)-1, idx))])
	}
	return style.Render(b.String())
}
