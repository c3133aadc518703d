package viz

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
)

const nameWidth = 12

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// RenderTerminal draws each series of chart as a sparkline of its means,
// one row per series, for CLI previews. width and height size the sparkline.
func RenderTerminal(chart *Chart, width, height int) string {
	if chart == nil || len(chart.Series) == 0 {
		return dimStyle.Render("no data")
	}
	if width < 1 {
		width = len(chart.Labels)
	}
	if height < 1 {
		height = 1
	}

	var b strings.Builder
	title := chart.style.Title
	if title == "" {
		title = "PctFreeze by " + chart.Key
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	palette := chart.style.Palette
	if len(palette) == 0 {
		palette = DefaultStyle().Palette
	}

	for s, series := range chart.Series {
		name := series.Name
		if name == "" {
			name = "all"
		}
		if len(name) > nameWidth {
			name = name[:nameWidth]
		}

		means, lo, hi := seriesMeans(series)
		spark := sparkline.New(width, height)
		for _, v := range means {
			// Sparklines grow from zero.
			spark.Push(v - min(lo, 0))
		}
		spark.Draw()

		label := lipgloss.NewStyle().Width(nameWidth + 1).Render(name)
		stats := dimStyle.Render(fmt.Sprintf(" %.1f..%.1f", lo, hi))
		color := lipgloss.Color(palette[s%len(palette)])
		line := lipgloss.NewStyle().Foreground(color).Render(spark.View())
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, line, stats))
		b.WriteString("\n")
	}
	return b.String()
}

// seriesMeans returns the means of points with data and their range.
func seriesMeans(series Series) (means []float64, lo, hi float64) {
	for _, p := range series.Points {
		if p.N == 0 {
			continue
		}
		if len(means) == 0 || p.Mean < lo {
			lo = p.Mean
		}
		if len(means) == 0 || p.Mean > hi {
			hi = p.Mean
		}
		means = append(means, p.Mean)
	}
	return means, lo, hi
}
