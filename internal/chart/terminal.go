package chart

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultBarWidth = 40

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	countStyle = lipgloss.NewStyle().Bold(true)
)

// Terminal renders a horizontal bar chart, one row per bar, with labels
// right-aligned in a shared column. width is the length of the longest bar.
func Terminal(title string, bars []Bar, width int) string {
	if width <= 0 {
		width = defaultBarWidth
	}

	labelWidth := 0
	for _, bar := range bars {
		labelWidth = max(labelWidth, lipgloss.Width(bar.Label))
	}
	highest := maxCount(bars)

	var b strings.Builder
	if title != "" {
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n")
	}
	if len(bars) == 0 {
		b.WriteString(labelStyle.Render("no data"))
		b.WriteString("\n")
		return b.String()
	}

	for _, bar := range bars {
		label := labelStyle.Width(labelWidth).Align(lipgloss.Right).Render(bar.Label)
		fill := barStyle.Render(strings.Repeat("█", scaled(bar.Count, highest, width)))
		fmt.Fprintf(&b, "%s │ %s %s\n", label, fill, countStyle.Render(fmt.Sprint(bar.Count)))
	}
	return b.String()
}
