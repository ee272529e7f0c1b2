package chart_test

import (
	"strings"
	"testing"

	"github.com/rohmanhakim/spotcrime/internal/chart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBars_PairsParallelSequences(t *testing.T) {
	bars := chart.Bars([]string{"a", "b", "c"}, []int{1, 2})

	assert.Equal(t, []chart.Bar{{Label: "a", Count: 1}, {Label: "b", Count: 2}}, bars)
	assert.Empty(t, chart.Bars(nil, nil))
}

func TestTerminal_ScalesToLongestBar(t *testing.T) {
	bars := []chart.Bar{
		{Label: "Tuesday", Count: 2},
		{Label: "Monday", Count: 4},
		{Label: "Sunday", Count: 0},
	}

	out := chart.Terminal("Crimes per period", bars, 8)

	assert.Contains(t, out, "Crimes per period")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 3)

	rows := lines[len(lines)-3:]
	assert.Equal(t, 4, strings.Count(rows[0], "█"))
	assert.Equal(t, 8, strings.Count(rows[1], "█"))
	assert.Equal(t, 0, strings.Count(rows[2], "█"))
	assert.True(t, strings.HasSuffix(rows[1], "4"))
}

func TestTerminal_SmallCountStaysVisible(t *testing.T) {
	out := chart.Terminal("", []chart.Bar{{Label: "x", Count: 1}, {Label: "y", Count: 1000}}, 10)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 1, strings.Count(lines[0], "█"))
}

func TestTerminal_Empty(t *testing.T) {
	assert.Contains(t, chart.Terminal("title", nil, 0), "no data")
}

func TestSVG(t *testing.T) {
	svg := chart.SVG("Ann Arbor", []chart.Bar{
		{Label: "April 14", Count: 2},
		{Label: "<script>", Count: 3},
	})

	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Equal(t, 2, strings.Count(svg, "<rect"))
	assert.Contains(t, svg, `height="240"`, "the highest bar fills the plot")
	assert.Contains(t, svg, "&lt;script&gt;")
	assert.NotContains(t, svg, "<script>")
}
