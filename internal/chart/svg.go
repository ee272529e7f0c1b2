package chart

import (
	"fmt"
	"html"
	"strings"
)

const (
	svgBarWidth  = 48
	svgBarGap    = 24
	svgPlotH     = 240
	svgMarginTop = 24
	svgLabelH    = 96
	svgBarColor  = "#1f77b4"
)

// SVG renders a vertical bar chart as an inline <svg> element. Labels and
// the title are HTML-escaped; the result is safe to embed in a page as is.
func SVG(title string, bars []Bar) string {
	width := svgBarGap + len(bars)*(svgBarWidth+svgBarGap)
	height := svgMarginTop + svgPlotH + svgLabelH
	baseline := svgMarginTop + svgPlotH
	highest := maxCount(bars)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" class="chart" width="%d" height="%d" viewBox="0 0 %d %d" role="img">`,
		width, height, width, height)
	fmt.Fprintf(&b, `<title>%s</title>`, html.EscapeString(title))
	fmt.Fprintf(&b, `<line x1="0" y1="%d" x2="%d" y2="%d" stroke="#333"/>`, baseline, width, baseline)

	for i, bar := range bars {
		x := svgBarGap + i*(svgBarWidth+svgBarGap)
		h := scaled(bar.Count, highest, svgPlotH)
		y := baseline - h
		label := html.EscapeString(bar.Label)

		fmt.Fprintf(&b, `<g class="bar"><title>%s: %d</title>`, label, bar.Count)
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`, x, y, svgBarWidth, h, svgBarColor)
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle" font-size="12">%d</text>`, x+svgBarWidth/2, y-4, bar.Count)
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="end" font-size="10" transform="rotate(-35 %d %d)">%s</text>`,
			x+svgBarWidth/2, baseline+14, x+svgBarWidth/2, baseline+14, label)
		b.WriteString(`</g>`)
	}

	b.WriteString(`</svg>`)
	return b.String()
}
