package chart

// Bar is one labelled count of a bar chart.
type Bar struct {
	Label string
	Count int
}

// Bars pairs labels with counts. Extra entries on either side are dropped.
func Bars(labels []string, counts []int) []Bar {
	n := min(len(labels), len(counts))
	bars := make([]Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = Bar{Label: labels[i], Count: counts[i]}
	}
	return bars
}

func maxCount(bars []Bar) int {
	highest := 0
	for _, bar := range bars {
		highest = max(highest, bar.Count)
	}
	return highest
}

// scaled maps count onto 0..size relative to highest. Non-zero counts
// always get at least one unit so they stay visible.
func scaled(count, highest, size int) int {
	if highest <= 0 || count <= 0 {
		return 0
	}
	units := count * size / highest
	if units == 0 {
		return 1
	}
	return units
}
