package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rohmanhakim/spotcrime/internal/chart"
	"github.com/rohmanhakim/spotcrime/internal/extractor"
	"github.com/rohmanhakim/spotcrime/internal/scheduler"
	"github.com/rohmanhakim/spotcrime/internal/storage"
)

const chartWidth = 40

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func printPeriods(out io.Writer, report *scheduler.Report) {
	t := newTable(out)
	t.SetTitle(fmt.Sprintf("%s, %s", report.City, report.State))
	t.AppendHeader(table.Row{"#", "Period", "Records"})
	for i, period := range report.Periods {
		t.AppendRow(table.Row{i + 1, period.Label, len(period.Records)})
	}
	t.AppendFooter(table.Row{"", "Total", report.TotalRecords()})
	t.Render()
}

func printRecords(out io.Writer, title string, records []extractor.CrimeRecord) {
	t := newTable(out)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Type", "Date", "Address", "Link"})
	for _, record := range records {
		t.AppendRow(table.Row{record.Category, record.Date, record.Address, record.Link})
	}
	t.Render()
}

func printChart(out io.Writer, report *scheduler.Report) {
	fmt.Fprintln(out, chart.Terminal(
		"Crimes per period",
		chart.Bars(report.Chart.Labels, report.Chart.Counts),
		chartWidth,
	))
}

func printHistory(out io.Writer, queries []storage.Query, counts []int) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Query", "When", "State", "City", "Days", "Records"})
	for i, query := range queries {
		t.AppendRow(table.Row{
			query.ID,
			query.CreatedAt.Local().Format(time.DateTime),
			query.State,
			query.City,
			query.Amount,
			counts[i],
		})
	}
	t.Render()
}

// withSpinner shows a spinner on out while fn runs. The spinner stays
// silent when out is not a terminal.
func withSpinner[T any](out io.Writer, suffix string, fn func() (T, error)) (T, error) {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " " + suffix
	s.Start()
	defer s.Stop()
	return fn()
}
