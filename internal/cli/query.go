package cmd

import (
	"fmt"

	"github.com/rohmanhakim/spotcrime/internal/scheduler"
	"github.com/spf13/cobra"
)

var (
	queryState    string
	queryCity     string
	queryInfoType string
	queryAmount   int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run one lookup non-interactively",
	Example: `  spotcrime query --state michigan --city "ann arbor" --info-type "daily crime reports" --amount 2
  spotcrime query --state michigan --city "ann arbor" --info-type "crime map"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		outcome, err := withSpinner(out, "fetching reports", func() (scheduler.QueryOutcome, error) {
			return a.scheduler.ExecuteQuery(cmd.Context(), scheduler.Query{
				State:    queryState,
				City:     queryCity,
				InfoType: queryInfoType,
				Amount:   queryAmount,
			})
		})
		if err != nil {
			return err
		}

		if outcome.Kind == scheduler.OutcomeOpenURL {
			fmt.Fprintln(out, outcome.URL)
			return nil
		}

		report := outcome.Report
		printPeriods(out, report)
		for _, period := range report.Periods {
			printRecords(out, period.Label, period.Records)
		}
		printChart(out, report)
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryState, "state", "", "state name, e.g. michigan")
	queryCmd.Flags().StringVar(&queryCity, "city", "", "city name, e.g. \"ann arbor\"")
	queryCmd.Flags().StringVar(&queryInfoType, "info-type", string(scheduler.InfoDailyCrimeReports), "crime map, most wanted or daily crime reports")
	queryCmd.Flags().IntVar(&queryAmount, "amount", 1, "number of reporting periods (daily crime reports only)")
	_ = queryCmd.MarkFlagRequired("state")
	_ = queryCmd.MarkFlagRequired("city")
}

func SetQueryForTest(state, city, infoType string, amount int) {
	queryState = state
	queryCity = city
	queryInfoType = infoType
	queryAmount = amount
}
