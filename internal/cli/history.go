package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const defaultHistoryLimit = 10

var historyLimit = defaultHistoryLimit

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent daily crime report queries",
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

		queries, qerr := a.db.RecentQueries(cmd.Context(), historyLimit)
		if qerr != nil {
			return qerr
		}
		if len(queries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No queries yet.")
			return nil
		}

		counts := make([]int, len(queries))
		for i, query := range queries {
			count, cerr := a.db.CountRecords(cmd.Context(), query.ID)
			if cerr != nil {
				return cerr
			}
			counts[i] = count
		}
		printHistory(cmd.OutOrStdout(), queries, counts)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", defaultHistoryLimit, "number of queries to list")
}
