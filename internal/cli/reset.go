package cmd

import (
	"context"
	"fmt"

	"github.com/rohmanhakim/spotcrime/pkg/failure"
	"github.com/spf13/cobra"
)

var resetCache bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Recreate the database tables",
	Long: `reset drops and recreates every table of the database. With --cache the
page cache is emptied as well, so the next lookup fetches everything again.`,
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

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		steps := []func(context.Context) failure.ClassifiedError{
			a.db.RecreateStates,
			a.db.RecreateQueries,
			a.db.RecreateCrimeLabels,
			a.db.RecreateCrimeRecords,
		}
		for _, recreate := range steps {
			if err := recreate(ctx); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "Recreated tables in %s\n", a.db.Path())

		if resetCache {
			a.cache.Clear()
			if err := a.cache.Save(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Cleared cache %s\n", a.cache.Path())
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetCache, "cache", false, "also clear the page cache")
}

func SetResetCacheForTest(clear bool) {
	resetCache = clear
}
