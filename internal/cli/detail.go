package cmd

import (
	"github.com/spf13/cobra"
)

var detailCmd = &cobra.Command{
	Use:   "detail <record-url>",
	Short: "Print the detail page of a crime record as Markdown",
	Args:  cobra.ExactArgs(1),
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

		content, err := a.scheduler.ReadDetail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(content)
		return err
	},
}
