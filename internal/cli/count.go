package cli

import (
	"github.com/spf13/cobra"
)

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of documents per collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer db.Detach(ctx)

			counts, err := countAll(ctx, db)
			if err != nil {
				return err
			}
			return printCounts(cmd.OutOrStdout(), a.flags.jsonMode, counts)
		},
	}
}
