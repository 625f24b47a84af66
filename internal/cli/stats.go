package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/protocol"
)

// defaultOverdueDays is the age in calendar days past which a record still
// in progress counts as overdue.
const defaultOverdueDays = 42

func newStatsCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print record counts by status, overall and per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return userError(fmt.Errorf("--overdue-days must not be negative, got %d", days))
			}
			ctx := cmd.Context()
			svc, _, closeFn, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			today := time.Now().UTC().Truncate(24 * time.Hour)
			st, err := svc.Stats(ctx, today.AddDate(0, 0, -days))
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), a.flags.jsonMode, st)
		},
	}
	cmd.Flags().IntVar(&days, "overdue-days", defaultOverdueDays, "age in days after which an in-progress record is overdue")
	return cmd
}

func printStats(w io.Writer, jsonMode bool, st protocol.Stats) error {
	if jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCREATED\tOPEN\tCOMPLETED\tOVERDUE\tPENDING\tIN PROGRESS\tREQUIREMENT")
	row := func(name string, t protocol.Tally) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n", name,
			t.Created, t.Open, t.Completed, t.Overdue, t.Pending, t.InProgress, t.Requirements)
	}
	for _, name := range slices.Sorted(maps.Keys(st.ByCategory)) {
		row(name, st.ByCategory[name])
	}
	row("TOTAL", st.Total)
	return tw.Flush()
}

func newBackfillDatesCmd(a *app) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "backfill-dates",
		Short: "Fill missing timestamp fields of records from their display dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if as == "" {
				as = a.cfg.AdminUser
			}
			svc, _, closeFn, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svc.BackfillDates(ctx, as)
			if errors.Is(err, protocol.ErrForbidden) {
				return userError(fmt.Errorf("user %q: %w", as, err))
			}
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backfilled %d dates, %d unparseable\n", res.Updated, res.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "administrator running the backfill (default: configured admin user)")
	return cmd
}
