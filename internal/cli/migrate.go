package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/backup"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/store"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

func newMigrateCmd(a *app) *cobra.Command {
	var (
		to      types.Config
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy every collection from the configured database to another engine",
		Example: "  protocolos --engine mongodb migrate --to-engine sqlite --to-target protocolos.db\n" +
			"  protocolos migrate --to-engine mongodb --to-target mongodb://localhost:27017/ --to-database protocolos_db",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := to.Validate(); err != nil {
				return userError(fmt.Errorf("destination: %w", err))
			}
			src, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer src.Detach(ctx)

			dst, err := store.Open(ctx, to, store.WithLogger(a.log))
			if err != nil {
				return err
			}
			defer dst.Detach(ctx)

			res, err := backup.Copy(ctx, src, dst, a.backupOptions(replace))
			if err != nil {
				return err
			}
			if err := printCounts(cmd.OutOrStdout(), a.flags.jsonMode, res.Copied); err != nil {
				return err
			}
			var failed int64
			for _, n := range res.Failed {
				failed += n
			}
			if failed > 0 {
				return &exitError{code: exitSysError, err: fmt.Errorf("%d documents were not copied, see log", failed)}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&to.Engine, "to-engine", "", "destination engine: sqlite or mongodb")
	f.StringVar(&to.Target, "to-target", "", "destination SQLite file or MongoDB URI")
	f.StringVar(&to.Database, "to-database", "", "destination MongoDB database")
	f.BoolVar(&replace, "replace", false, "empty each destination collection first")
	return cmd
}
