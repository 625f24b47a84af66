package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the database",
		Long: "Write protocolos.yaml if missing, create tables and indexes that do not exist,\n" +
			"create the default administrator when there are no users, and print\n" +
			"the number of documents per collection.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, err := config.WriteDefault(a.configDir, a.cfg)
			if err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			a.log.Debug().Str("path", path).Msg("configuration file")

			svc, db, closeFn, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			password := a.cfg.AdminPassword
			if password == "" {
				n, err := countUsers(ctx, db)
				if err != nil {
					return err
				}
				if n == 0 {
					password, err = promptPassword(cmd, fmt.Sprintf("Password for administrator %q: ", a.cfg.AdminUser))
					if err != nil {
						return userError(err)
					}
				}
			}
			if password != "" {
				created, err := svc.EnsureAdmin(ctx, a.cfg.AdminUser, password)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "Administrator %q created\n", a.cfg.AdminUser)
				}
			}

			counts, err := countAll(ctx, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database initialized (%s)\n", db.Engine())
			return printCounts(cmd.OutOrStdout(), a.flags.jsonMode, counts)
		},
	}
}
