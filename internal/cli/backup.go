package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/backup"
)

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and restore backups",
	}
	cmd.AddCommand(newBackupExportCmd(a), newBackupImportCmd(a), newBackupImportLegacyCmd(a))
	return cmd
}

func (a *app) backupOptions(replace bool) backup.Options {
	return backup.Options{Replace: replace, Database: a.cfg.Database, Log: a.log}
}

func newBackupExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every collection to a backup directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer db.Detach(ctx)

			m, err := backup.Export(ctx, db, args[0], a.backupOptions(false))
			if err != nil {
				return err
			}
			counts := make(map[string]int64, len(m.Collections))
			for _, e := range m.Collections {
				counts[e.Name] = e.Count
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup %s written to %s\n", m.ID, args[0])
			return printCounts(cmd.OutOrStdout(), a.flags.jsonMode, counts)
		},
	}
}

func newBackupImportCmd(a *app) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Load a backup directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer db.Detach(ctx)

			stats, err := backup.Import(ctx, db, args[0], a.backupOptions(replace))
			if err != nil {
				return err
			}
			return printCounts(cmd.OutOrStdout(), a.flags.jsonMode, stats)
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "empty each collection before loading it")
	return cmd
}

func newBackupImportLegacyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy <file>",
		Short: "Restore a legacy single-file JSON backup, replacing the collections it contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return userError(err)
			}
			defer f.Close()

			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer db.Detach(ctx)

			stats, err := backup.ImportLegacy(ctx, db, f, a.backupOptions(true))
			if err != nil {
				return err
			}
			return printCounts(cmd.OutOrStdout(), a.flags.jsonMode, stats)
		},
	}
}
