// Package cli implements the protocolos command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/config"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/logging"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/paths"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/protocol"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/store"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }

// rootFlags holds global flag values.
type rootFlags struct {
	configDir  string
	engine     string
	sqlitePath string
	logLevel   string
	jsonMode   bool
}

// app is the state shared by subcommands once configuration is loaded.
type app struct {
	flags     rootFlags
	configDir string
	cfg       *config.Config
	log       zerolog.Logger
}

// NewRootCmd creates the top-level "protocolos" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:   "protocolos",
		Short: "Protocol record store administration",
		Long: "protocolos manages the protocol record database on SQLite or MongoDB:\n" +
			"schema setup, users, backups and engine migration.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.engine, "engine", "", "storage engine: sqlite or mongodb (overrides config)")
	pf.StringVar(&a.flags.sqlitePath, "sqlite-path", "", "SQLite database file (overrides config)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (overrides config)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newUserCmd(a),
		newCountCmd(a),
		newStatsCmd(a),
		newBackfillDatesCmd(a),
		newBackupCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return exitSysError
	}
	return exitSuccess
}

// load resolves the configuration directory, reads the configuration and
// builds the logger. Flags override configured values.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolving config directory: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return userError(err)
	}
	if a.flags.engine != "" {
		cfg.Engine = a.flags.engine
	}
	if a.flags.sqlitePath != "" {
		cfg.SQLitePath = a.flags.sqlitePath
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return userError(err)
	}
	a.configDir, a.cfg, a.log = dir, cfg, log
	return nil
}

// open attaches the configured database.
func (a *app) open(ctx context.Context) (types.Database, error) {
	sc, err := a.cfg.Store()
	if err != nil {
		return nil, userError(err)
	}
	db, err := store.Open(ctx, sc, store.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	return db, nil
}

// service opens the database and binds the record service to it. The
// returned close function detaches the database.
func (a *app) service(ctx context.Context) (*protocol.Service, types.Database, func(), error) {
	db, err := a.open(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := db.Detach(ctx); err != nil {
			a.log.Error().Err(err).Msg("detach failed")
		}
	}
	s, err := protocol.New(db, protocol.WithLogger(a.log))
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return s, db, closeFn, nil
}
