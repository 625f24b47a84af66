// Package store is the public entry point for opening a protocolos database.
// The engine is chosen once from the configuration; callers only see
// types.Database and types.Collection afterwards.
package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/mongodb"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/sqlite"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Option configures the backend built by New or Open.
type Option func(*options)

type options struct {
	log   zerolog.Logger
	clock document.Clock
}

// WithLogger sets the logger handed to the backend.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock overrides the clock used for required date fallbacks.
func WithClock(c document.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New returns an unattached backend for engine.
//
// Example:
//
//	db, err := store.New(types.EngineSQLite)
//	err = db.Attach(ctx, types.Config{Engine: types.EngineSQLite, Target: "protocolos.db"})
//	defer db.Detach(ctx)
func New(engine string, opts ...Option) (types.Database, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	switch engine {
	case types.EngineSQLite:
		sopts := []sqlite.Option{sqlite.WithLogger(o.log)}
		if o.clock != nil {
			sopts = append(sopts, sqlite.WithClock(o.clock))
		}
		return sqlite.NewBackend(sopts...), nil
	case types.EngineMongoDB:
		mopts := []mongodb.Option{mongodb.WithLogger(o.log)}
		if o.clock != nil {
			mopts = append(mopts, mongodb.WithClock(o.clock))
		}
		return mongodb.NewBackend(mopts...), nil
	case "":
		return nil, types.ErrEngineEmpty
	}
	return nil, fmt.Errorf("%w: %q", types.ErrEngineUnknown, engine)
}

// Open validates cfg, builds the matching backend and attaches it. The
// schema is created if absent.
func Open(ctx context.Context, cfg types.Config, opts ...Option) (types.Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	db, err := New(cfg.Engine, opts...)
	if err != nil {
		return nil, err
	}
	if err := db.Attach(ctx, cfg); err != nil {
		return nil, fmt.Errorf("attach %s: %w", cfg.Engine, err)
	}
	return db, nil
}
