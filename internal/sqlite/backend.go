// Package sqlite implements the document collection contract on SQLite.
// Every logical collection is a fixed-column table declared in
// internal/schema; filters, updates and cursors are translated to SQL and
// rows are shaped back into documents.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// MemoryTarget opens a private in-memory database.
const MemoryTarget = ":memory:"

// Backend implements types.Database on a single SQLite file.
type Backend struct {
	mu          sync.RWMutex
	attached    bool
	config      types.Config
	db          *sql.DB
	log         zerolog.Logger
	now         document.Clock
	collections map[string]*collection
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for schema setup and date coercion
// warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) { b.log = l.With().Str("component", "sqlite").Logger() }
}

// WithClock sets the clock used for required timestamp fallbacks.
func WithClock(c document.Clock) Option {
	return func(b *Backend) { b.now = c }
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		log:         zerolog.Nop(),
		collections: make(map[string]*collection),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ types.Database = (*Backend)(nil)

// Engine returns types.EngineSQLite.
func (b *Backend) Engine() string { return types.EngineSQLite }

// Attach opens the database file named by config.Target, creating its
// directory when needed, and runs Setup. The file is never truncated.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Engine != types.EngineSQLite {
		return fmt.Errorf("%w: %s backend cannot serve %s", types.ErrEngineUnknown, types.EngineSQLite, config.Engine)
	}

	if config.Target != MemoryTarget {
		if err := os.MkdirAll(filepath.Dir(config.Target), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(config.Target))
	if err != nil {
		return fmt.Errorf("opening %s: %w", config.Target, err)
	}
	// All statements share one connection; nothing may use b.db while a
	// transaction is open.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("connecting to %s: %w", config.Target, err)
	}

	if err := createSchema(ctx, db, b.log); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.attached = true
	for _, t := range schema.All() {
		b.collections[t.Name] = newCollection(b, t)
	}
	b.log.Debug().Str("target", config.Target).Msg("attached")
	return nil
}

func dsn(target string) string {
	if target == MemoryTarget {
		return target
	}
	return "file:" + target + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Setup creates missing tables and indexes. It is idempotent.
func (b *Backend) Setup(ctx context.Context) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	return createSchema(ctx, db, b.log)
}

// Collection returns the facade for the named collection.
// Returns ErrDetached if the backend is not attached, ErrCollectionNotFound
// if the name is not a standard collection.
func (b *Backend) Collection(name string) (types.Collection, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	c, ok := b.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrCollectionNotFound, name)
	}
	return c, nil
}

// Detach closes the connection. Detach is idempotent.
func (b *Backend) Detach(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	b.db = nil
	b.attached = false
	b.collections = make(map[string]*collection)
	return nil
}

// conn returns the open handle or ErrDetached.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.db, nil
}
