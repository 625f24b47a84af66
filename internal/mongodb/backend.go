// Package mongodb implements the document collection contract on a MongoDB
// server through the official driver. Field names, identity handling and
// date coercion match the SQLite backend so callers cannot tell the engines
// apart.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Backend implements types.Database on one MongoDB database.
type Backend struct {
	mu          sync.RWMutex
	attached    bool
	config      types.Config
	client      *mongo.Client
	db          *mongo.Database
	log         zerolog.Logger
	now         document.Clock
	collections map[string]*collection
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for index setup and date coercion
// warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) { b.log = l.With().Str("component", "mongodb").Logger() }
}

// WithClock sets the clock used for required timestamp fallbacks.
func WithClock(c document.Clock) Option {
	return func(b *Backend) { b.now = c }
}

// NewBackend creates a detached backend.
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

// Engine returns types.EngineMongoDB.
func (b *Backend) Engine() string { return types.EngineMongoDB }

// Attach connects to config.Target, verifies the server answers and creates
// missing indexes on config.Database.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Engine != types.EngineMongoDB {
		return fmt.Errorf("%w: %s backend cannot serve %s", types.ErrEngineUnknown, types.EngineMongoDB, config.Engine)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.Target))
	if err != nil {
		return fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("pinging mongodb: %w", err)
	}
	db := client.Database(config.Database)
	if err := createIndexes(ctx, db, b.log); err != nil {
		_ = client.Disconnect(ctx)
		return err
	}

	b.client = client
	b.db = db
	b.config = config
	b.attached = true
	for _, t := range schema.All() {
		b.collections[t.Name] = newCollection(b, t, db.Collection(t.Name))
	}
	b.log.Debug().Str("database", config.Database).Msg("attached")
	return nil
}

// Setup creates missing indexes. It is idempotent.
func (b *Backend) Setup(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrDetached
	}
	return createIndexes(ctx, b.db, b.log)
}

// Collection returns the facade for the named collection.
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

// Detach disconnects the client. Detach is idempotent.
func (b *Backend) Detach(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting mongodb: %w", err)
	}
	b.client = nil
	b.db = nil
	b.attached = false
	b.collections = make(map[string]*collection)
	return nil
}

// Drop removes the whole database. Tests use it for cleanup.
func (b *Backend) Drop(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrDetached
	}
	return b.db.Drop(ctx)
}

func (b *Backend) isAttached() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.attached
}

// mapError translates driver failures into package errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", types.ErrDuplicateKey, err)
	}
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %v", types.ErrDetached, err)
	}
	return err
}
