package types

import (
	"context"
	"errors"
)

// Database is the engine-agnostic entry point. Callers attach to an engine,
// obtain collections by name and detach when done.
type Database interface {
	// Attach connects to the engine described by config and creates the
	// schema if it is absent. Returns ErrAlreadyAttached if called while
	// already attached.
	Attach(ctx context.Context, config Config) error

	// Setup creates tables and indexes that do not exist yet. It is safe to
	// call on every process start.
	Setup(ctx context.Context) error

	// Collection returns the facade for the named logical collection.
	// Returns ErrCollectionNotFound if the name is not a standard collection.
	Collection(name string) (Collection, error)

	// Engine reports the name of the active engine.
	Engine() string

	// Detach releases engine resources. Idempotent: multiple calls succeed.
	// After Detach, Collection returns ErrDetached.
	Detach(ctx context.Context) error
}

// Database lifecycle errors.
var (
	ErrDetached           = errors.New("database is detached")
	ErrAlreadyAttached    = errors.New("database is already attached")
	ErrCollectionNotFound = errors.New("collection not found")
)
