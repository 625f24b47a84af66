package types

import (
	"context"
	"errors"
)

// Collection provides the document-collection contract for one logical
// entity. Every engine implements it identically; callers type nothing
// against a concrete backend.
type Collection interface {
	// Name returns the logical collection name.
	Name() string

	// InsertOne inserts a single document. Identity keys present in doc are
	// discarded; the engine assigns a new identity.
	InsertOne(ctx context.Context, doc Document) (InsertResult, error)

	// InsertMany inserts documents as one unit and returns the new
	// identities in insertion order. An empty input is a no-op.
	InsertMany(ctx context.Context, docs []Document) (InsertResult, error)

	// FindOne returns the first document matching filter, shaped by
	// projection (nil for all fields). Returns a nil Document and a nil
	// error when nothing matches.
	FindOne(ctx context.Context, filter Filter, projection Projection) (Document, error)

	// Find returns a lazy cursor over the documents matching filter.
	// Nothing is executed until the cursor is materialized.
	Find(filter Filter) Cursor

	// Get returns the document with the given identity.
	// Returns ErrInvalidID if id cannot address a row, ErrNotFound if no
	// document has that identity.
	Get(ctx context.Context, id any) (Document, error)

	// UpdateOne applies update to the first document matching filter.
	UpdateOne(ctx context.Context, filter Filter, update Update) (MutationResult, error)

	// UpdateMany applies the Set part of update to every matching document.
	// Push and Unset are not supported in bulk form and are ignored.
	UpdateMany(ctx context.Context, filter Filter, update Update) (MutationResult, error)

	// DeleteOne removes the first document matching filter.
	DeleteOne(ctx context.Context, filter Filter) (DeletionResult, error)

	// DeleteMany removes every document matching filter.
	DeleteMany(ctx context.Context, filter Filter) (DeletionResult, error)

	// CountDocuments returns the number of documents matching filter.
	CountDocuments(ctx context.Context, filter Filter) (int64, error)

	// Distinct returns the distinct non-null values of field.
	Distinct(ctx context.Context, field string) ([]any, error)

	// CreateIndex declares an index over keys. Engines whose indexes are
	// fixed by schema treat it as a no-op.
	CreateIndex(ctx context.Context, keys []SortKey, unique bool) error
}

// Collection operation errors.
var (
	// ErrDuplicateKey reports a unique constraint violation (short code,
	// username, category name).
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInvalidID reports an identity that cannot address a document.
	ErrInvalidID = errors.New("invalid identifier")
	// ErrNotFound is returned by keyed accessors when nothing matches.
	ErrNotFound = errors.New("document not found")
	// ErrUnknownField reports a field name the collection does not have.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue reports a value that cannot be stored in its field.
	ErrInvalidValue = errors.New("invalid field value")
	// ErrInvalidFilter reports a filter expression that cannot be parsed.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidUpdate reports an update expression that cannot be parsed.
	ErrInvalidUpdate = errors.New("invalid update")
)
