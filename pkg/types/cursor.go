package types

import "context"

// SortDirection orders a sort key.
type SortDirection int

// Sort directions, numerically equal to the Mongo convention.
const (
	Ascending  SortDirection = 1
	Descending SortDirection = -1
)

// SortKey is one field of a sort order.
type SortKey struct {
	Field     string
	Direction SortDirection
}

// Asc sorts field in ascending order.
func Asc(field string) SortKey { return SortKey{Field: field, Direction: Ascending} }

// Desc sorts field in descending order.
func Desc(field string) SortKey { return SortKey{Field: field, Direction: Descending} }

// Projection selects the fields of returned documents. A value of 1 includes
// a field and 0 excludes it. When any field other than the identity is
// included, only included fields (and the identity unless "_id" is 0) are
// returned; otherwise every field except the excluded ones is returned.
type Projection map[string]int

// Cursor is a lazy query. Sort, Skip, Limit and Project may be chained in any
// order before All; the query runs once, on the first All, and its result is
// cached. Chaining after materialization has no effect.
type Cursor interface {
	// Sort replaces the sort keys. The default order is by
	// identity, ascending.
	Sort(keys ...SortKey) Cursor
	// Skip discards the first n matching documents.
	Skip(n int64) Cursor
	// Limit caps the number of returned documents. Zero means no limit.
	Limit(n int64) Cursor
	// Project shapes the returned documents.
	Project(p Projection) Cursor
	// All runs the query and returns every document.
	All(ctx context.Context) ([]Document, error)
}
