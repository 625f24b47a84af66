package types

// InsertResult reports the identities assigned by an insert, in insertion
// order.
type InsertResult struct {
	IDs []any
}

// InsertedID returns the first assigned identity, or nil when nothing was
// inserted.
func (r InsertResult) InsertedID() any {
	if len(r.IDs) == 0 {
		return nil
	}
	return r.IDs[0]
}

// MutationResult reports how many documents an update matched and modified.
type MutationResult struct {
	Matched  int64
	Modified int64
}

// DeletionResult reports how many documents a delete removed.
type DeletionResult struct {
	Count int64
}
