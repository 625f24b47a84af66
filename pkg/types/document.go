package types

// Document is a field-name-to-value mapping. Values are nil, string, bool,
// int64, float64, time.Time, []any or map[string]any.
type Document map[string]any

// Identity keys. Every document returned by a Collection carries the engine
// identity under IdentityKey (raw: int64 on SQLite, ObjectID on MongoDB) and
// its string form under IDKey.
const (
	IdentityKey = "_id"
	IDKey       = "id"
)

// IsIdentity reports whether field names the document identity.
func IsIdentity(field string) bool {
	return field == IdentityKey || field == IDKey
}

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// String returns the value of field as a string, or "" when the field is
// absent or not a string.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Bool returns the value of field as a bool, or false when absent.
func (d Document) Bool(field string) bool {
	b, _ := d[field].(bool)
	return b
}
