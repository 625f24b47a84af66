package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Normalize converts driver-decoded values into plain document values:
// dates become UTC time.Time, arrays []any, embedded documents
// map[string]any and 32-bit integers int64.
func Normalize(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.A:
		return normalizeList(t)
	case []any:
		return normalizeList(t)
	case primitive.M:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = Normalize(e.Value)
		}
		return m
	case int32:
		return int64(t)
	case int:
		return int64(t)
	}
	return v
}

func normalizeList(in []any) []any {
	out := make([]any, len(in))
	for i, e := range in {
		out[i] = Normalize(e)
	}
	return out
}

func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, e := range in {
		out[k] = Normalize(e)
	}
	return out
}

// toDocument shapes a decoded server document: values are normalized and
// the identity is exposed under both identity keys.
func toDocument(raw bson.M) types.Document {
	d := make(types.Document, len(raw)+1)
	for k, v := range raw {
		d[k] = Normalize(v)
	}
	if id, ok := raw[types.IdentityKey]; ok {
		document.WithIdentity(d, id)
	}
	return d
}
