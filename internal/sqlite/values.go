package sqlite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// timeLayout stores timestamps as fixed-width UTC text so that lexical order
// equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// encode converts a document value into the SQL value stored in col.
func encode(col schema.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.Kind {
	case schema.Text:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case schema.Integer:
		if n, ok := toInt64(v); ok {
			return n, nil
		}
	case schema.Bool:
		if b, ok := v.(bool); ok {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
	case schema.Timestamp:
		switch t := v.(type) {
		case time.Time:
			return t.UTC().Format(timeLayout), nil
		case string:
			if strings.TrimSpace(t) == "" {
				return nil, nil
			}
			if parsed, ok := document.ParseTimestamp(t); ok {
				return parsed.Format(timeLayout), nil
			}
		}
	case schema.JSON:
		b, err := json.Marshal(tagTimes(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidValue, col.Name, err)
		}
		return string(b), nil
	}
	return nil, fmt.Errorf("%w: %s expects %s, got %T", types.ErrInvalidValue, col.Name, col.Kind, v)
}

// decode converts a scanned SQL value back into a document value.
func decode(col schema.Column, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	switch col.Kind {
	case schema.Text:
		return raw, nil
	case schema.Integer:
		return raw, nil
	case schema.Bool:
		n, _ := toInt64(raw)
		return n != 0, nil
	case schema.Timestamp:
		s, ok := raw.(string)
		if !ok {
			return raw, nil
		}
		t, err := time.Parse(timeLayout, s)
		if err != nil {
			if parsed, ok := document.ParseTimestamp(s); ok {
				return parsed, nil
			}
			return nil, fmt.Errorf("decoding %s: %w", col.Name, err)
		}
		return t.UTC(), nil
	case schema.JSON:
		s, ok := raw.(string)
		if !ok {
			return raw, nil
		}
		return decodeJSON(s)
	}
	return raw, nil
}

// dateTag wraps a time nested in a JSON column, in the form Mongo Extended
// JSON uses, so that it decodes back into a time.Time.
const dateTag = "$date"

// tagTimes returns a copy of v with every nested time.Time replaced by a
// {"$date": RFC 3339} map.
func tagTimes(v any) any {
	switch t := v.(type) {
	case time.Time:
		return map[string]any{dateTag: t.UTC().Format(time.RFC3339Nano)}
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = tagTimes(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = tagTimes(e)
		}
		return out
	case types.Document:
		return tagTimes(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = tagTimes(e)
		}
		return out
	}
	return v
}

// decodeJSON unmarshals s keeping integral numbers as int64 and restoring
// tagged times.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding json column: %w", err)
	}
	return numbers(v), nil
}

func numbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = numbers(t[i])
		}
	case map[string]any:
		if s, ok := t[dateTag].(string); ok && len(t) == 1 {
			if tm, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return tm.UTC()
			}
		}
		for k := range t {
			t[k] = numbers(t[k])
		}
	}
	return v
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	}
	return 0, false
}

// rowID converts a caller-supplied identity into a primary key value.
func rowID(v any) (int64, error) {
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, t)
		}
		return n, nil
	default:
		if n, ok := toInt64(v); ok {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %v (%T)", types.ErrInvalidID, v, v)
}
