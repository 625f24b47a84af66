package document

import (
	"math"
	"strconv"
	"strings"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
)

// Scalar converts v to the type stored in col when the conversion loses
// nothing: numbers become decimal text in text columns, 0 and 1 become
// booleans in bool columns, and integral text becomes an integer in integer
// columns. Any other value is returned unchanged.
func Scalar(col schema.Column, v any) any {
	switch col.Kind {
	case schema.Text:
		if s, ok := numberText(v); ok {
			return s
		}
	case schema.Bool:
		if n, ok := integer(v); ok && (n == 0 || n == 1) {
			return n == 1
		}
	case schema.Integer:
		if s, ok := v.(string); ok {
			if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				return n
			}
		}
	}
	return v
}

// Default returns a fresh copy of the default value of col, or nil.
func Default(col schema.Column) any {
	switch d := col.Default.(type) {
	case []any:
		return append([]any{}, d...)
	case map[string]any:
		out := make(map[string]any, len(d))
		for k, v := range d {
			out[k] = v
		}
		return out
	}
	return col.Default
}

func numberText(v any) (string, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", false
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	}
	if n, ok := integer(v); ok {
		return strconv.FormatInt(n, 10), true
	}
	return "", false
}

func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n), true
		}
	}
	return 0, false
}
