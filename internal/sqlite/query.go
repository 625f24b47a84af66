package sqlite

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

func init() {
	// casefold(x) folds x with full Unicode case folding so that
	// case-insensitive matches work beyond ASCII.
	sqlite.MustRegisterDeterministicScalarFunction("casefold", 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case nil:
				return nil, nil
			case string:
				return cases.Fold().String(v), nil
			case []byte:
				return cases.Fold().String(string(v)), nil
			default:
				return cases.Fold().String(fmt.Sprint(v)), nil
			}
		})
}

// whereClause translates f into a SQL condition and its arguments. An empty
// filter yields "1 = 1".
func whereClause(t *schema.Table, f types.Filter) (string, []any, error) {
	if len(f) == 0 {
		return "1 = 1", nil, nil
	}
	parts := make([]string, 0, len(f))
	var args []any
	for _, p := range f {
		cond, a, err := predicate(t, p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, cond)
		args = append(args, a...)
	}
	return strings.Join(parts, " AND "), args, nil
}

func predicate(t *schema.Table, p types.Predicate) (string, []any, error) {
	col, name, err := resolve(t, p.Field)
	if err != nil {
		return "", nil, err
	}

	switch p.Op {
	case types.OpEq:
		if p.Value == nil {
			return name + " IS NULL", nil, nil
		}
		v, err := operand(col, p.Value)
		if err != nil {
			return "", nil, err
		}
		return name + " = ?", []any{v}, nil
	case types.OpNe:
		if p.Value == nil {
			return name + " IS NOT NULL", nil, nil
		}
		v, err := operand(col, p.Value)
		if err != nil {
			return "", nil, err
		}
		return "(" + name + " IS NULL OR " + name + " != ?)", []any{v}, nil
	case types.OpLike:
		s, ok := p.Value.(string)
		if !ok {
			return "", nil, fmt.Errorf("%w: like on %s needs a string", types.ErrInvalidFilter, p.Field)
		}
		if p.Fold {
			return "instr(casefold(" + name + "), casefold(?)) > 0", []any{s}, nil
		}
		return "instr(" + name + ", ?) > 0", []any{s}, nil
	case types.OpGte, types.OpLte, types.OpGt, types.OpLt:
		v, err := operand(col, p.Value)
		if err != nil {
			return "", nil, err
		}
		return name + " " + comparators[p.Op] + " ?", []any{v}, nil
	case types.OpIn:
		if len(p.Values) == 0 {
			return "0 = 1", nil, nil
		}
		marks := make([]string, 0, len(p.Values))
		args := make([]any, 0, len(p.Values))
		for _, raw := range p.Values {
			v, err := operand(col, raw)
			if err != nil {
				return "", nil, err
			}
			marks = append(marks, "?")
			args = append(args, v)
		}
		return name + " IN (" + strings.Join(marks, ", ") + ")", args, nil
	}
	return "", nil, fmt.Errorf("%w: operator %q", types.ErrInvalidFilter, p.Op)
}

var comparators = map[types.Op]string{
	types.OpGte: ">=",
	types.OpLte: "<=",
	types.OpGt:  ">",
	types.OpLt:  "<",
}

// identityColumn stands in for the primary key in operand encoding.
var identityColumn = schema.Column{Name: pkColumn, Kind: schema.Integer}

// resolve maps a document field to its column and quoted SQL name. Both
// identity keys resolve to the primary key.
func resolve(t *schema.Table, field string) (schema.Column, string, error) {
	if types.IsIdentity(field) {
		return identityColumn, pkColumn, nil
	}
	col, ok := t.Column(field)
	if !ok {
		return schema.Column{}, "", fmt.Errorf("%w: %s.%s", types.ErrUnknownField, t.Name, field)
	}
	return col, quote(col.Name), nil
}

// operand encodes a filter value for comparison against col, converting it
// the way inserts do.
func operand(col schema.Column, v any) (any, error) {
	if col.Name == pkColumn && col.Kind == identityColumn.Kind {
		return rowID(v)
	}
	return encode(col, document.Scalar(col, v))
}

// orderBy renders the sort keys. Ties, and the default order, fall
// back to the primary key ascending.
func orderBy(t *schema.Table, keys []types.SortKey) (string, error) {
	parts := make([]string, 0, len(keys)+1)
	seenPK := false
	for _, k := range keys {
		_, name, err := resolve(t, k.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if k.Direction == types.Descending {
			dir = "DESC"
		}
		parts = append(parts, name+" "+dir)
		if name == pkColumn {
			seenPK = true
		}
	}
	if !seenPK {
		parts = append(parts, pkColumn+" ASC")
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}
