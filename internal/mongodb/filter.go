package mongodb

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// toQuery translates f into a server query document. A single predicate is
// emitted as is; several are joined under $and so repeated fields keep
// every condition.
func toQuery(t *schema.Table, f types.Filter) (bson.D, error) {
	if len(f) == 0 {
		return bson.D{}, nil
	}
	conds := make(bson.A, 0, len(f))
	for _, p := range f {
		c, err := condition(t, p)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	if len(conds) == 1 {
		return conds[0].(bson.D), nil
	}
	return bson.D{{Key: "$and", Value: conds}}, nil
}

func condition(t *schema.Table, p types.Predicate) (bson.D, error) {
	field, conv, err := resolve(t, p.Field)
	if err != nil {
		return nil, err
	}

	var expr any
	switch p.Op {
	case types.OpEq:
		v, err := conv(p.Value)
		if err != nil {
			return nil, err
		}
		expr = v
	case types.OpNe, types.OpGte, types.OpLte, types.OpGt, types.OpLt:
		v, err := conv(p.Value)
		if err != nil {
			return nil, err
		}
		expr = bson.D{{Key: operators[p.Op], Value: v}}
	case types.OpLike:
		s, ok := p.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: like on %s needs a string", types.ErrInvalidFilter, p.Field)
		}
		re := primitive.Regex{Pattern: regexp.QuoteMeta(s)}
		if p.Fold {
			re.Options = "i"
		}
		expr = bson.D{{Key: "$regex", Value: re}}
	case types.OpIn:
		vs := make(bson.A, 0, len(p.Values))
		for _, raw := range p.Values {
			v, err := conv(raw)
			if err != nil {
				return nil, err
			}
			vs = append(vs, v)
		}
		expr = bson.D{{Key: "$in", Value: vs}}
	default:
		return nil, fmt.Errorf("%w: operator %q", types.ErrInvalidFilter, p.Op)
	}
	return bson.D{{Key: field, Value: expr}}, nil
}

var operators = map[types.Op]string{
	types.OpNe:  "$ne",
	types.OpGte: "$gte",
	types.OpLte: "$lte",
	types.OpGt:  "$gt",
	types.OpLt:  "$lt",
}

// converter turns a caller value into the value stored on the server.
type converter func(any) (any, error)

// resolve maps a field to its stored name and value converter. Both
// identity keys address "_id".
func resolve(t *schema.Table, field string) (string, converter, error) {
	if types.IsIdentity(field) {
		return types.IdentityKey, func(v any) (any, error) { return objectID(v) }, nil
	}
	col, ok := t.Column(field)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s.%s", types.ErrUnknownField, t.Name, field)
	}
	if col.Kind == schema.Timestamp {
		return field, timestampOperand, nil
	}
	return field, func(v any) (any, error) { return document.Scalar(col, v), nil }, nil
}

func timestampOperand(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		if tm, ok := v.(time.Time); ok {
			return tm.UTC(), nil
		}
		return v, nil
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	tm, ok := document.ParseTimestamp(s)
	if !ok {
		return nil, fmt.Errorf("%w: timestamp %q", types.ErrInvalidValue, s)
	}
	return tm, nil
}

// objectID converts a caller-supplied identity into an ObjectID.
func objectID(v any) (primitive.ObjectID, error) {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t, nil
	case string:
		id, err := primitive.ObjectIDFromHex(t)
		if err != nil {
			return primitive.NilObjectID, fmt.Errorf("%w: %q", types.ErrInvalidID, t)
		}
		return id, nil
	}
	return primitive.NilObjectID, fmt.Errorf("%w: %v (%T)", types.ErrInvalidID, v, v)
}

// toSort renders the sort keys with "_id" as the final tie-breaker.
func toSort(t *schema.Table, keys []types.SortKey) (bson.D, error) {
	out := make(bson.D, 0, len(keys)+1)
	seenID := false
	for _, k := range keys {
		field, _, err := resolve(t, k.Field)
		if err != nil {
			return nil, err
		}
		if field == types.IdentityKey {
			if seenID {
				continue
			}
			seenID = true
		}
		dir := 1
		if k.Direction == types.Descending {
			dir = -1
		}
		out = append(out, bson.E{Key: field, Value: dir})
	}
	if !seenID {
		out = append(out, bson.E{Key: types.IdentityKey, Value: 1})
	}
	return out, nil
}
