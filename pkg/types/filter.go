package types

import (
	"fmt"
	"sort"
	"strings"
)

// Op identifies the comparison a Predicate performs.
type Op string

// Supported predicate operators.
const (
	OpEq   Op = "eq"
	OpNe   Op = "ne"
	OpLike Op = "like"
	OpGte  Op = "gte"
	OpLte  Op = "lte"
	OpGt   Op = "gt"
	OpLt   Op = "lt"
	OpIn   Op = "in"
)

// Predicate is one field condition. Value carries the operand of every
// operator except OpIn, which uses Values. Fold makes OpLike case
// insensitive.
type Predicate struct {
	Field  string
	Op     Op
	Value  any
	Values []any
	Fold   bool
}

// Filter is a conjunction of predicates. A nil or empty Filter matches every
// document.
type Filter []Predicate

// Eq matches documents whose field equals v. A nil v matches absent or null
// fields.
func Eq(field string, v any) Predicate { return Predicate{Field: field, Op: OpEq, Value: v} }

// Ne matches documents whose field is null, absent, or different from v.
func Ne(field string, v any) Predicate { return Predicate{Field: field, Op: OpNe, Value: v} }

// Like matches documents whose field contains substr. When fold is true the
// comparison ignores case.
func Like(field, substr string, fold bool) Predicate {
	return Predicate{Field: field, Op: OpLike, Value: substr, Fold: fold}
}

// Gte matches documents whose field is greater than or equal to v.
func Gte(field string, v any) Predicate { return Predicate{Field: field, Op: OpGte, Value: v} }

// Lte matches documents whose field is less than or equal to v.
func Lte(field string, v any) Predicate { return Predicate{Field: field, Op: OpLte, Value: v} }

// Gt matches documents whose field is greater than v.
func Gt(field string, v any) Predicate { return Predicate{Field: field, Op: OpGt, Value: v} }

// Lt matches documents whose field is less than v.
func Lt(field string, v any) Predicate { return Predicate{Field: field, Op: OpLt, Value: v} }

// In matches documents whose field equals one of vs. An empty vs matches
// nothing.
func In(field string, vs ...any) Predicate { return Predicate{Field: field, Op: OpIn, Values: vs} }

// Where builds a Filter from predicates.
func Where(ps ...Predicate) Filter { return Filter(ps) }

// And returns a new Filter holding f followed by ps.
func (f Filter) And(ps ...Predicate) Filter {
	out := make(Filter, 0, len(f)+len(ps))
	out = append(out, f...)
	return append(out, ps...)
}

// ParseFilter converts a Mongo-style query document into a Filter. A plain
// value means equality; a map whose keys start with "$" holds operators.
// Recognized operators are $eq, $ne, $regex (with $options "i"), $gte, $lte,
// $gt, $lt and $in. Other operators are ignored. Fields are visited in
// lexical order so the result is deterministic.
func ParseFilter(query map[string]any) (Filter, error) {
	if len(query) == 0 {
		return nil, nil
	}
	fields := make([]string, 0, len(query))
	for k := range query {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var f Filter
	for _, field := range fields {
		if strings.HasPrefix(field, "$") {
			return nil, fmt.Errorf("%w: top-level operator %s", ErrInvalidFilter, field)
		}
		ops, ok := operatorMap(query[field])
		if !ok {
			f = append(f, Eq(field, query[field]))
			continue
		}
		ps, err := parseOperators(field, ops)
		if err != nil {
			return nil, err
		}
		f = append(f, ps...)
	}
	return f, nil
}

// operatorMap returns v as an operator map when every key starts with "$".
func operatorMap(v any) (map[string]any, bool) {
	var m map[string]any
	switch t := v.(type) {
	case map[string]any:
		m = t
	case Document:
		m = t
	default:
		return nil, false
	}
	if len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func parseOperators(field string, ops map[string]any) ([]Predicate, error) {
	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var ps []Predicate
	for _, op := range keys {
		v := ops[op]
		switch op {
		case "$eq":
			ps = append(ps, Eq(field, v))
		case "$ne":
			ps = append(ps, Ne(field, v))
		case "$gte":
			ps = append(ps, Gte(field, v))
		case "$lte":
			ps = append(ps, Lte(field, v))
		case "$gt":
			ps = append(ps, Gt(field, v))
		case "$lt":
			ps = append(ps, Lt(field, v))
		case "$regex":
			pattern, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: $regex on %s must be a string", ErrInvalidFilter, field)
			}
			options, _ := ops["$options"].(string)
			ps = append(ps, Like(field, pattern, strings.Contains(options, "i")))
		case "$in":
			vs, ok := toList(v)
			if !ok {
				return nil, fmt.Errorf("%w: $in on %s must be a list", ErrInvalidFilter, field)
			}
			ps = append(ps, In(field, vs...))
		}
	}
	return ps, nil
}

// toList converts the common slice shapes into []any.
func toList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}
