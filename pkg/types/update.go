package types

import (
	"fmt"
	"sort"
	"strings"
)

// Update describes a mutation. Set assigns fields, Push appends one element
// to list fields (creating the list when absent), and Unset clears fields.
type Update struct {
	Set   map[string]any
	Push  map[string]any
	Unset []string
}

// IsZero reports whether u changes nothing.
func (u Update) IsZero() bool {
	return len(u.Set) == 0 && len(u.Push) == 0 && len(u.Unset) == 0
}

// SetFields returns an Update assigning the given fields.
func SetFields(fields map[string]any) Update {
	return Update{Set: fields}
}

// ParseUpdate converts a Mongo-style update document ($set, $push, $unset)
// into an Update. Keys without a "$" prefix are rejected; unrecognized
// operators are ignored.
func ParseUpdate(doc map[string]any) (Update, error) {
	var u Update
	for op, v := range doc {
		if !strings.HasPrefix(op, "$") {
			return Update{}, fmt.Errorf("%w: field %s outside an operator", ErrInvalidUpdate, op)
		}
		switch op {
		case "$set", "$push":
			m, ok := asMap(v)
			if !ok {
				return Update{}, fmt.Errorf("%w: %s expects a document", ErrInvalidUpdate, op)
			}
			if op == "$set" {
				u.Set = m
			} else {
				u.Push = m
			}
		case "$unset":
			m, ok := asMap(v)
			if !ok {
				return Update{}, fmt.Errorf("%w: $unset expects a document", ErrInvalidUpdate)
			}
			for field := range m {
				u.Unset = append(u.Unset, field)
			}
			sort.Strings(u.Unset)
		}
	}
	return u, nil
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Document:
		return t, true
	}
	return nil, false
}
