// Package schema declares the stored shape of every collection once, in an
// engine-neutral form. The SQLite backend renders it as DDL, the MongoDB
// backend as index models, and both use it to validate field names.
package schema

import (
	"fmt"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Kind is the storage class of a column.
type Kind int

// Column kinds.
const (
	Text Kind = iota
	Integer
	Bool
	Timestamp
	JSON
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Bool:
		return "bool"
	case Timestamp:
		return "timestamp"
	case JSON:
		return "json"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Column describes one stored field. Size is advisory (the legacy maximum
// length) and zero for unbounded text.
type Column struct {
	Name    string
	Kind    Kind
	Size    int
	NotNull bool
	Unique  bool
	Index   bool
	// Default is the value stored when an insert omits the column.
	Default any
}

// IndexKey is one key of a compound index.
type IndexKey struct {
	Name string
	Desc bool
}

// Index is a secondary index spanning one or more columns.
type Index struct {
	Name    string
	Columns []IndexKey
	Unique  bool
}

// DateTwin pairs a human-readable date string with the timestamp column
// derived from it.
type DateTwin struct {
	Display   string
	Timestamp string
	// Required twins fall back to the current time when the display string
	// cannot be parsed.
	Required bool
}

// Table is the declared shape of one collection.
type Table struct {
	Name    string
	Columns []Column
	Indexes []Index
	Twins   []DateTwin

	byName map[string]int
}

// Column returns the column named name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// Has reports whether the table stores field, counting the identity keys.
func (t *Table) Has(field string) bool {
	if types.IsIdentity(field) {
		return true
	}
	_, ok := t.byName[field]
	return ok
}

// Check returns types.ErrUnknownField when field is not stored by t.
func (t *Table) Check(field string) error {
	if !t.Has(field) {
		return fmt.Errorf("%w: %s.%s", types.ErrUnknownField, t.Name, field)
	}
	return nil
}

// ColumnNames returns the stored field names in declaration order, without
// the identity.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// AllIndexes returns single-column indexes derived from Column.Index and
// Column.Unique followed by the declared compound indexes.
func (t *Table) AllIndexes() []Index {
	var out []Index
	for _, c := range t.Columns {
		if !c.Index && !c.Unique {
			continue
		}
		out = append(out, Index{
			Name:    fmt.Sprintf("ix_%s_%s", t.Name, c.Name),
			Columns: []IndexKey{{Name: c.Name}},
			Unique:  c.Unique,
		})
	}
	return append(out, t.Indexes...)
}

func newTable(name string, cols []Column, indexes []Index, twins []DateTwin) *Table {
	t := &Table{
		Name:    name,
		Columns: cols,
		Indexes: indexes,
		Twins:   twins,
		byName:  make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, dup := t.byName[c.Name]; dup {
			panic(fmt.Sprintf("schema: duplicate column %s.%s", name, c.Name))
		}
		t.byName[c.Name] = i
	}
	for _, tw := range twins {
		if _, ok := t.byName[tw.Display]; !ok {
			panic(fmt.Sprintf("schema: twin display %s.%s undeclared", name, tw.Display))
		}
		if c, ok := t.byName[tw.Timestamp]; !ok || cols[c].Kind != Timestamp {
			panic(fmt.Sprintf("schema: twin timestamp %s.%s undeclared", name, tw.Timestamp))
		}
	}
	return t
}

// Lookup returns the table declared for a collection name.
// Returns types.ErrCollectionNotFound for unknown names.
func Lookup(name string) (*Table, error) {
	t, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrCollectionNotFound, name)
	}
	return t, nil
}

// All returns every declared table in the order of
// types.StandardCollectionNames.
func All() []*Table {
	out := make([]*Table, 0, len(types.StandardCollectionNames))
	for _, name := range types.StandardCollectionNames {
		out = append(out, catalog[name])
	}
	return out
}
