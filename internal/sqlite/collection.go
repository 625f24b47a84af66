package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// collection implements types.Collection over one table.
type collection struct {
	b       *Backend
	table   *schema.Table
	coercer *document.Coercer
	columns string
}

var _ types.Collection = (*collection)(nil)

func newCollection(b *Backend, t *schema.Table) *collection {
	cols := make([]string, 0, len(t.Columns)+1)
	cols = append(cols, pkColumn)
	for _, c := range t.Columns {
		cols = append(cols, quote(c.Name))
	}
	return &collection{
		b:       b,
		table:   t,
		coercer: document.NewCoercer(t, b.log, b.now),
		columns: strings.Join(cols, ", "),
	}
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (c *collection) Name() string { return c.table.Name }

func (c *collection) selectSQL() string {
	return "SELECT " + c.columns + " FROM " + quote(c.table.Name)
}

// query runs a SELECT over every column and hydrates the rows.
func (c *collection) query(ctx context.Context, q querier, query string, args ...any) ([]types.Document, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		d, err := c.scan(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *collection) scan(rows *sql.Rows) (types.Document, error) {
	raw := make([]any, len(c.table.Columns)+1)
	ptrs := make([]any, len(raw))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning %s row: %w", c.table.Name, err)
	}

	id, err := rowID(raw[0])
	if err != nil {
		return nil, err
	}
	d := make(types.Document, len(raw)+1)
	for i, col := range c.table.Columns {
		v, err := decode(col, raw[i+1])
		if err != nil {
			return nil, err
		}
		d[col.Name] = v
	}
	return document.WithIdentity(d, id), nil
}

// InsertOne inserts doc in its own transaction.
func (c *collection) InsertOne(ctx context.Context, doc types.Document) (types.InsertResult, error) {
	return c.insert(ctx, []types.Document{doc})
}

// InsertMany inserts docs in one transaction; a failure rolls back every
// row.
func (c *collection) InsertMany(ctx context.Context, docs []types.Document) (types.InsertResult, error) {
	if len(docs) == 0 {
		return types.InsertResult{IDs: []any{}}, nil
	}
	res, err := c.insert(ctx, docs)
	if err != nil {
		c.b.log.Error().Err(err).Str("collection", c.table.Name).Int("documents", len(docs)).Msg("insert many rolled back")
	}
	return res, err
}

func (c *collection) insert(ctx context.Context, docs []types.Document) (types.InsertResult, error) {
	prepared := make([]types.Document, len(docs))
	for i, d := range docs {
		p, err := c.coercer.PrepareInsert(d)
		if err != nil {
			return types.InsertResult{}, err
		}
		prepared[i] = p
	}

	db, err := c.b.conn()
	if err != nil {
		return types.InsertResult{}, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return types.InsertResult{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]any, 0, len(prepared))
	for _, d := range prepared {
		id, err := c.insertRow(ctx, tx, d)
		if err != nil {
			return types.InsertResult{}, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return types.InsertResult{}, fmt.Errorf("committing insert: %w", err)
	}
	return types.InsertResult{IDs: ids}, nil
}

func (c *collection) insertRow(ctx context.Context, tx *sql.Tx, d types.Document) (int64, error) {
	names := make([]string, 0, len(d))
	for k := range d {
		names = append(names, k)
	}
	sort.Strings(names)

	cols := make([]string, 0, len(names))
	marks := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for _, name := range names {
		col, _ := c.table.Column(name)
		v, err := encode(col, d[name])
		if err != nil {
			return 0, err
		}
		// Omit nil values so column defaults apply.
		if v == nil {
			continue
		}
		cols = append(cols, quote(name))
		marks = append(marks, "?")
		args = append(args, v)
	}

	stmt := "INSERT INTO " + quote(c.table.Name) + " DEFAULT VALUES"
	if len(cols) > 0 {
		stmt = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quote(c.table.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
	}
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", c.table.Name, mapError(err))
	}
	return res.LastInsertId()
}

// FindOne returns the first match in identity order, or nil.
func (c *collection) FindOne(ctx context.Context, filter types.Filter, projection types.Projection) (types.Document, error) {
	docs, err := c.Find(filter).Limit(1).Project(projection).All(ctx)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// Find returns a lazy cursor over matching rows.
func (c *collection) Find(filter types.Filter) types.Cursor {
	return &cursor{c: c, filter: filter}
}

// Get returns the row with primary key id.
func (c *collection) Get(ctx context.Context, id any) (types.Document, error) {
	pk, err := rowID(id)
	if err != nil {
		return nil, err
	}
	d, err := c.FindOne(ctx, types.Where(types.Eq(types.IdentityKey, pk)), nil)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s %d", types.ErrNotFound, c.table.Name, pk)
	}
	return d, nil
}

// CountDocuments counts matching rows.
func (c *collection) CountDocuments(ctx context.Context, filter types.Filter) (int64, error) {
	where, args, err := whereClause(c.table, filter)
	if err != nil {
		return 0, err
	}
	db, err := c.b.conn()
	if err != nil {
		return 0, err
	}
	var n int64
	q := "SELECT COUNT(*) FROM " + quote(c.table.Name) + " WHERE " + where
	if err := db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.table.Name, err)
	}
	return n, nil
}

// Distinct returns the distinct non-null values of field in ascending order.
func (c *collection) Distinct(ctx context.Context, field string) ([]any, error) {
	col, name, err := resolve(c.table, field)
	if err != nil {
		return nil, err
	}
	db, err := c.b.conn()
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s",
		name, quote(c.table.Name), name, name)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("distinct %s.%s: %w", c.table.Name, field, err)
	}
	defer rows.Close()

	out := []any{}
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		if types.IsIdentity(field) {
			if field == types.IDKey {
				out = append(out, document.IDString(raw))
			} else {
				out = append(out, raw)
			}
			continue
		}
		v, err := decode(col, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreateIndex is a no-op: indexes are fixed by the schema.
func (c *collection) CreateIndex(ctx context.Context, keys []types.SortKey, unique bool) error {
	for _, k := range keys {
		if err := c.table.Check(k.Field); err != nil {
			return err
		}
	}
	return nil
}

// mapError translates driver constraint failures into package errors.
func mapError(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return fmt.Errorf("%w: %v", types.ErrDuplicateKey, err)
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return fmt.Errorf("%w: %v", types.ErrInvalidValue, err)
	}
	return err
}
