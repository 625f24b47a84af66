package sqlite

import (
	"context"
	"fmt"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// cursor is a lazy SELECT. Configuration is recorded until All runs the
// query; the first successful result is cached.
type cursor struct {
	c          *collection
	filter     types.Filter
	sort       []types.SortKey
	skip       int64
	limit      int64
	projection types.Projection

	done bool
	docs []types.Document
}

var _ types.Cursor = (*cursor)(nil)

func (cur *cursor) Sort(keys ...types.SortKey) types.Cursor {
	if !cur.done {
		cur.sort = append([]types.SortKey(nil), keys...)
	}
	return cur
}

func (cur *cursor) Skip(n int64) types.Cursor {
	if !cur.done {
		cur.skip = n
	}
	return cur
}

func (cur *cursor) Limit(n int64) types.Cursor {
	if !cur.done {
		cur.limit = n
	}
	return cur
}

func (cur *cursor) Project(p types.Projection) types.Cursor {
	if !cur.done {
		cur.projection = p
	}
	return cur
}

// All runs the query on first use and returns the cached documents after.
func (cur *cursor) All(ctx context.Context) ([]types.Document, error) {
	if cur.done {
		return cur.docs, nil
	}
	db, err := cur.c.b.conn()
	if err != nil {
		return nil, err
	}

	where, args, err := whereClause(cur.c.table, cur.filter)
	if err != nil {
		return nil, err
	}
	order, err := orderBy(cur.c.table, cur.sort)
	if err != nil {
		return nil, err
	}
	query := cur.c.selectSQL() + " WHERE " + where + order
	if cur.limit > 0 || cur.skip > 0 {
		limit := cur.limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, cur.skip)
	}

	docs, err := cur.c.query(ctx, db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding in %s: %w", cur.c.table.Name, err)
	}
	if len(cur.projection) > 0 {
		for i, d := range docs {
			docs[i] = document.Project(d, cur.projection)
		}
	}
	cur.docs = docs
	cur.done = true
	return docs, nil
}
