package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// cursor records query shaping until All runs it, then caches the result.
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
	if !cur.c.b.isAttached() {
		return nil, types.ErrDetached
	}
	query, err := toQuery(cur.c.table, cur.filter)
	if err != nil {
		return nil, err
	}
	sort, err := toSort(cur.c.table, cur.sort)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(sort)
	if cur.skip > 0 {
		opts.SetSkip(cur.skip)
	}
	if cur.limit > 0 {
		opts.SetLimit(cur.limit)
	}
	res, err := cur.c.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("finding in %s: %w", cur.c.table.Name, mapError(err))
	}
	var raw []bson.M
	if err := res.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("reading %s: %w", cur.c.table.Name, mapError(err))
	}

	docs := make([]types.Document, len(raw))
	for i, r := range raw {
		docs[i] = document.Project(toDocument(r), cur.projection)
	}
	cur.docs = docs
	cur.done = true
	return docs, nil
}
