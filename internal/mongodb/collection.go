package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// collection implements types.Collection over one server collection.
type collection struct {
	b       *Backend
	table   *schema.Table
	coll    *mongo.Collection
	coercer *document.Coercer
}

var _ types.Collection = (*collection)(nil)

func newCollection(b *Backend, t *schema.Table, coll *mongo.Collection) *collection {
	return &collection{
		b:       b,
		table:   t,
		coll:    coll,
		coercer: document.NewCoercer(t, b.log, b.now),
	}
}

func (c *collection) Name() string { return c.table.Name }

// identityOrder picks the oldest match first, mirroring the relational
// engine's primary key order.
var identityOrder = bson.D{{Key: types.IdentityKey, Value: 1}}

// InsertOne inserts a single document.
func (c *collection) InsertOne(ctx context.Context, doc types.Document) (types.InsertResult, error) {
	if !c.b.isAttached() {
		return types.InsertResult{}, types.ErrDetached
	}
	d, err := c.coercer.PrepareInsert(doc)
	if err != nil {
		return types.InsertResult{}, err
	}
	res, err := c.coll.InsertOne(ctx, map[string]any(d))
	if err != nil {
		return types.InsertResult{}, fmt.Errorf("inserting into %s: %w", c.table.Name, mapError(err))
	}
	return types.InsertResult{IDs: []any{res.InsertedID}}, nil
}

// InsertMany inserts documents in order. The server has no multi-document
// transaction here: documents before a failing one stay inserted.
func (c *collection) InsertMany(ctx context.Context, docs []types.Document) (types.InsertResult, error) {
	if len(docs) == 0 {
		return types.InsertResult{IDs: []any{}}, nil
	}
	if !c.b.isAttached() {
		return types.InsertResult{}, types.ErrDetached
	}
	prepared := make([]any, len(docs))
	for i, doc := range docs {
		d, err := c.coercer.PrepareInsert(doc)
		if err != nil {
			return types.InsertResult{}, err
		}
		prepared[i] = map[string]any(d)
	}
	res, err := c.coll.InsertMany(ctx, prepared, options.InsertMany().SetOrdered(true))
	if err != nil {
		c.b.log.Error().Err(err).Str("collection", c.table.Name).Int("documents", len(docs)).Msg("insert many failed")
		return types.InsertResult{}, fmt.Errorf("inserting into %s: %w", c.table.Name, mapError(err))
	}
	return types.InsertResult{IDs: res.InsertedIDs}, nil
}

// FindOne returns the first match in identity order, or nil.
func (c *collection) FindOne(ctx context.Context, filter types.Filter, projection types.Projection) (types.Document, error) {
	docs, err := c.Find(filter).Limit(1).Project(projection).All(ctx)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// Find returns a lazy cursor.
func (c *collection) Find(filter types.Filter) types.Cursor {
	return &cursor{c: c, filter: filter}
}

// Get returns the document with the given identity.
func (c *collection) Get(ctx context.Context, id any) (types.Document, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	d, err := c.FindOne(ctx, types.Where(types.Eq(types.IdentityKey, oid)), nil)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s %s", types.ErrNotFound, c.table.Name, oid.Hex())
	}
	return d, nil
}

// UpdateOne applies update to the first match in identity order with a
// single findAndModify, so the change is atomic for that document.
func (c *collection) UpdateOne(ctx context.Context, filter types.Filter, update types.Update) (types.MutationResult, error) {
	if !c.b.isAttached() {
		return types.MutationResult{}, types.ErrDetached
	}
	pipeline, err := c.toPipeline(update)
	if err != nil {
		return types.MutationResult{}, err
	}
	query, err := toQuery(c.table, filter)
	if err != nil {
		return types.MutationResult{}, err
	}
	opts := options.FindOneAndUpdate().SetSort(identityOrder).SetProjection(bson.D{{Key: types.IdentityKey, Value: 1}})
	err = c.coll.FindOneAndUpdate(ctx, query, pipeline, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.MutationResult{}, nil
	}
	if err != nil {
		return types.MutationResult{}, fmt.Errorf("updating %s: %w", c.table.Name, mapError(err))
	}
	return types.MutationResult{Matched: 1, Modified: 1}, nil
}

// UpdateMany applies only the Set part of update to every match.
func (c *collection) UpdateMany(ctx context.Context, filter types.Filter, update types.Update) (types.MutationResult, error) {
	if len(update.Set) == 0 {
		return types.MutationResult{}, nil
	}
	if !c.b.isAttached() {
		return types.MutationResult{}, types.ErrDetached
	}
	set, err := c.toSet(update)
	if err != nil {
		return types.MutationResult{}, err
	}
	query, err := toQuery(c.table, filter)
	if err != nil {
		return types.MutationResult{}, err
	}
	res, err := c.coll.UpdateMany(ctx, query, set)
	if err != nil {
		return types.MutationResult{}, fmt.Errorf("updating %s: %w", c.table.Name, mapError(err))
	}
	return types.MutationResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// DeleteOne removes the first match in identity order.
func (c *collection) DeleteOne(ctx context.Context, filter types.Filter) (types.DeletionResult, error) {
	if !c.b.isAttached() {
		return types.DeletionResult{}, types.ErrDetached
	}
	query, err := toQuery(c.table, filter)
	if err != nil {
		return types.DeletionResult{}, err
	}
	opts := options.FindOneAndDelete().SetSort(identityOrder).SetProjection(bson.D{{Key: types.IdentityKey, Value: 1}})
	err = c.coll.FindOneAndDelete(ctx, query, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.DeletionResult{}, nil
	}
	if err != nil {
		return types.DeletionResult{}, fmt.Errorf("deleting from %s: %w", c.table.Name, mapError(err))
	}
	return types.DeletionResult{Count: 1}, nil
}

// DeleteMany removes every match.
func (c *collection) DeleteMany(ctx context.Context, filter types.Filter) (types.DeletionResult, error) {
	if !c.b.isAttached() {
		return types.DeletionResult{}, types.ErrDetached
	}
	query, err := toQuery(c.table, filter)
	if err != nil {
		return types.DeletionResult{}, err
	}
	res, err := c.coll.DeleteMany(ctx, query)
	if err != nil {
		return types.DeletionResult{}, fmt.Errorf("deleting from %s: %w", c.table.Name, mapError(err))
	}
	return types.DeletionResult{Count: res.DeletedCount}, nil
}

// CountDocuments counts matches.
func (c *collection) CountDocuments(ctx context.Context, filter types.Filter) (int64, error) {
	if !c.b.isAttached() {
		return 0, types.ErrDetached
	}
	query, err := toQuery(c.table, filter)
	if err != nil {
		return 0, err
	}
	n, err := c.coll.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.table.Name, mapError(err))
	}
	return n, nil
}

// Distinct returns the distinct non-null values of field, sorted.
func (c *collection) Distinct(ctx context.Context, field string) ([]any, error) {
	name, _, err := resolve(c.table, field)
	if err != nil {
		return nil, err
	}
	if !c.b.isAttached() {
		return nil, types.ErrDetached
	}
	raw, err := c.coll.Distinct(ctx, name, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("distinct %s.%s: %w", c.table.Name, field, mapError(err))
	}
	out := make([]any, 0, len(raw))
	for _, v := range raw {
		if v == nil {
			continue
		}
		if field == types.IDKey {
			out = append(out, document.IDString(v))
			continue
		}
		out = append(out, Normalize(v))
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

// CreateIndex declares an index over keys.
func (c *collection) CreateIndex(ctx context.Context, keys []types.SortKey, unique bool) error {
	if !c.b.isAttached() {
		return types.ErrDetached
	}
	d := make(bson.D, 0, len(keys))
	for _, k := range keys {
		name, _, err := resolve(c.table, k.Field)
		if err != nil {
			return err
		}
		d = append(d, bson.E{Key: name, Value: int(k.Direction)})
	}
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: d, Options: options.Index().SetUnique(unique)})
	if err != nil {
		return fmt.Errorf("creating index on %s: %w", c.table.Name, mapError(err))
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// less orders distinct values of one field: numbers, then strings, then
// anything else by its printed form.
func less(a, b any) bool {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	case int64:
		if y, ok := b.(int64); ok {
			return x < y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
