package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// toPipeline renders a single-document update as an aggregation pipeline.
// Pushing onto a field that holds no list starts a new one-element list.
// Values are wrapped in $literal so strings starting with "$" are not read
// as field paths.
func (c *collection) toPipeline(u types.Update) (bson.A, error) {
	if u.IsZero() {
		return nil, fmt.Errorf("%w: empty update", types.ErrInvalidUpdate)
	}
	set, err := c.coercer.PrepareSet(u.Set)
	if err != nil {
		return nil, err
	}

	stage := bson.D{}
	for _, k := range sortedKeys(set) {
		stage = append(stage, bson.E{Key: k, Value: bson.D{{Key: "$literal", Value: set[k]}}})
	}
	for _, k := range sortedKeys(u.Push) {
		col, ok := c.table.Column(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", types.ErrUnknownField, c.table.Name, k)
		}
		if col.Kind != schema.JSON {
			return nil, fmt.Errorf("%w: %s is not a list field", types.ErrInvalidUpdate, k)
		}
		path := "$" + k
		stage = append(stage, bson.E{Key: k, Value: bson.D{{Key: "$concatArrays", Value: bson.A{
			bson.D{{Key: "$cond", Value: bson.A{bson.D{{Key: "$isArray", Value: path}}, path, bson.A{}}}},
			bson.A{bson.D{{Key: "$literal", Value: u.Push[k]}}},
		}}}})
	}

	var pipeline bson.A
	if len(stage) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$set", Value: stage}})
	}
	if len(u.Unset) > 0 {
		fields := make(bson.A, 0, len(u.Unset))
		for _, k := range u.Unset {
			if types.IsIdentity(k) {
				return nil, fmt.Errorf("%w: identity cannot be unset", types.ErrInvalidUpdate)
			}
			if err := c.table.Check(k); err != nil {
				return nil, err
			}
			fields = append(fields, k)
		}
		pipeline = append(pipeline, bson.D{{Key: "$unset", Value: fields}})
	}
	return pipeline, nil
}

// toSet renders the Set part of a bulk update.
func (c *collection) toSet(u types.Update) (bson.D, error) {
	set, err := c.coercer.PrepareSet(u.Set)
	if err != nil {
		return nil, err
	}
	d := make(bson.D, 0, len(set))
	for _, k := range sortedKeys(set) {
		d = append(d, bson.E{Key: k, Value: set[k]})
	}
	return bson.D{{Key: "$set", Value: d}}, nil
}
