package sqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// UpdateOne applies set, push and unset to the first matching row inside
// one transaction. Modified equals Matched.
func (c *collection) UpdateOne(ctx context.Context, filter types.Filter, update types.Update) (types.MutationResult, error) {
	if update.IsZero() {
		return types.MutationResult{}, fmt.Errorf("%w: empty update", types.ErrInvalidUpdate)
	}
	set, err := c.coercer.PrepareSet(update.Set)
	if err != nil {
		return types.MutationResult{}, err
	}
	for _, field := range update.Unset {
		if types.IsIdentity(field) {
			return types.MutationResult{}, fmt.Errorf("%w: identity cannot be unset", types.ErrInvalidUpdate)
		}
		if err := c.table.Check(field); err != nil {
			return types.MutationResult{}, err
		}
	}
	for field := range update.Push {
		col, ok := c.table.Column(field)
		if !ok {
			return types.MutationResult{}, fmt.Errorf("%w: %s.%s", types.ErrUnknownField, c.table.Name, field)
		}
		if col.Kind != schema.JSON {
			return types.MutationResult{}, fmt.Errorf("%w: %s is not a list field", types.ErrInvalidUpdate, field)
		}
	}

	where, args, err := whereClause(c.table, filter)
	if err != nil {
		return types.MutationResult{}, err
	}
	db, err := c.b.conn()
	if err != nil {
		return types.MutationResult{}, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return types.MutationResult{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	docs, err := c.query(ctx, tx, c.selectSQL()+" WHERE "+where+" ORDER BY "+pkColumn+" LIMIT 1", args...)
	if err != nil {
		return types.MutationResult{}, fmt.Errorf("matching %s: %w", c.table.Name, err)
	}
	if len(docs) == 0 {
		return types.MutationResult{}, nil
	}
	current := docs[0]

	fields := make(map[string]any, len(set)+len(update.Push)+len(update.Unset))
	for k, v := range set {
		fields[k] = v
	}
	for k, v := range update.Push {
		list, _ := current[k].([]any)
		fields[k] = append(append([]any(nil), list...), v)
	}
	for _, k := range update.Unset {
		fields[k] = nil
	}
	assign, assignArgs, err := c.assignments(fields)
	if err != nil {
		return types.MutationResult{}, err
	}
	stmt := "UPDATE " + quote(c.table.Name) + " SET " + assign + " WHERE " + pkColumn + " = ?"
	assignArgs = append(assignArgs, current[types.IdentityKey])
	if _, err := tx.ExecContext(ctx, stmt, assignArgs...); err != nil {
		return types.MutationResult{}, fmt.Errorf("updating %s: %w", c.table.Name, mapError(err))
	}
	if err := tx.Commit(); err != nil {
		return types.MutationResult{}, fmt.Errorf("committing update: %w", err)
	}
	return types.MutationResult{Matched: 1, Modified: 1}, nil
}

// UpdateMany applies only the Set part of update to every matching row.
// Without Set nothing is matched or modified.
func (c *collection) UpdateMany(ctx context.Context, filter types.Filter, update types.Update) (types.MutationResult, error) {
	if len(update.Set) == 0 {
		return types.MutationResult{}, nil
	}
	set, err := c.coercer.PrepareSet(update.Set)
	if err != nil {
		return types.MutationResult{}, err
	}
	where, args, err := whereClause(c.table, filter)
	if err != nil {
		return types.MutationResult{}, err
	}
	assign, assignArgs, err := c.assignments(set)
	if err != nil {
		return types.MutationResult{}, err
	}

	db, err := c.b.conn()
	if err != nil {
		return types.MutationResult{}, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return types.MutationResult{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE "+quote(c.table.Name)+" SET "+assign+" WHERE "+where, append(assignArgs, args...)...)
	if err != nil {
		return types.MutationResult{}, fmt.Errorf("updating %s: %w", c.table.Name, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.MutationResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.MutationResult{}, fmt.Errorf("committing update: %w", err)
	}
	return types.MutationResult{Matched: n, Modified: n}, nil
}

// assignments renders "col = ?" pairs in field order.
func (c *collection) assignments(fields map[string]any) (string, []any, error) {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for _, name := range names {
		col, _ := c.table.Column(name)
		v, err := encode(col, fields[name])
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, quote(name)+" = ?")
		args = append(args, v)
	}
	return strings.Join(parts, ", "), args, nil
}

// DeleteOne removes the first matching row in identity order.
func (c *collection) DeleteOne(ctx context.Context, filter types.Filter) (types.DeletionResult, error) {
	where, args, err := whereClause(c.table, filter)
	if err != nil {
		return types.DeletionResult{}, err
	}
	table := quote(c.table.Name)
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = (SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT 1)",
		table, pkColumn, pkColumn, table, where, pkColumn)
	return c.delete(ctx, stmt, args)
}

// DeleteMany removes every matching row.
func (c *collection) DeleteMany(ctx context.Context, filter types.Filter) (types.DeletionResult, error) {
	where, args, err := whereClause(c.table, filter)
	if err != nil {
		return types.DeletionResult{}, err
	}
	return c.delete(ctx, "DELETE FROM "+quote(c.table.Name)+" WHERE "+where, args)
}

func (c *collection) delete(ctx context.Context, stmt string, args []any) (types.DeletionResult, error) {
	db, err := c.b.conn()
	if err != nil {
		return types.DeletionResult{}, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return types.DeletionResult{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return types.DeletionResult{}, fmt.Errorf("deleting from %s: %w", c.table.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.DeletionResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.DeletionResult{}, fmt.Errorf("committing delete: %w", err)
	}
	return types.DeletionResult{Count: n}, nil
}
