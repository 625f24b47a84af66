package protocol

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// BaselineCategories are always allowed, whatever the categories collection
// holds.
var BaselineCategories = []string{"RGI", "RCPN", "RCPJ", "RTD", "PROTESTO", "NOTAS"}

// categoryAliases maps retired category names to their replacement.
var categoryAliases = map[string]string{"IDT": "RTD"}

// AllowedCategories returns the sorted union of BaselineCategories and the
// names stored in the categories collection. A lookup failure is logged and
// the baseline alone is returned.
func (s *Service) AllowedCategories(ctx context.Context) []string {
	out := slices.Clone(BaselineCategories)
	names, err := s.categories.Distinct(ctx, types.FieldName)
	if err != nil {
		s.log.Warn().Err(err).Msg("category lookup failed, using baseline")
	}
	for _, n := range names {
		if name, ok := n.(string); ok && name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// category resolves aliases and checks name against AllowedCategories.
func (s *Service) category(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if alias, ok := categoryAliases[name]; ok {
		name = alias
	}
	if !slices.Contains(s.AllowedCategories(ctx), name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, name)
	}
	return name, nil
}

// AddCategory stores a category. Only administrators may add one.
func (s *Service) AddCategory(ctx context.Context, name, description, by string) (any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, types.FieldName)
	}
	if err := s.requireAdmin(ctx, by); err != nil {
		return nil, err
	}
	res, err := s.categories.InsertOne(ctx, types.Document{
		types.FieldName:        name,
		types.FieldDescription: description,
	})
	if errors.Is(err, types.ErrDuplicateKey) {
		return nil, fmt.Errorf("category %q: %w", name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	s.log.Info().Str("category", name).Str("by", by).Msg("category created")
	return res.InsertedID(), nil
}

// UpdateCategory renames and redescribes the category with identity id.
// Only administrators may change one.
func (s *Service) UpdateCategory(ctx context.Context, id any, name, description, by string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, types.FieldName)
	}
	if err := s.requireAdmin(ctx, by); err != nil {
		return err
	}
	clash, err := s.categories.FindOne(ctx,
		types.Where(types.Eq(types.FieldName, name), types.Ne(types.IdentityKey, id)),
		types.Projection{types.FieldName: 1})
	if err != nil {
		return fmt.Errorf("looking up category: %w", err)
	}
	if clash != nil {
		return fmt.Errorf("%w: %q", ErrCategoryExists, name)
	}
	res, err := s.categories.UpdateOne(ctx,
		types.Where(types.Eq(types.IdentityKey, id)),
		types.SetFields(map[string]any{
			types.FieldName:        name,
			types.FieldDescription: strings.TrimSpace(description),
		}))
	if errors.Is(err, types.ErrDuplicateKey) {
		return fmt.Errorf("%w: %q", ErrCategoryExists, name)
	}
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if res.Matched == 0 {
		return types.ErrNotFound
	}
	s.log.Info().Str("category", name).Str("by", by).Msg("category updated")
	return nil
}

// DeleteCategory removes the category with identity id. Records keep their
// category name; baseline categories stay allowed.
func (s *Service) DeleteCategory(ctx context.Context, id any, by string) error {
	if err := s.requireAdmin(ctx, by); err != nil {
		return err
	}
	res, err := s.categories.DeleteOne(ctx, types.Where(types.Eq(types.IdentityKey, id)))
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if res.Count == 0 {
		return types.ErrNotFound
	}
	s.log.Info().Str("by", by).Msg("category deleted")
	return nil
}
