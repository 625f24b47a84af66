package protocol

import (
	"context"
	"fmt"
	"strings"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Notify stores an unread notification for username.
func (s *Service) Notify(ctx context.Context, username, message, kind string) (any, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, types.FieldMessage)
	}
	doc := types.Document{
		types.FieldUsername:  username,
		types.FieldMessage:   message,
		types.FieldRead:      false,
		types.FieldCreatedAt: s.stamp(),
	}
	if kind != "" {
		doc[types.FieldRole] = kind
	}
	res, err := s.notifications.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return res.InsertedID(), nil
}

// Notifications lists the notifications of username, or all of them when
// username is empty, newest first.
func (s *Service) Notifications(ctx context.Context, username string) ([]types.Document, error) {
	var f types.Filter
	if username != "" {
		f = types.Where(types.Eq(types.FieldUsername, username))
	}
	return s.notifications.Find(f).Sort(types.Desc(types.FieldCreatedAtTime)).All(ctx)
}

// MarkRead flags a notification as read.
func (s *Service) MarkRead(ctx context.Context, id any) error {
	res, err := s.notifications.UpdateOne(ctx,
		types.Where(types.Eq(types.IdentityKey, id)),
		types.SetFields(map[string]any{types.FieldRead: true}))
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	if res.Matched == 0 {
		return types.ErrNotFound
	}
	return nil
}

// SaveFilter stores a named filter for username, replacing the filter of
// the same name if one exists.
func (s *Service) SaveFilter(ctx context.Context, username, name string, filters map[string]any) (any, error) {
	if username == "" || name == "" {
		return nil, fmt.Errorf("%w: %s and %s", ErrMissingField, types.FieldUsername, types.FieldName)
	}
	if filters == nil {
		filters = map[string]any{}
	}
	now := s.now().UTC()
	owner := types.Where(types.Eq(types.FieldUsername, username), types.Eq(types.FieldName, name))

	existing, err := s.filters.FindOne(ctx, owner, types.Projection{types.IdentityKey: 1})
	if err != nil {
		return nil, fmt.Errorf("looking up filter: %w", err)
	}
	if existing != nil {
		id := existing[types.IdentityKey]
		_, err := s.filters.UpdateOne(ctx, types.Where(types.Eq(types.IdentityKey, id)),
			types.SetFields(map[string]any{types.FieldFilters: filters, types.FieldUpdatedAt: now}))
		if err != nil {
			return nil, fmt.Errorf("update filter: %w", err)
		}
		return id, nil
	}
	res, err := s.filters.InsertOne(ctx, types.Document{
		types.FieldUsername:  username,
		types.FieldName:      name,
		types.FieldFilters:   filters,
		types.FieldUpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("insert filter: %w", err)
	}
	return res.InsertedID(), nil
}

// Filters lists the saved filters of username, or all of them when
// username is empty, most recently updated first.
func (s *Service) Filters(ctx context.Context, username string) ([]types.Document, error) {
	var f types.Filter
	if username != "" {
		f = types.Where(types.Eq(types.FieldUsername, username))
	}
	return s.filters.Find(f).Sort(types.Desc(types.FieldUpdatedAt)).All(ctx)
}
