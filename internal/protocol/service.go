// Package protocol implements the record lifecycle on top of the
// engine-agnostic collections: creation with requester propagation, audited
// edits, soft and hard deletion, users, categories, notifications and saved
// filters.
package protocol

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Service errors.
var (
	ErrInvalidCode     = errors.New("record code must have 5 to 10 digits")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("invalid date, use YYYY-MM-DD")
	ErrIncompletePair  = errors.New("name and date must be filled together")
	ErrNotEditable     = errors.New("record is locked for editing")
	ErrForbidden       = errors.New("operation requires an administrator")
	ErrUserExists      = errors.New("user already exists")
	ErrUserBlocked     = errors.New("user is blocked")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrMissingField    = errors.New("required field is empty")
	ErrSelfDelete      = errors.New("users cannot delete themselves")
	ErrCategoryExists  = errors.New("category already exists")
)

// Service holds the six collections of an attached database.
type Service struct {
	records       types.Collection
	users         types.Collection
	categories    types.Collection
	notifications types.Collection
	filters       types.Collection
	deleted       types.Collection
	log           zerolog.Logger
	now           document.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l.With().Str("component", "protocol").Logger() }
}

// WithClock overrides the clock used for change stamps.
func WithClock(c document.Clock) Option {
	return func(s *Service) { s.now = c }
}

// New binds a Service to db, which must be attached.
func New(db types.Database, opts ...Option) (*Service, error) {
	s := &Service{log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	targets := map[string]*types.Collection{
		types.RecordsCollection:        &s.records,
		types.UsersCollection:          &s.users,
		types.CategoriesCollection:     &s.categories,
		types.NotificationsCollection:  &s.notifications,
		types.SavedFiltersCollection:   &s.filters,
		types.DeletedRecordsCollection: &s.deleted,
	}
	for name, dst := range targets {
		c, err := db.Collection(name)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		*dst = c
	}
	return s, nil
}

// stamp returns the current time in the display form stored in
// ultima_alteracao_data and history entries.
func (s *Service) stamp() string {
	return s.now().UTC().Format(document.StampLayout)
}

func (s *Service) isAdmin(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, nil
	}
	u, err := s.users.FindOne(ctx, types.Where(types.Eq(types.FieldUsername, username)), nil)
	if err != nil {
		return false, fmt.Errorf("looking up user: %w", err)
	}
	return u != nil && u.String(types.FieldRole) == types.RoleAdmin, nil
}

// requireAdmin returns ErrForbidden unless username is an administrator.
func (s *Service) requireAdmin(ctx context.Context, username string) error {
	admin, err := s.isAdmin(ctx, username)
	if err != nil {
		return err
	}
	if !admin {
		return ErrForbidden
	}
	return nil
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseDay parses a YYYY-MM-DD date as UTC midnight.
func parseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(document.DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// text renders a field value for change tracking.
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	}
	return fmt.Sprint(v)
}
