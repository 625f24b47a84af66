package protocol

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/credential"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// CreateUser stores a user with a hashed password.
func (s *Service) CreateUser(ctx context.Context, username, password, role string) (any, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, types.FieldUsername)
	}
	if role != types.RoleAdmin && role != types.RoleClerk {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	existing, err := s.users.FindOne(ctx, types.Where(types.Eq(types.FieldUsername, username)), types.Projection{types.FieldUsername: 1})
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
	}
	hash, err := credential.Hash(password)
	if err != nil {
		return nil, err
	}
	res, err := s.users.InsertOne(ctx, types.Document{
		types.FieldUsername: username,
		types.FieldPassword: hash,
		types.FieldRole:     role,
		types.FieldBlocked:  false,
	})
	if errors.Is(err, types.ErrDuplicateKey) {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	s.log.Info().Str("user", username).Str("role", role).Msg("user created")
	return res.InsertedID(), nil
}

// EnsureAdmin creates an administrator when the users collection is empty.
// It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.users.CountDocuments(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.CreateUser(ctx, username, password, types.RoleAdmin); err != nil {
		return false, err
	}
	s.log.Warn().Str("user", username).Msg("default administrator created, change its password")
	return true, nil
}

// SetBlocked blocks or unblocks a user.
func (s *Service) SetBlocked(ctx context.Context, username string, blocked bool) error {
	res, err := s.users.UpdateOne(ctx,
		types.Where(types.Eq(types.FieldUsername, username)),
		types.SetFields(map[string]any{types.FieldBlocked: blocked}))
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.Matched == 0 {
		return types.ErrNotFound
	}
	s.log.Info().Str("user", username).Bool("blocked", blocked).Msg("user block state changed")
	return nil
}

// SetPassword replaces a user's password.
func (s *Service) SetPassword(ctx context.Context, username, password string) error {
	hash, err := credential.Hash(password)
	if err != nil {
		return err
	}
	res, err := s.users.UpdateOne(ctx,
		types.Where(types.Eq(types.FieldUsername, username)),
		types.SetFields(map[string]any{types.FieldPassword: hash}))
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.Matched == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Authenticate checks a username and password and returns the user without
// its password hash. Legacy hashes are upgraded on success.
func (s *Service) Authenticate(ctx context.Context, username, password string) (types.Document, error) {
	u, err := s.users.FindOne(ctx, types.Where(types.Eq(types.FieldUsername, username)), nil)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if u == nil {
		return nil, ErrBadCredentials
	}
	if u.Bool(types.FieldBlocked) {
		s.log.Warn().Str("user", username).Msg("login attempt by blocked user")
		return nil, ErrUserBlocked
	}
	stored := u.String(types.FieldPassword)
	if !credential.Verify(password, stored) {
		s.log.Warn().Str("user", username).Msg("login failed")
		return nil, ErrBadCredentials
	}
	if credential.NeedsRehash(stored) {
		if err := s.SetPassword(ctx, username, password); err != nil {
			s.log.Error().Err(err).Str("user", username).Msg("password rehash failed")
		}
	}
	delete(u, types.FieldPassword)
	return u, nil
}

// RenameUser changes a username. Records keep the names they were stamped
// with.
func (s *Service) RenameUser(ctx context.Context, from, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, types.FieldUsername)
	}
	if to != from {
		existing, err := s.users.FindOne(ctx, types.Where(types.Eq(types.FieldUsername, to)), types.Projection{types.FieldUsername: 1})
		if err != nil {
			return fmt.Errorf("looking up user: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", ErrUserExists, to)
		}
	}
	res, err := s.users.UpdateOne(ctx,
		types.Where(types.Eq(types.FieldUsername, from)),
		types.SetFields(map[string]any{types.FieldUsername: to}))
	if errors.Is(err, types.ErrDuplicateKey) {
		return fmt.Errorf("%w: %s", ErrUserExists, to)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.Matched == 0 {
		return types.ErrNotFound
	}
	s.log.Info().Str("user", from).Str("renamed_to", to).Msg("user renamed")
	return nil
}

// DeleteUser removes a user. by names the user performing the deletion and
// may not be the one removed.
func (s *Service) DeleteUser(ctx context.Context, username, by string) error {
	if username == by {
		return ErrSelfDelete
	}
	res, err := s.users.DeleteOne(ctx, types.Where(types.Eq(types.FieldUsername, username)))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.Count == 0 {
		return types.ErrNotFound
	}
	s.log.Info().Str("user", username).Str("by", by).Msg("user deleted")
	return nil
}
