package protocol

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

func TestNotifications(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	id, err := s.Notify(ctx, "ana", "Protocolo 12345 atrasado", "")
	require.NoError(t, err)
	_, err = s.Notify(ctx, "bia", "Outro aviso", "alerta")
	require.NoError(t, err)
	_, err = s.Notify(ctx, "ana", "  ", "")
	assert.ErrorIs(t, err, ErrMissingField)

	list, err := s.Notifications(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "info", list[0][types.FieldRole])
	assert.Equal(t, false, list[0][types.FieldRead])
	assert.Equal(t, "2025-03-04 10:00:00 UTC", list[0][types.FieldCreatedAt])

	all, err := s.Notifications(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.MarkRead(ctx, id))
	got, err := s.Notifications(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, true, got[0][types.FieldRead])

	assert.ErrorIs(t, s.MarkRead(ctx, int64(9999)), types.ErrNotFound)
}

func TestSaveFilterReplacesByName(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	first, err := s.SaveFilter(ctx, "ana", "pendentes", map[string]any{"status": "Pendente"})
	require.NoError(t, err)
	second, err := s.SaveFilter(ctx, "ana", "pendentes", map[string]any{"status": "Pendente", "categoria": "RGI"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = s.SaveFilter(ctx, "ana", "", nil)
	assert.ErrorIs(t, err, ErrMissingField)

	list, err := s.Filters(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, map[string]any{"status": "Pendente", "categoria": "RGI"}, list[0][types.FieldFilters])
	updated, ok := list[0][types.FieldUpdatedAt].(time.Time)
	require.True(t, ok)
	assert.True(t, updated.Equal(fixedNow))
}
