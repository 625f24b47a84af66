package mongodb

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/storetest"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// mongoURLEnv names the server the integration tests run against. They are
// skipped when it is unset.
const mongoURLEnv = "PROTOCOLOS_TEST_MONGO_URL"

func openTest(t *testing.T) *Backend {
	t.Helper()
	url := os.Getenv(mongoURLEnv)
	if url == "" {
		t.Skipf("%s not set", mongoURLEnv)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b := NewBackend()
	name := "protocolos_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	require.NoError(t, b.Attach(ctx, types.Config{Engine: types.EngineMongoDB, Target: url, Database: name}))
	t.Cleanup(func() {
		ctx := context.Background()
		_ = b.Drop(ctx)
		_ = b.Detach(ctx)
	})
	return b
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Database {
		return openTest(t)
	})
}

func TestBackend_Lifecycle(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)
	assert.Equal(t, types.EngineMongoDB, b.Engine())

	err := b.Attach(ctx, b.config)
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
	require.NoError(t, b.Setup(ctx), "index setup is idempotent")

	_, err = b.Collection("arquivos")
	assert.ErrorIs(t, err, types.ErrCollectionNotFound)
}

func TestBackend_AttachRejectsConfig(t *testing.T) {
	ctx := context.Background()
	err := NewBackend().Attach(ctx, types.Config{Engine: types.EngineMongoDB, Target: "mongodb://localhost:27017"})
	assert.ErrorIs(t, err, types.ErrDatabaseEmpty)

	err = NewBackend().Attach(ctx, types.Config{Engine: types.EngineSQLite, Target: "x.db"})
	assert.ErrorIs(t, err, types.ErrEngineUnknown)
}

func TestBackend_DetachedCollection(t *testing.T) {
	b := NewBackend()
	_, err := b.Collection(types.RecordsCollection)
	assert.ErrorIs(t, err, types.ErrDetached)
	assert.NoError(t, b.Detach(context.Background()))
	assert.ErrorIs(t, b.Setup(context.Background()), types.ErrDetached)
}

func TestPushOntoNonList(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)
	c, err := b.Collection(types.RecordsCollection)
	require.NoError(t, err)

	d := storetest.Record("12345", "RGI", "2025-01-01")
	d[types.FieldHistory] = "legado"
	_, err = c.InsertOne(ctx, d)
	require.NoError(t, err)

	entry := map[string]any{"acao": "editar", "nota": "$status"}
	_, err = c.UpdateOne(ctx, types.Where(types.Eq(types.FieldCode, "12345")), types.Update{
		Push: map[string]any{types.FieldHistory: entry},
	})
	require.NoError(t, err)

	got, err := c.FindOne(ctx, nil, types.Projection{types.FieldHistory: 1})
	require.NoError(t, err)
	assert.Equal(t, []any{entry}, got[types.FieldHistory])
}
