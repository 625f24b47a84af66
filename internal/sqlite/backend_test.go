package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/storetest"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

func openTemp(t *testing.T) (*Backend, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "protocolos.db")
	b := NewBackend()
	require.NoError(t, b.Attach(context.Background(), types.Config{Engine: types.EngineSQLite, Target: path}))
	t.Cleanup(func() { b.Detach(context.Background()) })
	return b, path
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Database {
		b, _ := openTemp(t)
		return b
	})
}

func TestContractInMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Database {
		b := NewBackend()
		require.NoError(t, b.Attach(context.Background(), types.Config{Engine: types.EngineSQLite, Target: MemoryTarget}))
		t.Cleanup(func() { b.Detach(context.Background()) })
		return b
	})
}

func TestBackend_Attach(t *testing.T) {
	ctx := context.Background()
	b, path := openTemp(t)

	_, err := os.Stat(path)
	assert.NoError(t, err, "database file and its directory are created")

	err = b.Attach(ctx, types.Config{Engine: types.EngineSQLite, Target: path})
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
	assert.Equal(t, types.EngineSQLite, b.Engine())
}

func TestBackend_AttachRejectsConfig(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		config  types.Config
		wantErr error
	}{
		{"empty engine", types.Config{Target: "x.db"}, types.ErrEngineEmpty},
		{"empty target", types.Config{Engine: types.EngineSQLite}, types.ErrTargetEmpty},
		{"other engine", types.Config{Engine: types.EngineMongoDB, Target: "mongodb://localhost", Database: "db"}, types.ErrEngineUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBackend().Attach(ctx, tt.config)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBackend_Detach(t *testing.T) {
	ctx := context.Background()
	b, _ := openTemp(t)
	c, err := b.Collection(types.RecordsCollection)
	require.NoError(t, err)

	require.NoError(t, b.Detach(ctx))
	assert.NoError(t, b.Detach(ctx), "second Detach should not error")

	_, err = b.Collection(types.RecordsCollection)
	assert.ErrorIs(t, err, types.ErrDetached)

	_, err = c.CountDocuments(ctx, nil)
	assert.ErrorIs(t, err, types.ErrDetached)
	_, err = c.Find(nil).All(ctx)
	assert.ErrorIs(t, err, types.ErrDetached)
}

func TestBackend_Collection(t *testing.T) {
	b, _ := openTemp(t)
	for _, name := range types.StandardCollectionNames {
		c, err := b.Collection(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
	_, err := b.Collection("arquivos")
	assert.ErrorIs(t, err, types.ErrCollectionNotFound)
}

func TestBackend_ReattachKeepsData(t *testing.T) {
	ctx := context.Background()
	b, path := openTemp(t)
	c, err := b.Collection(types.RecordsCollection)
	require.NoError(t, err)
	_, err = c.InsertOne(ctx, storetest.Record("12345", "RGI", "2025-01-01"))
	require.NoError(t, err)

	require.NoError(t, b.Setup(ctx), "setup is idempotent")
	require.NoError(t, b.Detach(ctx))

	require.NoError(t, b.Attach(ctx, types.Config{Engine: types.EngineSQLite, Target: path}))
	c, err = b.Collection(types.RecordsCollection)
	require.NoError(t, err)
	n, err := c.CountDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSchemaIndexes(t *testing.T) {
	ctx := context.Background()
	b, _ := openTemp(t)

	rows, err := b.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'protocolos'`)
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())

	for _, want := range []string{
		"ix_protocolos_numero",
		"ix_protocolos_status",
		"ix_protocolos_categoria",
		"ix_protocolos_data_criacao_dt",
		"ix_protocolos_data_concluido_dt",
		"ix_protocolos_cat_status_dt",
		"ix_protocolos_status_dt",
		"ix_protocolos_cat_dt",
	} {
		assert.Contains(t, names, want)
	}
}

func TestColumnDefaultsInDDL(t *testing.T) {
	ctx := context.Background()
	b, _ := openTemp(t)

	// Rows written outside the collection facade still get the declared
	// defaults from the table definition.
	res, err := b.db.ExecContext(ctx, `INSERT INTO protocolos
		(numero, nome_requerente, titulo, data_criacao, data_criacao_dt, status, categoria, responsavel)
		VALUES ('22222', 'Ana', 'Escritura', '2025-01-01', '2025-01-01T00:00:00.000000000Z', 'Pendente', 'RGI', 'joana')`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	c, err := b.Collection(types.RecordsCollection)
	require.NoError(t, err)
	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, true, got[types.FieldEditable])
	assert.Equal(t, false, got[types.FieldNoTaxID])
	assert.Equal(t, "", got[types.FieldContact])
	assert.Equal(t, []any{}, got[types.FieldHistory])
	assert.Nil(t, got[types.FieldTaxID])
}

func TestRequiredTwinMissing(t *testing.T) {
	ctx := context.Background()
	b, _ := openTemp(t)
	c, err := b.Collection(types.RecordsCollection)
	require.NoError(t, err)

	d := storetest.Record("33333", "RGI", "")
	_, err = c.InsertOne(ctx, d)
	assert.ErrorIs(t, err, types.ErrInvalidValue, "creation timestamp is NOT NULL")
}

func TestUnicodeCaseInsensitiveLike(t *testing.T) {
	ctx := context.Background()
	b, _ := openTemp(t)
	c, err := b.Collection(types.RecordsCollection)
	require.NoError(t, err)

	d := storetest.Record("44444", "RGI", "2025-01-01")
	d[types.FieldRequester] = "Conceição Araújo"
	_, err = c.InsertOne(ctx, d)
	require.NoError(t, err)

	n, err := c.CountDocuments(ctx, types.Where(types.Like(types.FieldRequester, "CONCEIÇÃO", true)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.CountDocuments(ctx, types.Where(types.Like(types.FieldRequester, "50%", true)))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "like wildcards are literal")
}

func TestUpdateOneRejectsEmptyAndNonList(t *testing.T) {
	ctx := context.Background()
	b, _ := openTemp(t)
	c, err := b.Collection(types.RecordsCollection)
	require.NoError(t, err)
	_, err = c.InsertOne(ctx, storetest.Record("55555", "RGI", "2025-01-01"))
	require.NoError(t, err)

	_, err = c.UpdateOne(ctx, nil, types.Update{})
	assert.ErrorIs(t, err, types.ErrInvalidUpdate)

	_, err = c.UpdateOne(ctx, nil, types.Update{Push: map[string]any{types.FieldStatus: "x"}})
	assert.ErrorIs(t, err, types.ErrInvalidUpdate)

	_, err = c.UpdateOne(ctx, nil, types.Update{Unset: []string{types.FieldTitle}})
	assert.ErrorIs(t, err, types.ErrInvalidValue, "NOT NULL columns cannot be cleared")
}
