package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

func TestLookup(t *testing.T) {
	for _, name := range types.StandardCollectionNames {
		tbl, err := Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, tbl.Name)
	}

	_, err := Lookup("arquivos")
	assert.ErrorIs(t, err, types.ErrCollectionNotFound)
}

func TestAllFollowsStandardOrder(t *testing.T) {
	all := All()
	require.Len(t, all, len(types.StandardCollectionNames))
	for i, tbl := range all {
		assert.Equal(t, types.StandardCollectionNames[i], tbl.Name)
	}
}

func TestRecordsTable(t *testing.T) {
	tbl, err := Lookup(types.RecordsCollection)
	require.NoError(t, err)

	code, ok := tbl.Column("numero")
	require.True(t, ok)
	assert.True(t, code.Unique)
	assert.Equal(t, 10, code.Size)

	created, ok := tbl.Column("data_criacao_dt")
	require.True(t, ok)
	assert.Equal(t, Timestamp, created.Kind)
	assert.True(t, created.NotNull)

	assert.Len(t, tbl.Twins, 9)
	assert.True(t, tbl.Twins[0].Required)
	for _, tw := range tbl.Twins[1:] {
		assert.False(t, tw.Required, tw.Timestamp)
	}

	for _, p := range []string{"exig1", "exig2", "exig3"} {
		assert.True(t, tbl.Has(p+"_data_reapresentacao_dt"))
	}
	assert.True(t, tbl.Has("_id"))
	assert.True(t, tbl.Has("id"))
	assert.ErrorIs(t, tbl.Check("bogus"), types.ErrUnknownField)
}

func TestAllIndexes(t *testing.T) {
	tbl, err := Lookup(types.RecordsCollection)
	require.NoError(t, err)

	names := map[string]Index{}
	for _, ix := range tbl.AllIndexes() {
		_, dup := names[ix.Name]
		assert.False(t, dup, "duplicate index %s", ix.Name)
		names[ix.Name] = ix
	}

	assert.True(t, names["ix_protocolos_numero"].Unique)
	assert.Contains(t, names, "ix_protocolos_status")
	assert.Contains(t, names, "ix_protocolos_data_retirada_dt")
	compound := names["ix_protocolos_cat_status_dt"]
	require.Len(t, compound.Columns, 3)
	assert.Equal(t, "categoria", compound.Columns[0].Name)
	assert.True(t, compound.Columns[2].Desc)
}

func TestNewTablePanicsOnBadTwin(t *testing.T) {
	assert.Panics(t, func() {
		newTable("x", []Column{{Name: "a", Kind: Text}}, nil, []DateTwin{{Display: "a", Timestamp: "b"}})
	})
	assert.Panics(t, func() {
		newTable("x", []Column{{Name: "a"}, {Name: "a"}}, nil, nil)
	})
}
