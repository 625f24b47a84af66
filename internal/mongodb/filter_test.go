package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

func recordsTable(t *testing.T) *schema.Table {
	t.Helper()
	tbl, err := schema.Lookup(types.RecordsCollection)
	require.NoError(t, err)
	return tbl
}

func TestToQuery(t *testing.T) {
	tbl := recordsTable(t)
	oid := primitive.NewObjectID()
	day := time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter types.Filter
		want   bson.D
	}{
		{"empty", nil, bson.D{}},
		{"eq", types.Where(types.Eq("status", "Pendente")), bson.D{{Key: "status", Value: "Pendente"}}},
		{"eq null", types.Where(types.Eq("cpf", nil)), bson.D{{Key: "cpf", Value: nil}}},
		{"number in text field", types.Where(types.Eq("numero", 12346)), bson.D{{Key: "numero", Value: "12346"}}},
		{"integer in bool field", types.Where(types.Eq("editavel", 1)), bson.D{{Key: "editavel", Value: true}}},
		{"ne", types.Where(types.Ne("status", "EXCLUIDO")), bson.D{{Key: "status", Value: bson.D{{Key: "$ne", Value: "EXCLUIDO"}}}}},
		{
			"like folded escapes metacharacters",
			types.Where(types.Like("titulo", "a.b", true)),
			bson.D{{Key: "titulo", Value: bson.D{{Key: "$regex", Value: primitive.Regex{Pattern: `a\.b`, Options: "i"}}}}},
		},
		{
			"timestamp from display string",
			types.Where(types.Gte("data_criacao_dt", "2025-07-25")),
			bson.D{{Key: "data_criacao_dt", Value: bson.D{{Key: "$gte", Value: day}}}},
		},
		{
			"identity from hex",
			types.Where(types.Eq("id", oid.Hex())),
			bson.D{{Key: "_id", Value: oid}},
		},
		{
			"in",
			types.Where(types.In("categoria", "RGI", "RTD")),
			bson.D{{Key: "categoria", Value: bson.D{{Key: "$in", Value: bson.A{"RGI", "RTD"}}}}},
		},
		{
			"conjunction keeps repeated fields",
			types.Where(types.Gte("data_criacao", "2025-01-01"), types.Lte("data_criacao", "2025-12-31")),
			bson.D{{Key: "$and", Value: bson.A{
				bson.D{{Key: "data_criacao", Value: bson.D{{Key: "$gte", Value: "2025-01-01"}}}},
				bson.D{{Key: "data_criacao", Value: bson.D{{Key: "$lte", Value: "2025-12-31"}}}},
			}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toQuery(tbl, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToQueryErrors(t *testing.T) {
	tbl := recordsTable(t)
	_, err := toQuery(tbl, types.Where(types.Eq("nope", 1)))
	assert.ErrorIs(t, err, types.ErrUnknownField)

	_, err = toQuery(tbl, types.Where(types.Eq("_id", "123")))
	assert.ErrorIs(t, err, types.ErrInvalidID)

	_, err = toQuery(tbl, types.Where(types.Eq("_id", 5)))
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestToSort(t *testing.T) {
	tbl := recordsTable(t)
	got, err := toSort(tbl, []types.SortKey{types.Asc("categoria"), types.Desc("data_criacao_dt")})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "categoria", Value: 1}, {Key: "data_criacao_dt", Value: -1}, {Key: "_id", Value: 1}}, got)

	got, err = toSort(tbl, []types.SortKey{types.Desc("id")})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "_id", Value: -1}}, got)

	_, err = toSort(tbl, []types.SortKey{types.Asc("nope")})
	assert.ErrorIs(t, err, types.ErrUnknownField)
}

func TestToPipeline(t *testing.T) {
	c := newCollection(NewBackend(), recordsTable(t), nil)

	_, err := c.toPipeline(types.Update{})
	assert.ErrorIs(t, err, types.ErrInvalidUpdate)

	p, err := c.toPipeline(types.Update{
		Set:   map[string]any{"status": "Concluído", "data_concluido_dt": ""},
		Unset: []string{"cpf"},
	})
	require.NoError(t, err)
	require.Len(t, p, 2)
	assert.Equal(t, bson.D{{Key: "$set", Value: bson.D{
		{Key: "data_concluido_dt", Value: bson.D{{Key: "$literal", Value: nil}}},
		{Key: "status", Value: bson.D{{Key: "$literal", Value: "Concluído"}}},
	}}}, p[0])
	assert.Equal(t, bson.D{{Key: "$unset", Value: bson.A{"cpf"}}}, p[1])

	_, err = c.toPipeline(types.Update{Push: map[string]any{"status": 1}})
	assert.ErrorIs(t, err, types.ErrInvalidUpdate)

	_, err = c.toPipeline(types.Update{Unset: []string{"_id"}})
	assert.ErrorIs(t, err, types.ErrInvalidUpdate)
}

func TestNormalize(t *testing.T) {
	when := time.Date(2025, 7, 25, 10, 0, 0, 0, time.UTC)
	raw := bson.M{
		"_id":   primitive.NewObjectID(),
		"when":  primitive.NewDateTimeFromTime(when),
		"n":     int32(3),
		"list":  primitive.A{int32(1), bson.M{"k": "v"}},
		"inner": bson.D{{Key: "a", Value: primitive.NewDateTimeFromTime(when)}},
	}
	d := toDocument(raw)
	assert.Equal(t, when, d["when"])
	assert.Equal(t, int64(3), d["n"])
	assert.Equal(t, []any{int64(1), map[string]any{"k": "v"}}, d["list"])
	assert.Equal(t, map[string]any{"a": when}, d["inner"])
	assert.Equal(t, raw["_id"].(primitive.ObjectID).Hex(), d["id"])
}
