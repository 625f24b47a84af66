// Package storetest holds the behavioural suite every types.Database
// implementation must pass. Engine packages call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Opener returns an attached, empty database. It registers its own cleanup.
type Opener func(t *testing.T) types.Database

// Record returns a complete record document with the given code, category
// and creation date.
func Record(code, category, created string) types.Document {
	return types.Document{
		types.FieldCode:        code,
		types.FieldRequester:   "Requerente " + code,
		types.FieldNoTaxID:     false,
		types.FieldTaxID:       "123.456.789-09",
		types.FieldTitle:       "Escritura " + code,
		types.FieldCreatedAt:   created,
		types.FieldStatus:      types.StatusPending,
		types.FieldCategory:    category,
		types.FieldResponsible: "joana",
		types.FieldEditable:    true,
	}
}

// Run executes the suite against databases produced by open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, db types.Database)
	}{
		{"UniqueCode", testUniqueCode},
		{"InsertStripsIdentity", testInsertStripsIdentity},
		{"InsertManyEmpty", testInsertManyEmpty},
		{"InsertManyAtomic", testInsertManyAtomic},
		{"IdentityKeys", testIdentityKeys},
		{"Get", testGet},
		{"DateTwinRoundTrip", testDateTwinRoundTrip},
		{"EmptyTimestampIsNull", testEmptyTimestampIsNull},
		{"FilterOperators", testFilterOperators},
		{"UnknownField", testUnknownField},
		{"Projection", testProjection},
		{"CompoundSort", testCompoundSort},
		{"SkipLimit", testSkipLimit},
		{"CursorCaches", testCursorCaches},
		{"UpdateOne", testUpdateOne},
		{"UpdateManySetOnly", testUpdateManySetOnly},
		{"Delete", testDelete},
		{"CountAndDistinct", testCountAndDistinct},
		{"CreateIndex", testCreateIndex},
		{"OpaqueCredential", testOpaqueCredential},
		{"NumbersInTextFields", testNumbersInTextFields},
		{"ColumnDefaults", testColumnDefaults},
		{"NestedTimes", testNestedTimes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func records(t *testing.T, db types.Database) types.Collection {
	t.Helper()
	c, err := db.Collection(types.RecordsCollection)
	require.NoError(t, err)
	return c
}

func insert(t *testing.T, c types.Collection, docs ...types.Document) []any {
	t.Helper()
	res, err := c.InsertMany(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, res.IDs, len(docs))
	return res.IDs
}

func codes(docs []types.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.String(types.FieldCode)
	}
	return out
}

func testUniqueCode(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	_, err := c.InsertOne(ctx, Record("12345", "RGI", "2025-01-01"))
	require.NoError(t, err)

	_, err = c.InsertOne(ctx, Record("12345", "RTD", "2025-01-02"))
	assert.ErrorIs(t, err, types.ErrDuplicateKey)

	n, err := c.CountDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func testInsertStripsIdentity(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	d := Record("20001", "RGI", "2025-01-01")
	d[types.IdentityKey] = "507f1f77bcf86cd799439011"
	d[types.IDKey] = "999"

	res, err := c.InsertOne(ctx, d)
	require.NoError(t, err)
	require.NotNil(t, res.InsertedID())
	assert.NotEqual(t, "507f1f77bcf86cd799439011", fmt.Sprint(res.InsertedID()))

	got, err := c.Get(ctx, res.InsertedID())
	require.NoError(t, err)
	assert.Equal(t, "20001", got.String(types.FieldCode))
}

func testInsertManyEmpty(t *testing.T, db types.Database) {
	res, err := records(t, db).InsertMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.IDs)
	assert.Nil(t, res.InsertedID())
}

func testInsertManyAtomic(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	insert(t, c, Record("30001", "RGI", "2025-01-01"))

	_, err := c.InsertMany(ctx, []types.Document{
		Record("30002", "RGI", "2025-01-02"),
		Record("30001", "RGI", "2025-01-03"),
	})
	assert.ErrorIs(t, err, types.ErrDuplicateKey)

	// SQLite batches are one transaction. MongoDB keeps the documents
	// written before the failing one.
	got, err := c.FindOne(ctx, types.Where(types.Eq(types.FieldCode, "30002")), nil)
	require.NoError(t, err)
	if db.Engine() == types.EngineSQLite {
		assert.Nil(t, got)
	}
}

func testIdentityKeys(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	ids := insert(t, c, Record("40001", "RGI", "2025-01-01"))

	got, err := c.FindOne(ctx, types.Where(types.Eq(types.FieldCode, "40001")), nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ids[0], got[types.IdentityKey])
	idStr, ok := got[types.IDKey].(string)
	require.True(t, ok)
	assert.NotEmpty(t, idStr)

	byString, err := c.FindOne(ctx, types.Where(types.Eq(types.IDKey, idStr)), nil)
	require.NoError(t, err)
	require.NotNil(t, byString)
	assert.Equal(t, "40001", byString.String(types.FieldCode))

	byRaw, err := c.FindOne(ctx, types.Where(types.Eq(types.IdentityKey, ids[0])), nil)
	require.NoError(t, err)
	require.NotNil(t, byRaw)
	assert.Equal(t, idStr, byRaw[types.IDKey])
}

func testGet(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	ids := insert(t, c, Record("50001", "RGI", "2025-01-01"))

	got, err := c.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "50001", got.String(types.FieldCode))

	_, err = c.DeleteOne(ctx, types.Where(types.Eq(types.IdentityKey, ids[0])))
	require.NoError(t, err)
	_, err = c.Get(ctx, ids[0])
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = c.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, types.ErrInvalidID)

	missing, err := c.FindOne(ctx, types.Where(types.Eq(types.FieldCode, "00000")), nil)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func testDateTwinRoundTrip(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	d := Record("60001", "RGI", "2025-07-25")
	d["data_retirada"] = "2025-07-30 09:15:00"
	insert(t, c, d)

	got, err := c.FindOne(ctx, types.Where(types.Eq(types.FieldCode, "60001")), nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC), got[types.FieldCreatedAtTime])
	assert.Equal(t, time.Date(2025, 7, 30, 9, 15, 0, 0, time.UTC), got["data_retirada_dt"])
	assert.Nil(t, got["data_concluido_dt"])
}

func testEmptyTimestampIsNull(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	d := Record("60002", "RGI", "2025-07-25")
	d["data_retirada"] = ""
	d["data_retirada_dt"] = ""
	d["exig1_data_retirada_dt"] = ""
	insert(t, c, d)

	got, err := c.FindOne(ctx, types.Where(types.Eq(types.FieldCode, "60002")), nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got["data_retirada_dt"])
	assert.Nil(t, got["exig1_data_retirada_dt"])

	n, err := c.CountDocuments(ctx, types.Where(types.Eq("data_retirada_dt", nil)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func testFilterOperators(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	a := Record("70001", "RGI", "2025-01-10")
	a[types.FieldRequester] = "Ana Souza"
	b := Record("70002", "RTD", "2025-02-10")
	b[types.FieldRequester] = "MARIANA Lima"
	b[types.FieldStatus] = types.StatusCompleted
	cc := Record("70003", "NOTAS", "2025-03-10")
	cc[types.FieldRequester] = "Bruno"
	cc[types.FieldTaxID] = nil
	cc[types.FieldNoTaxID] = true
	insert(t, c, a, b, cc)

	tests := []struct {
		name   string
		filter types.Filter
		want   []string
	}{
		{"empty filter", nil, []string{"70001", "70002", "70003"}},
		{"eq", types.Where(types.Eq(types.FieldCategory, "RTD")), []string{"70002"}},
		{"eq null", types.Where(types.Eq(types.FieldTaxID, nil)), []string{"70003"}},
		{"eq bool", types.Where(types.Eq(types.FieldNoTaxID, true)), []string{"70003"}},
		{"ne", types.Where(types.Ne(types.FieldStatus, types.StatusCompleted)), []string{"70001", "70003"}},
		{"ne includes null", types.Where(types.Ne(types.FieldTaxID, "123.456.789-09")), []string{"70003"}},
		{"like folded", types.Where(types.Like(types.FieldRequester, "ana", true)), []string{"70001", "70002"}},
		{"like exact case", types.Where(types.Like(types.FieldRequester, "ANA", false)), []string{"70002"}},
		{"like regex metacharacters are literal", types.Where(types.Like(types.FieldRequester, "A.a", false)), nil},
		{"range", types.Where(types.Gte(types.FieldCreatedAt, "2025-02-01"), types.Lte(types.FieldCreatedAt, "2025-02-28")), []string{"70002"}},
		{"strict range", types.Where(types.Gt(types.FieldCreatedAt, "2025-01-10"), types.Lt(types.FieldCreatedAt, "2025-03-10")), []string{"70002"}},
		{"timestamp range", types.Where(types.Gte(types.FieldCreatedAtTime, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))), []string{"70002", "70003"}},
		{"in", types.Where(types.In(types.FieldCategory, "RGI", "NOTAS")), []string{"70001", "70003"}},
		{"empty in", types.Where(types.In(types.FieldCategory)), nil},
		{"and", types.Where(types.Eq(types.FieldStatus, types.StatusPending), types.Like(types.FieldRequester, "bru", true)), []string{"70003"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := c.Find(tt.filter).All(ctx)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, docs)
				return
			}
			assert.Equal(t, tt.want, codes(docs))
		})
	}

	parsed, err := types.ParseFilter(map[string]any{
		types.FieldRequester: map[string]any{"$regex": "souza", "$options": "i"},
	})
	require.NoError(t, err)
	docs, err := c.Find(parsed).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"70001"}, codes(docs))
}

func testUnknownField(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	insert(t, c, Record("80001", "RGI", "2025-01-01"))

	_, err := c.Find(types.Where(types.Eq("nao_existe", 1))).All(ctx)
	assert.ErrorIs(t, err, types.ErrUnknownField)

	_, err = c.Find(nil).Sort(types.Asc("nao_existe")).All(ctx)
	assert.ErrorIs(t, err, types.ErrUnknownField)

	d := Record("80002", "RGI", "2025-01-01")
	d["nao_existe"] = true
	_, err = c.InsertOne(ctx, d)
	assert.ErrorIs(t, err, types.ErrUnknownField)

	_, err = c.Distinct(ctx, "nao_existe")
	assert.ErrorIs(t, err, types.ErrUnknownField)
}

func testProjection(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	insert(t, c, Record("90001", "RGI", "2025-01-01"))

	got, err := c.FindOne(ctx, nil, types.Projection{types.FieldRequester: 1})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got, 3)
	assert.Contains(t, got, types.IdentityKey)
	assert.Contains(t, got, types.IDKey)
	assert.Equal(t, "Requerente 90001", got[types.FieldRequester])

	got, err = c.FindOne(ctx, nil, types.Projection{types.FieldRequester: 1, types.IdentityKey: 0})
	require.NoError(t, err)
	assert.Equal(t, types.Document{types.FieldRequester: "Requerente 90001"}, got)

	docs, err := c.Find(nil).Project(types.Projection{types.FieldStatus: 0}).All(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NotContains(t, docs[0], types.FieldStatus)
	assert.Contains(t, docs[0], types.FieldCode)
	assert.Contains(t, docs[0], types.FieldCategory)
	assert.Contains(t, docs[0], types.IDKey)
}

func testCompoundSort(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	insert(t, c,
		Record("10001", "A", "2025-03-01"),
		Record("10002", "A", "2025-02-01"),
		Record("10003", "B", "2025-01-01"),
	)
	// Insert out of order so the default identity order differs.
	insert(t, c, Record("10004", "A", "2025-04-01"))

	docs, err := c.Find(nil).Sort(types.Asc(types.FieldCategory), types.Desc(types.FieldCreatedAtTime)).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"10004", "10001", "10002", "10003"}, codes(docs))

	docs, err = c.Find(nil).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"10001", "10002", "10003", "10004"}, codes(docs))

	docs, err = c.Find(nil).Sort(types.Desc(types.FieldCode)).Sort(types.Asc(types.FieldCreatedAt)).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"10003", "10002", "10001", "10004"}, codes(docs), "a later Sort replaces the earlier one")
}

func testSkipLimit(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	for i := 1; i <= 5; i++ {
		insert(t, c, Record(fmt.Sprintf("1100%d", i), "RGI", fmt.Sprintf("2025-01-0%d", i)))
	}

	docs, err := c.Find(nil).Limit(2).Skip(1).Sort(types.Asc(types.FieldCode)).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"11002", "11003"}, codes(docs))

	docs, err = c.Find(nil).Skip(3).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"11004", "11005"}, codes(docs))

	docs, err = c.Find(nil).Limit(0).All(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 5)
}

func testCursorCaches(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	insert(t, c, Record("12001", "RGI", "2025-01-01"))

	cur := c.Find(nil)
	first, err := cur.All(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	insert(t, c, Record("12002", "RGI", "2025-01-02"))
	second, err := cur.Limit(5).All(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 1, "materialized cursor must not re-run the query")

	fresh, err := c.Find(nil).All(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func testUpdateOne(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	insert(t, c, Record("13001", "RGI", "2025-01-01"), Record("13002", "RGI", "2025-01-01"))

	entry := map[string]any{"acao": "editar", "usuario": "joana"}
	res, err := c.UpdateOne(ctx, types.Where(types.Eq(types.FieldCategory, "RGI")), types.Update{
		Set:   map[string]any{types.FieldStatus: types.StatusInProgress, "data_concluido_dt": ""},
		Push:  map[string]any{types.FieldHistory: entry},
		Unset: []string{types.FieldTaxID},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Matched)

	got, err := c.FindOne(ctx, types.Where(types.Eq(types.FieldCode, "13001")), nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, got[types.FieldStatus])
	assert.Nil(t, got[types.FieldTaxID])
	assert.Nil(t, got["data_concluido_dt"])
	assert.Equal(t, []any{entry}, got[types.FieldHistory])

	other, err := c.FindOne(ctx, types.Where(types.Eq(types.FieldCode, "13002")), nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, other[types.FieldStatus], "only the first match changes")

	second := map[string]any{"acao": "excluir", "usuario": "admin"}
	_, err = c.UpdateOne(ctx, types.Where(types.Eq(types.FieldCode, "13001")), types.Update{
		Push: map[string]any{types.FieldHistory: second},
	})
	require.NoError(t, err)
	got, err = c.FindOne(ctx, types.Where(types.Eq(types.FieldCode, "13001")), types.Projection{types.FieldHistory: 1})
	require.NoError(t, err)
	assert.Equal(t, []any{entry, second}, got[types.FieldHistory])

	res, err = c.UpdateOne(ctx, types.Where(types.Eq(types.FieldCode, "99999")), types.SetFields(map[string]any{types.FieldStatus: types.StatusDeleted}))
	require.NoError(t, err)
	assert.Equal(t, types.MutationResult{}, res)

	_, err = c.UpdateOne(ctx, types.Where(types.Eq(types.FieldCode, "13002")), types.SetFields(map[string]any{types.FieldCode: "13001"}))
	assert.ErrorIs(t, err, types.ErrDuplicateKey)

	_, err = c.UpdateOne(ctx, types.Where(types.Eq(types.FieldCode, "13002")), types.SetFields(map[string]any{"nao_existe": 1}))
	assert.ErrorIs(t, err, types.ErrUnknownField)
}

func testUpdateManySetOnly(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	insert(t, c,
		Record("14001", "RGI", "2025-01-01"),
		Record("14002", "RGI", "2025-01-01"),
		Record("14003", "RTD", "2025-01-01"),
	)

	res, err := c.UpdateMany(ctx, types.Where(types.Eq(types.FieldCategory, "RGI")), types.Update{
		Push: map[string]any{types.FieldHistory: map[string]any{"acao": "editar"}},
	})
	require.NoError(t, err)
	assert.Equal(t, types.MutationResult{}, res)
	got, err := c.FindOne(ctx, types.Where(types.Eq(types.FieldCode, "14001")), nil)
	require.NoError(t, err)
	assert.Empty(t, got[types.FieldHistory], "append is not applied in bulk form")

	res, err = c.UpdateMany(ctx, types.Where(types.Eq(types.FieldCategory, "RGI")), types.Update{
		Set:  map[string]any{types.FieldContact: "+55 11 99999-0000"},
		Push: map[string]any{types.FieldHistory: map[string]any{"acao": "editar"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Matched)

	n, err := c.CountDocuments(ctx, types.Where(types.Eq(types.FieldContact, "+55 11 99999-0000")))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	got, err = c.FindOne(ctx, types.Where(types.Eq(types.FieldCode, "14002")), nil)
	require.NoError(t, err)
	assert.Empty(t, got[types.FieldHistory])
}

func testDelete(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	insert(t, c,
		Record("15001", "RGI", "2025-01-01"),
		Record("15002", "RGI", "2025-01-01"),
		Record("15003", "RTD", "2025-01-01"),
	)

	res, err := c.DeleteOne(ctx, types.Where(types.Eq(types.FieldCategory, "RGI")))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Count)
	left, err := c.Find(nil).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"15002", "15003"}, codes(left))

	res, err = c.DeleteOne(ctx, types.Where(types.Eq(types.FieldCode, "99999")))
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Count)

	res, err = c.DeleteMany(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Count)
}

func testCountAndDistinct(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	noID := Record("16003", "RGI", "2025-01-01")
	noID[types.FieldTaxID] = nil
	insert(t, c,
		Record("16001", "RTD", "2025-01-01"),
		Record("16002", "RGI", "2025-01-01"),
		noID,
	)

	n, err := c.CountDocuments(ctx, types.Where(types.Eq(types.FieldCategory, "RGI")))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	cats, err := c.Distinct(ctx, types.FieldCategory)
	require.NoError(t, err)
	assert.Equal(t, []any{"RGI", "RTD"}, cats)

	ids, err := c.Distinct(ctx, types.FieldTaxID)
	require.NoError(t, err)
	assert.Equal(t, []any{"123.456.789-09"}, ids, "null values are excluded")
}

func testCreateIndex(t *testing.T, db types.Database) {
	c := records(t, db)
	err := c.CreateIndex(context.Background(), []types.SortKey{types.Asc(types.FieldStatus), types.Desc(types.FieldCreatedAtTime)}, false)
	assert.NoError(t, err)
}

func testOpaqueCredential(t *testing.T, db types.Database) {
	ctx := context.Background()
	users, err := db.Collection(types.UsersCollection)
	require.NoError(t, err)

	hash := "pbkdf2_sha256$260000$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5"
	_, err = users.InsertOne(ctx, types.Document{
		types.FieldUsername: "joana",
		types.FieldPassword: hash,
		types.FieldRole:     types.RoleClerk,
	})
	require.NoError(t, err)

	got, err := users.FindOne(ctx, types.Where(types.Eq(types.FieldUsername, "joana")), nil)
	require.NoError(t, err)
	assert.Equal(t, hash, got[types.FieldPassword])

	_, err = users.InsertOne(ctx, types.Document{
		types.FieldUsername: "joana",
		types.FieldPassword: hash,
		types.FieldRole:     types.RoleAdmin,
	})
	assert.ErrorIs(t, err, types.ErrDuplicateKey)
}

func testNumbersInTextFields(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	legacy := Record("12346", "RGI", "2025-01-01")
	legacy[types.FieldContact] = int64(11999998888)
	legacy[types.FieldEditable] = int64(1)
	insert(t, c, Record("12345", "RGI", "2025-01-01"), legacy)

	docs, err := c.Find(types.Where(types.Eq(types.FieldCode, 12346))).All(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "11999998888", docs[0][types.FieldContact])
	assert.Equal(t, true, docs[0][types.FieldEditable])

	docs, err = c.Find(types.Where(types.In(types.FieldCode, 12345, float64(12346)))).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"12345", "12346"}, codes(docs))

	_, err = c.UpdateOne(ctx, types.Where(types.Eq(types.FieldCode, "12345")),
		types.SetFields(map[string]any{types.FieldContact: 21988887777}))
	require.NoError(t, err)
	n, err := c.CountDocuments(ctx, types.Where(types.Eq(types.FieldContact, "21988887777")))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func testColumnDefaults(t *testing.T, db types.Database) {
	ctx := context.Background()
	c := records(t, db)
	d := Record("13001", "RGI", "2025-01-01")
	delete(d, types.FieldEditable)
	delete(d, types.FieldNoTaxID)
	d["observacoes"] = nil
	noTaxID := Record("13002", "RGI", "2025-01-01")
	noTaxID[types.FieldTaxID] = nil
	ids := insert(t, c, d, noTaxID)

	got, err := c.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, true, got[types.FieldEditable])
	assert.Equal(t, false, got[types.FieldNoTaxID])
	assert.Equal(t, "", got[types.FieldContact])
	assert.Equal(t, "", got["observacoes"])
	assert.Equal(t, "", got["exig2_reapresentada_por"])
	assert.Equal(t, []any{}, got[types.FieldChangeHistory])
	assert.Nil(t, got["data_retirada_dt"])

	got, err = c.Get(ctx, ids[1])
	require.NoError(t, err)
	assert.Nil(t, got[types.FieldTaxID])

	notes, err := db.Collection(types.NotificationsCollection)
	require.NoError(t, err)
	res, err := notes.InsertOne(ctx, types.Document{
		types.FieldUsername:  "joana",
		types.FieldMessage:   "Protocolo 13001 concluído",
		types.FieldCreatedAt: "2025-01-01 10:00:00",
	})
	require.NoError(t, err)
	got, err = notes.Get(ctx, res.InsertedID())
	require.NoError(t, err)
	assert.Equal(t, "info", got[types.FieldRole])
	assert.Equal(t, false, got[types.FieldRead])
}

func testNestedTimes(t *testing.T, db types.Database) {
	ctx := context.Background()
	c, err := db.Collection(types.DeletedRecordsCollection)
	require.NoError(t, err)
	created := time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC)
	ids := insert(t, c, types.Document{
		types.FieldOriginalID: "1",
		types.FieldCode:       "14001",
		types.FieldDeletedAt:  "2025-08-01 12:00:00",
		types.FieldDeletedBy:  "admin",
		types.FieldOriginalSnapshot: map[string]any{
			types.FieldCode:          "14001",
			types.FieldCreatedAtTime: created,
			types.FieldChangeHistory: []any{map[string]any{"acao": "criar"}},
		},
	})

	got, err := c.Get(ctx, ids[0])
	require.NoError(t, err)
	snap, ok := got[types.FieldOriginalSnapshot].(map[string]any)
	require.True(t, ok, "%T", got[types.FieldOriginalSnapshot])
	assert.Equal(t, created, snap[types.FieldCreatedAtTime])
	assert.Equal(t, []any{map[string]any{"acao": "criar"}}, snap[types.FieldChangeHistory])
	assert.Equal(t, "", got[types.FieldReason])
}
