package backup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/sqlite"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

func openDB(t *testing.T) types.Database {
	t.Helper()
	ctx := context.Background()
	db := sqlite.NewBackend()
	require.NoError(t, db.Attach(ctx, types.Config{
		Engine: types.EngineSQLite,
		Target: filepath.Join(t.TempDir(), "protocolos.db"),
	}))
	t.Cleanup(func() { db.Detach(ctx) })
	return db
}

func coll(t *testing.T, db types.Database, name string) types.Collection {
	t.Helper()
	c, err := db.Collection(name)
	require.NoError(t, err)
	return c
}

func record(code, status string) types.Document {
	return types.Document{
		types.FieldCode:          code,
		types.FieldRequester:     "Maria",
		types.FieldTitle:         "Escritura",
		types.FieldCreatedAt:     "2025-03-01",
		types.FieldStatus:        status,
		types.FieldCategory:      "RGI",
		types.FieldResponsible:   "joana",
		types.FieldChangeHistory: []any{map[string]any{"acao": "criar", "usuario": "joana", "changes": []any{}}},
	}
}

func seed(t *testing.T, db types.Database) {
	t.Helper()
	ctx := context.Background()
	_, err := coll(t, db, types.RecordsCollection).InsertMany(ctx, []types.Document{
		record("10001", types.StatusPending),
		record("10002", types.StatusCompleted),
	})
	require.NoError(t, err)
	_, err = coll(t, db, types.UsersCollection).InsertOne(ctx, types.Document{
		types.FieldUsername: "admin",
		types.FieldPassword: "pbkdf2_sha256$1$AAAA$AAAA",
		types.FieldRole:     types.RoleAdmin,
	})
	require.NoError(t, err)
	_, err = coll(t, db, types.SavedFiltersCollection).InsertOne(ctx, types.Document{
		types.FieldUsername:  "admin",
		types.FieldName:      "pendentes",
		types.FieldFilters:   map[string]any{"status": "Pendente", "pagina": int64(2)},
		types.FieldUpdatedAt: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openDB(t)
	seed(t, src)
	dir := filepath.Join(t.TempDir(), "bkp")

	m, err := Export(ctx, src, dir, Options{Database: "protocolos_db"})
	require.NoError(t, err)
	assert.Equal(t, types.EngineSQLite, m.Engine)
	require.Len(t, m.Collections, len(types.StandardCollectionNames))
	assert.Equal(t, int64(2), m.Collections[0].Count)

	read, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, m.ID, read.ID)

	dst := openDB(t)
	stats, err := Import(ctx, dst, dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[types.RecordsCollection])
	assert.Equal(t, int64(1), stats[types.UsersCollection])
	assert.Equal(t, int64(0), stats[types.NotificationsCollection])

	got, err := coll(t, dst, types.RecordsCollection).FindOne(ctx, types.Where(types.Eq(types.FieldCode, "10002")), nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.StatusCompleted, got[types.FieldStatus])
	created, ok := got[types.FieldCreatedAtTime].(time.Time)
	require.True(t, ok)
	assert.True(t, created.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	history := got[types.FieldChangeHistory].([]any)
	assert.Equal(t, "criar", history[0].(map[string]any)["acao"])

	f, err := coll(t, dst, types.SavedFiltersCollection).FindOne(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "Pendente", "pagina": int64(2)}, f[types.FieldFilters])
	updated := f[types.FieldUpdatedAt].(time.Time)
	assert.True(t, updated.Equal(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)))

	_, err = Import(ctx, dst, dir, Options{})
	assert.ErrorIs(t, err, types.ErrDuplicateKey, "loading twice without replace hits the unique code")

	stats, err = Import(ctx, dst, dir, Options{Replace: true})
	require.NoError(t, err)
	n, err := coll(t, dst, types.RecordsCollection).CountDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, int64(2), stats[types.RecordsCollection])
}

func TestImportRejectsTamperedFile(t *testing.T) {
	ctx := context.Background()
	src := openDB(t)
	seed(t, src)
	dir := t.TempDir()
	_, err := Export(ctx, src, dir, Options{})
	require.NoError(t, err)

	path := filepath.Join(dir, types.UsersCollection+".jsonl")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(string(data), "admin", "root!", 1)), 0o644))

	_, err = Import(ctx, openDB(t), dir, Options{})
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestImportCleansDocuments(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	lines := `{"_id":{"$oid":"65f1c0de0000000000000001"},"numero":"10001","nome_requerente":"Ana","titulo":"T","data_criacao":"2025-01-02","status":"concluido","categoria":"RGI","responsavel":"x","campo_antigo":"?"}
not json
`
	path := filepath.Join(dir, "protocolos.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	sum, count, err := fileDigest(path)
	require.NoError(t, err)
	require.NoError(t, WriteManifest(dir, &Manifest{
		ID:          "manual",
		Version:     FormatVersion,
		Collections: []Entry{{Name: types.RecordsCollection, File: "protocolos.jsonl", Count: count, SHA256: sum}},
	}))

	db := openDB(t)
	stats, err := Import(ctx, db, dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[types.RecordsCollection])

	got, err := coll(t, db, types.RecordsCollection).FindOne(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got[types.FieldStatus])
	assert.NotContains(t, got, "campo_antigo")
	assert.Equal(t, int64(1), got[types.IdentityKey], "source identity is not carried over")
}

func TestImportLegacy(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	_, err := coll(t, db, types.UsersCollection).InsertOne(ctx, types.Document{
		types.FieldUsername: "stale", types.FieldPassword: "x", types.FieldRole: types.RoleClerk,
	})
	require.NoError(t, err)

	legacy := `{
  "protocolos": [
    {"_id": {"$oid": "65f1c0de0000000000000001"}, "numero": "12345", "nome_requerente": "José",
     "titulo": "Registro", "data_criacao": "2024-05-06", "data_criacao_dt": {"$date": "2024-05-06T00:00:00Z"},
     "status": "Concluido", "categoria": "RTD", "responsavel": "ana",
     "historico_alteracoes": [{"acao": "criar", "usuario": "ana", "timestamp": "2024-05-06 09:00:00 UTC", "changes": []}]},
    {"_id": {"$oid": "65f1c0de0000000000000002"}, "numero": "12346", "nome_requerente": "Rita",
     "titulo": "Registro", "data_criacao": "2024-05-07", "data_criacao_dt": "",
     "status": "Pendente", "categoria": "RGI", "responsavel": "ana"}
  ],
  "usuarios": [
    {"_id": {"$oid": "65f1c0de00000000000000aa"}, "usuario": "ana", "senha": "pbkdf2_sha256$260000$AAAA$AAAA", "tipo": "admin"}
  ],
  "extra": []
}`
	stats, err := ImportLegacy(ctx, db, strings.NewReader(legacy), Options{})
	require.NoError(t, err)
	assert.Equal(t, Stats{types.RecordsCollection: 2, types.UsersCollection: 1}, stats)

	users, err := coll(t, db, types.UsersCollection).Find(nil).All(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1, "users section replaces the collection")
	assert.Equal(t, "ana", users[0][types.FieldUsername])

	records := coll(t, db, types.RecordsCollection)
	first, err := records.FindOne(ctx, types.Where(types.Eq(types.FieldCode, "12345")), nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, first[types.FieldStatus])
	dt := first[types.FieldCreatedAtTime].(time.Time)
	assert.True(t, dt.Equal(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)))

	second, err := records.FindOne(ctx, types.Where(types.Eq(types.FieldCode, "12346")), nil)
	require.NoError(t, err)
	dt = second[types.FieldCreatedAtTime].(time.Time)
	assert.True(t, dt.Equal(time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)), "empty twin is derived from the display date")

	_, err = ImportLegacy(ctx, db, strings.NewReader("{not json"), Options{})
	assert.Error(t, err)
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	src := openDB(t)
	seed(t, src)
	dst := openDB(t)
	_, err := coll(t, dst, types.RecordsCollection).InsertOne(ctx, record("10001", types.StatusPending))
	require.NoError(t, err)

	res, err := Copy(ctx, src, dst, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Copied[types.RecordsCollection])
	assert.Equal(t, int64(1), res.Failed[types.RecordsCollection])
	assert.Equal(t, int64(1), res.Copied[types.UsersCollection])

	res, err = Copy(ctx, src, dst, Options{Replace: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Copied[types.RecordsCollection])
	assert.Zero(t, res.Failed[types.RecordsCollection])
}
