package document

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newRecordCoercer(t *testing.T, buf *bytes.Buffer) *Coercer {
	t.Helper()
	table, err := schema.Lookup(types.RecordsCollection)
	require.NoError(t, err)
	return NewCoercer(table, zerolog.New(buf), func() time.Time { return fixedNow })
}

func TestDatesDerivesTwins(t *testing.T) {
	tests := []struct {
		name  string
		doc   types.Document
		field string
		want  any
	}{
		{
			name:  "bare date",
			doc:   types.Document{"data_criacao": "2025-07-25"},
			field: "data_criacao_dt",
			want:  time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "date with time",
			doc:   types.Document{"data_criacao": "2025-07-25 14:30:00"},
			field: "data_criacao_dt",
			want:  time.Date(2025, 7, 25, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "stamp with UTC suffix",
			doc:   types.Document{"data_criacao": "2025-07-25 14:30:00 UTC"},
			field: "data_criacao_dt",
			want:  time.Date(2025, 7, 25, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "nil twin is derived",
			doc:   types.Document{"data_retirada": "2025-08-01", "data_retirada_dt": nil},
			field: "data_retirada_dt",
			want:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "empty string twin is derived",
			doc:   types.Document{"data_concluido": "2025-08-02", "data_concluido_dt": ""},
			field: "data_concluido_dt",
			want:  time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "empty string twin without display becomes nil",
			doc:   types.Document{"data_retirada_dt": ""},
			field: "data_retirada_dt",
			want:  nil,
		},
		{
			name:  "existing string twin is parsed",
			doc:   types.Document{"data_criacao": "2025-07-25", "data_criacao_dt": "2025-07-20T10:00:00Z"},
			field: "data_criacao_dt",
			want:  time.Date(2025, 7, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "unparseable required twin falls back to now",
			doc:   types.Document{"data_criacao": "25/07/2025"},
			field: "data_criacao_dt",
			want:  fixedNow,
		},
		{
			name:  "unparseable optional twin stays nil",
			doc:   types.Document{"exig1_data_retirada": "amanhã", "exig1_data_retirada_dt": ""},
			field: "exig1_data_retirada_dt",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := newRecordCoercer(t, &buf)
			c.Dates(tt.doc)
			assert.Equal(t, tt.want, tt.doc[tt.field])
		})
	}
}

func TestDatesLogsParseFailure(t *testing.T) {
	var buf bytes.Buffer
	c := newRecordCoercer(t, &buf)
	c.Dates(types.Document{"data_criacao": "ontem"})
	assert.Contains(t, buf.String(), "could not parse date")
	assert.Contains(t, buf.String(), "set to current time as fallback")
}

func TestPrepareInsert(t *testing.T) {
	var buf bytes.Buffer
	c := newRecordCoercer(t, &buf)

	in := types.Document{"_id": "abc", "id": 7, "numero": "12345", "data_criacao": "2025-07-25"}
	out, err := c.PrepareInsert(in)
	require.NoError(t, err)
	assert.NotContains(t, out, "_id")
	assert.NotContains(t, out, "id")
	assert.Equal(t, "12345", out["numero"])
	assert.Contains(t, out, "data_criacao_dt")
	assert.NotContains(t, in, "data_criacao_dt", "input must not be modified")

	_, err = c.PrepareInsert(types.Document{"bogus": 1})
	assert.ErrorIs(t, err, types.ErrUnknownField)
}

func TestPrepareSet(t *testing.T) {
	var buf bytes.Buffer
	c := newRecordCoercer(t, &buf)

	out, err := c.PrepareSet(map[string]any{"data_retirada_dt": "", "status": "Concluído"})
	require.NoError(t, err)
	assert.Nil(t, out["data_retirada_dt"])
	assert.Equal(t, "Concluído", out["status"])

	_, err = c.PrepareSet(map[string]any{"_id": 1})
	assert.ErrorIs(t, err, types.ErrInvalidUpdate)

	_, err = c.PrepareSet(map[string]any{"nope": 1})
	assert.ErrorIs(t, err, types.ErrUnknownField)
}

func TestProject(t *testing.T) {
	doc := types.Document{"_id": int64(1), "id": "1", "nome": "Ana", "numero": "12345", "status": "Pendente"}

	tests := []struct {
		name string
		p    types.Projection
		want types.Document
	}{
		{
			name: "no projection returns document",
			p:    nil,
			want: doc,
		},
		{
			name: "inclusion keeps identity",
			p:    types.Projection{"nome": 1},
			want: types.Document{"_id": int64(1), "id": "1", "nome": "Ana"},
		},
		{
			name: "inclusion without identity",
			p:    types.Projection{"nome": 1, "_id": 0},
			want: types.Document{"nome": "Ana"},
		},
		{
			name: "exclusion drops listed fields",
			p:    types.Projection{"status": 0},
			want: types.Document{"_id": int64(1), "id": "1", "nome": "Ana", "numero": "12345"},
		},
		{
			name: "identity-only exclusion",
			p:    types.Projection{"_id": 0},
			want: types.Document{"nome": "Ana", "numero": "12345", "status": "Pendente"},
		},
		{
			name: "inclusion of missing field",
			p:    types.Projection{"cpf": 1},
			want: types.Document{"_id": int64(1), "id": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Project(doc, tt.p))
		})
	}
}

func TestWithIdentity(t *testing.T) {
	d := WithIdentity(types.Document{}, int64(42))
	assert.Equal(t, int64(42), d["_id"])
	assert.Equal(t, "42", d["id"])
}

func TestScalar(t *testing.T) {
	text := schema.Column{Name: "whatsapp", Kind: schema.Text}
	flag := schema.Column{Name: "lida", Kind: schema.Bool}
	number := schema.Column{Name: "n", Kind: schema.Integer}

	tests := []struct {
		name string
		col  schema.Column
		in   any
		want any
	}{
		{"int to text", text, 12346, "12346"},
		{"int64 to text", text, int64(11999998888), "11999998888"},
		{"integral float to text", text, float64(11999998888), "11999998888"},
		{"fraction to text", text, 1.5, "1.5"},
		{"text unchanged", text, "abc", "abc"},
		{"bool left in text", text, true, true},
		{"one to bool", flag, int64(1), true},
		{"zero to bool", flag, 0, false},
		{"two left in bool", flag, 2, 2},
		{"bool unchanged", flag, true, true},
		{"digits to integer", number, " 42 ", int64(42)},
		{"word left in integer", number, "x", "x"},
		{"nil unchanged", text, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scalar(tt.col, tt.in))
		})
	}
}

func TestPrepareInsertAppliesDefaults(t *testing.T) {
	var buf bytes.Buffer
	c := newRecordCoercer(t, &buf)

	out, err := c.PrepareInsert(types.Document{
		"numero":         "12345",
		"whatsapp":       int64(21999998888),
		"observacoes":    nil,
		"cpf":            nil,
		"data_criacao":   "2025-07-25",
		"nome_parte_ato": "Maria",
	})
	require.NoError(t, err)
	assert.Equal(t, "21999998888", out["whatsapp"])
	assert.Equal(t, "", out["observacoes"], "explicit nil takes the default")
	assert.Equal(t, "", out["retirado_por"], "absent column takes the default")
	assert.Equal(t, "Maria", out["nome_parte_ato"])
	assert.Nil(t, out["cpf"], "cpf has no default")
	assert.Nil(t, out["data_retirada_dt"])
	assert.Equal(t, true, out["editavel"])
	assert.Equal(t, []any{}, out["historico"])

	other, err := c.PrepareInsert(types.Document{"numero": "12346", "data_criacao": "2025-07-25"})
	require.NoError(t, err)
	out["historico"] = append(out["historico"].([]any), "x")
	assert.Equal(t, []any{}, other["historico"], "list defaults are not shared")
}

func TestPrepareSetConvertsScalars(t *testing.T) {
	var buf bytes.Buffer
	c := newRecordCoercer(t, &buf)

	out, err := c.PrepareSet(map[string]any{"whatsapp": 21988887777, "editavel": 0})
	require.NoError(t, err)
	assert.Equal(t, "21988887777", out["whatsapp"])
	assert.Equal(t, false, out["editavel"])
}
