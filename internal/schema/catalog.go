package schema

import "github.com/kuaminaji/Controle-de-Protocolos/pkg/types"

var catalog = map[string]*Table{
	types.RecordsCollection:        records,
	types.UsersCollection:          users,
	types.CategoriesCollection:     categories,
	types.NotificationsCollection:  notifications,
	types.SavedFiltersCollection:   savedFilters,
	types.DeletedRecordsCollection: deletedRecords,
}

var users = newTable(types.UsersCollection, []Column{
	{Name: types.FieldUsername, Kind: Text, Size: 100, NotNull: true, Unique: true},
	{Name: types.FieldPassword, Kind: Text, Size: 500, NotNull: true},
	{Name: types.FieldRole, Kind: Text, Size: 20, NotNull: true},
	{Name: types.FieldBlocked, Kind: Bool, Default: false},
}, nil, nil)

var records = newTable(types.RecordsCollection, recordColumns(), []Index{
	{
		Name:    "ix_protocolos_cat_status_dt",
		Columns: []IndexKey{{Name: "categoria"}, {Name: "status"}, {Name: "data_criacao_dt", Desc: true}},
	},
	{
		Name:    "ix_protocolos_status_dt",
		Columns: []IndexKey{{Name: "status"}, {Name: "data_criacao_dt", Desc: true}},
	},
	{
		Name:    "ix_protocolos_cat_dt",
		Columns: []IndexKey{{Name: "categoria"}, {Name: "data_criacao_dt", Desc: true}},
	},
}, recordTwins())

// recordColumns declares the record table. Optional text defaults to ""
// except cpf, which stays null for requesters without a tax id.
func recordColumns() []Column {
	cols := []Column{
		{Name: types.FieldCode, Kind: Text, Size: 10, NotNull: true, Unique: true},
		{Name: types.FieldRequester, Kind: Text, Size: 60, NotNull: true},
		{Name: types.FieldNoTaxID, Kind: Bool, Default: false},
		{Name: types.FieldTaxID, Kind: Text, Size: 14, Index: true},
		{Name: types.FieldContact, Kind: Text, Size: 20, Default: ""},
		{Name: types.FieldTitle, Kind: Text, Size: 120, NotNull: true},
		{Name: "nome_parte_ato", Kind: Text, Size: 120, Index: true, Default: ""},
		{Name: "outras_infos", Kind: Text, Size: 120, Default: ""},
		{Name: types.FieldCreatedAt, Kind: Text, Size: 20, NotNull: true},
		{Name: types.FieldCreatedAtTime, Kind: Timestamp, NotNull: true, Index: true},
		{Name: types.FieldStatus, Kind: Text, Size: 20, NotNull: true, Index: true},
		{Name: types.FieldCategory, Kind: Text, Size: 60, NotNull: true, Index: true},
		{Name: types.FieldResponsible, Kind: Text, Size: 60, NotNull: true},
		{Name: "observacoes", Kind: Text, Default: ""},
		{Name: types.FieldEditable, Kind: Bool, Default: true},
		{Name: types.FieldLastChangedBy, Kind: Text, Size: 60, Default: ""},
		{Name: types.FieldLastChangedAt, Kind: Text, Size: 30, Default: ""},
		{Name: "retirado_por", Kind: Text, Size: 60, Default: ""},
		{Name: "data_retirada", Kind: Text, Size: 10, Default: ""},
		{Name: "data_retirada_dt", Kind: Timestamp, Index: true},
		{Name: "whatsapp_enviado_em", Kind: Text, Size: 30, Default: ""},
		{Name: "whatsapp_enviado_por", Kind: Text, Size: 60, Default: ""},
		{Name: "data_concluido", Kind: Text, Size: 30, Default: ""},
		{Name: "data_concluido_dt", Kind: Timestamp, Index: true},
	}
	for _, p := range requirementPrefixes {
		cols = append(cols,
			Column{Name: p + "_retirada_por", Kind: Text, Size: 60, Default: ""},
			Column{Name: p + "_data_retirada", Kind: Text, Size: 10, Default: ""},
			Column{Name: p + "_data_retirada_dt", Kind: Timestamp},
			Column{Name: p + "_reapresentada_por", Kind: Text, Size: 60, Default: ""},
			Column{Name: p + "_data_reapresentacao", Kind: Text, Size: 10, Default: ""},
			Column{Name: p + "_data_reapresentacao_dt", Kind: Timestamp},
		)
	}
	return append(cols,
		Column{Name: types.FieldChangeHistory, Kind: JSON, Default: []any{}},
		Column{Name: types.FieldHistory, Kind: JSON, Default: []any{}},
	)
}

// requirementPrefixes name the three requirement rounds a record can go
// through before completion.
var requirementPrefixes = []string{"exig1", "exig2", "exig3"}

func recordTwins() []DateTwin {
	twins := []DateTwin{
		{Display: types.FieldCreatedAt, Timestamp: types.FieldCreatedAtTime, Required: true},
		{Display: "data_retirada", Timestamp: "data_retirada_dt"},
		{Display: "data_concluido", Timestamp: "data_concluido_dt"},
	}
	for _, p := range requirementPrefixes {
		twins = append(twins,
			DateTwin{Display: p + "_data_retirada", Timestamp: p + "_data_retirada_dt"},
			DateTwin{Display: p + "_data_reapresentacao", Timestamp: p + "_data_reapresentacao_dt"},
		)
	}
	return twins
}

var categories = newTable(types.CategoriesCollection, []Column{
	{Name: types.FieldName, Kind: Text, Size: 60, NotNull: true, Unique: true},
	{Name: types.FieldDescription, Kind: Text, Size: 240, Default: ""},
}, nil, nil)

var notifications = newTable(types.NotificationsCollection, []Column{
	{Name: types.FieldUsername, Kind: Text, Size: 100, Index: true},
	{Name: types.FieldMessage, Kind: Text, NotNull: true},
	{Name: types.FieldRole, Kind: Text, Size: 20, Default: "info"},
	{Name: types.FieldRead, Kind: Bool, Default: false},
	{Name: types.FieldCreatedAt, Kind: Text, Size: 30, NotNull: true},
	{Name: types.FieldCreatedAtTime, Kind: Timestamp, NotNull: true, Index: true},
}, []Index{
	{Name: "ix_notificacoes_usuario_lida", Columns: []IndexKey{{Name: types.FieldUsername}, {Name: types.FieldRead}}},
}, []DateTwin{
	{Display: types.FieldCreatedAt, Timestamp: types.FieldCreatedAtTime, Required: true},
})

var savedFilters = newTable(types.SavedFiltersCollection, []Column{
	{Name: types.FieldUsername, Kind: Text, Size: 100, Index: true},
	{Name: types.FieldName, Kind: Text, Size: 100, NotNull: true},
	{Name: types.FieldFilters, Kind: JSON, NotNull: true},
	{Name: types.FieldUpdatedAt, Kind: Timestamp, NotNull: true},
}, nil, nil)

var deletedRecords = newTable(types.DeletedRecordsCollection, []Column{
	{Name: types.FieldOriginalID, Kind: Text, Size: 50, NotNull: true},
	{Name: types.FieldCode, Kind: Text, Size: 10, Index: true},
	{Name: types.FieldRequester, Kind: Text, Size: 60, Default: ""},
	{Name: types.FieldTaxID, Kind: Text, Size: 14, Default: ""},
	{Name: types.FieldDeletedAt, Kind: Text, Size: 30, NotNull: true},
	{Name: types.FieldDeletedAtTime, Kind: Timestamp, NotNull: true, Index: true},
	{Name: types.FieldDeletedBy, Kind: Text, Size: 100, Index: true},
	{Name: types.FieldReason, Kind: Text, Default: ""},
	{Name: types.FieldOriginalSnapshot, Kind: JSON, NotNull: true},
}, nil, []DateTwin{
	{Display: types.FieldDeletedAt, Timestamp: types.FieldDeletedAtTime, Required: true},
})
