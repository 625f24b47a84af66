package types

// Record statuses.
const (
	StatusPending     = "Pendente"
	StatusInProgress  = "Em andamento"
	StatusCompleted   = "Concluído"
	StatusRequirement = "Exigência"
	StatusDeleted     = "EXCLUIDO"
)

// Statuses lists every valid record status.
var Statuses = []string{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusRequirement,
	StatusDeleted,
}

// User roles.
const (
	RoleAdmin = "admin"
	RoleClerk = "escrevente"
)

// Stored field names shared across packages. The names are those of the
// legacy data set so backups restore without translation.
const (
	FieldCode             = "numero"
	FieldRequester        = "nome_requerente"
	FieldNoTaxID          = "sem_cpf"
	FieldTaxID            = "cpf"
	FieldContact          = "whatsapp"
	FieldTitle            = "titulo"
	FieldStatus           = "status"
	FieldCategory         = "categoria"
	FieldResponsible      = "responsavel"
	FieldEditable         = "editavel"
	FieldCreatedAt        = "data_criacao"
	FieldCreatedAtTime    = "data_criacao_dt"
	FieldLastChangedBy    = "ultima_alteracao_nome"
	FieldLastChangedAt    = "ultima_alteracao_data"
	FieldChangeHistory    = "historico_alteracoes"
	FieldHistory          = "historico"
	FieldUsername         = "usuario"
	FieldPassword         = "senha"
	FieldRole             = "tipo"
	FieldBlocked          = "bloqueado"
	FieldName             = "nome"
	FieldDescription      = "descricao"
	FieldMessage          = "mensagem"
	FieldRead             = "lida"
	FieldFilters          = "filtros"
	FieldUpdatedAt        = "data_atualizacao"
	FieldOriginalID       = "protocolo_id_original"
	FieldDeletedAt        = "exclusao_timestamp"
	FieldDeletedAtTime    = "exclusao_timestamp_dt"
	FieldDeletedBy        = "admin_responsavel"
	FieldReason           = "motivo"
	FieldOriginalSnapshot = "protocolo_original"
)
