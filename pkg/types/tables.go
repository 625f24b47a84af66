package types

// Standard collection names for Database.Collection. The names match the
// tables and collections of existing deployments so that their backups
// restore unchanged.
const (
	RecordsCollection        = "protocolos"
	UsersCollection          = "usuarios"
	CategoriesCollection     = "categorias"
	NotificationsCollection  = "notificacoes"
	SavedFiltersCollection   = "filtros"
	DeletedRecordsCollection = "protocolos_excluidos"
)

// StandardCollectionNames lists all standard collection names for enumeration.
var StandardCollectionNames = []string{
	RecordsCollection,
	UsersCollection,
	CategoriesCollection,
	NotificationsCollection,
	SavedFiltersCollection,
	DeletedRecordsCollection,
}
