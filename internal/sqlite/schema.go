package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
)

// pkColumn is the integer primary key every table carries. It is exposed to
// callers under both identity keys.
const pkColumn = "id"

// createSchema renders the catalog as DDL and executes it in one
// transaction. Every statement is IF NOT EXISTS so repeated runs are no-ops.
func createSchema(ctx context.Context, db *sql.DB, log zerolog.Logger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range schema.All() {
		if _, err := tx.ExecContext(ctx, createTableSQL(t)); err != nil {
			return fmt.Errorf("creating table %s: %w", t.Name, err)
		}
		for _, ix := range t.AllIndexes() {
			if _, err := tx.ExecContext(ctx, createIndexSQL(t, ix)); err != nil {
				return fmt.Errorf("creating index %s: %w", ix.Name, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	log.Debug().Int("tables", len(schema.All())).Msg("schema ready")
	return nil
}

func createTableSQL(t *schema.Table) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE IF NOT EXISTS %s (\n    %s INTEGER PRIMARY KEY AUTOINCREMENT", quote(t.Name), pkColumn)
	for _, c := range t.Columns {
		fmt.Fprintf(&sb, ",\n    %s %s", quote(c.Name), sqlType(c.Kind))
		if c.NotNull {
			sb.WriteString(" NOT NULL")
		}
		if c.Default != nil {
			fmt.Fprintf(&sb, " DEFAULT %s", literal(c.Default))
		}
	}
	sb.WriteString("\n)")
	return sb.String()
}

func createIndexSQL(t *schema.Table, ix schema.Index) string {
	cols := make([]string, len(ix.Columns))
	for i, k := range ix.Columns {
		cols[i] = quote(k.Name)
		if k.Desc {
			cols[i] += " DESC"
		}
	}
	unique := ""
	if ix.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, quote(ix.Name), quote(t.Name), strings.Join(cols, ", "))
}

func sqlType(k schema.Kind) string {
	switch k {
	case schema.Integer, schema.Bool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func literal(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "1"
		}
		return "0"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case []any, map[string]any:
		b, _ := json.Marshal(t)
		return literal(string(b))
	default:
		return fmt.Sprint(t)
	}
}

// quote returns name as a double-quoted SQL identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
