package ddl

import (
	"strings"

	gddl "banketl/internal/ddl"
)

// Dialect renders SQLite DDL: double-quoted identifiers and
// DROP TABLE IF EXISTS.
var Dialect = gddl.Dialect{
	Quote:     quoteIdent,
	MapType:   MapType,
	DropTable: func(q string) string { return "DROP TABLE IF EXISTS " + q },
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
