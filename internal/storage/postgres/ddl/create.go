package ddl

import (
	"strings"

	gddl "banketl/internal/ddl"
)

// Dialect renders Postgres DDL.
var Dialect = gddl.Dialect{
	Quote:     pgIdent,
	MapType:   MapType,
	DropTable: func(q string) string { return "DROP TABLE IF EXISTS " + q },
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
