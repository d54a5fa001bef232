package ddl

import (
	"fmt"
	"strings"

	gddl "banketl/internal/ddl"
)

// Dialect renders T-SQL. The drop is guarded by OBJECT_ID so it also works
// on servers older than 2016, which lack DROP TABLE IF EXISTS.
var Dialect = gddl.Dialect{
	Quote:   quoteIdent,
	MapType: MapType,
	DropTable: func(q string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s", strings.ReplaceAll(q, "'", "''"), q)
	},
}

// quoteIdent quotes a single identifier segment for SQL Server using
// bracket syntax, escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
