// Package ddl renders the generic ddl.TableDef for SQLite.
package ddl

import (
	"strings"

	gddl "banketl/internal/ddl"
)

// MapType maps a logical column type to a SQLite type affinity. Unknown
// types fall back to TEXT.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.TypeFloat, "double", "real":
		return "REAL"
	case "int", "integer", "bigint":
		return "INTEGER"
	default:
		return "TEXT"
	}
}
