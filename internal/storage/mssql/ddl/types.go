// Package ddl renders the generic ddl.TableDef for SQL Server.
package ddl

import (
	"strings"

	gddl "banketl/internal/ddl"
)

// MapType maps a logical type into a SQL Server column type. Unknown or
// empty kinds fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.TypeFloat, "double":
		return "FLOAT"
	case "int", "integer", "bigint":
		return "BIGINT"
	default:
		return "NVARCHAR(MAX)"
	}
}
