// Package ddl renders the generic ddl.TableDef for Postgres.
package ddl

import (
	"strings"

	gddl "banketl/internal/ddl"
)

// MapType normalizes a logical type into a Postgres SQL type.
//
//	"float"/"double"     -> DOUBLE PRECISION
//	"int"/"bigint"       -> BIGINT
//	everything else      -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.TypeFloat, "double":
		return "DOUBLE PRECISION"
	case "int", "integer", "bigint":
		return "BIGINT"
	default:
		return "TEXT"
	}
}
