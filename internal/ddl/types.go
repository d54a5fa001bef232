// Package ddl describes a destination table independently of SQL dialect.
// Backend packages under internal/storage supply a Dialect to render it.
package ddl

import (
	"fmt"
	"strings"
)

// Logical column types. Dialects map them to concrete SQL types.
const (
	TypeText  = "text"
	TypeFloat = "float"
)

// ColumnDef is one column. Name is unquoted; quoting happens at render time.
type ColumnDef struct {
	Name     string
	Type     string
	Nullable bool
}

// TableDef is a table name (optionally "schema.table") and its ordered
// columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names in order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Validate checks that the definition can be rendered.
func (t TableDef) Validate() error {
	if strings.TrimSpace(t.FQN) == "" {
		return fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("ddl: table %s has no columns", t.FQN)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("ddl: column with empty name in table %s", t.FQN)
		}
		if strings.TrimSpace(c.Type) == "" {
			return fmt.Errorf("ddl: column %s missing type", name)
		}
		k := strings.ToLower(name)
		if _, dup := seen[k]; dup {
			return fmt.Errorf("ddl: duplicate column %s in table %s", name, t.FQN)
		}
		seen[k] = struct{}{}
	}
	return nil
}
