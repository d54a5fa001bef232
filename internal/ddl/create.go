package ddl

import (
	"context"
	"fmt"
	"strings"
)

// Dialect holds the pieces of SQL that differ between backends.
type Dialect struct {
	// Quote quotes a single identifier segment.
	Quote func(id string) string
	// MapType maps a logical column type to a SQL type.
	MapType func(logical string) string
	// DropTable renders a statement that drops the (already quoted) table if
	// it exists.
	DropTable func(quotedFQN string) string
}

// QuoteFQN quotes each dot-separated segment of fqn.
//
//	dbo.Banks -> [dbo].[Banks]   (mssql)
//	Banks     -> "Banks"         (sqlite, postgres)
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.Quote(p))
	}
	return strings.Join(out, ".")
}

// QuoteAll quotes a list of column names.
func (d Dialect) QuoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.Quote(c)
	}
	return out
}

// CreateTableSQL renders:
//
//	CREATE TABLE <fqn> (
//	  <col> <type> [NOT NULL],
//	  ...
//	)
func (d Dialect) CreateTableSQL(t TableDef) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		def := d.Quote(strings.TrimSpace(c.Name)) + " " + d.MapType(c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", d.QuoteFQN(t.FQN), strings.Join(cols, ",\n  ")), nil
}

// DropTableSQL renders the dialect's drop-if-exists statement for t.
func (d Dialect) DropTableSQL(t TableDef) (string, error) {
	if strings.TrimSpace(t.FQN) == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	return d.DropTable(d.QuoteFQN(t.FQN)), nil
}

// Execer runs a single statement. storage.Repository satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// Recreate drops t if it exists and creates it empty.
func (d Dialect) Recreate(ctx context.Context, ex Execer, t TableDef) error {
	create, err := d.CreateTableSQL(t)
	if err != nil {
		return err
	}
	drop, _ := d.DropTableSQL(t)
	if err := ex.Exec(ctx, drop); err != nil {
		return fmt.Errorf("drop %s: %w", t.FQN, err)
	}
	if err := ex.Exec(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", t.FQN, err)
	}
	return nil
}
