// Package storage is the backend-agnostic face of the database loader.
// Concrete backends (sqlite, postgres, mssql) register a Factory and a
// DDLBootstrapper at init time; callers pick one by Config.Kind and only ever
// see Repository.
package storage

import "context"

// Repository is the set of operations the pipeline needs from a database.
type Repository interface {
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	// CopyFrom bulk-inserts rows into the configured table. Each row is
	// aligned to columns.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Query runs a statement and materializes its result.
	Query(ctx context.Context, sql string) (*ResultSet, error)
	Close()
}

// ResultSet is a fully read query result.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}
