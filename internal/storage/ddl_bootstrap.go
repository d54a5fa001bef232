package storage

import (
	"context"
	"strings"
	"sync"

	"banketl/internal/ddl"
	"banketl/internal/etlerr"
)

// DDLBootstrapper drops def's table if present and creates it empty, using
// backend-specific SQL issued through repo.Exec.
type DDLBootstrapper func(ctx context.Context, repo Repository, def ddl.TableDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the bootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// RecreateTable runs the bootstrapper registered for kind.
func RecreateTable(ctx context.Context, kind string, repo Repository, def ddl.TableDef) error {
	kind = strings.ToLower(strings.TrimSpace(kind))
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return etlerr.Newf(etlerr.ErrConfig, "storage: no DDL bootstrapper registered for kind %q", kind)
	}
	if err := fn(ctx, repo, def); err != nil {
		return etlerr.Wrapf(etlerr.ErrIO, err, "storage: recreate %s", def.FQN)
	}
	return nil
}

// ReplaceTable makes def's table hold exactly rows: it drops any existing
// table, creates it, then bulk-inserts. Running it twice with the same rows
// leaves the same contents.
func ReplaceTable(ctx context.Context, kind string, repo Repository, def ddl.TableDef, rows [][]any) (int64, error) {
	if err := RecreateTable(ctx, kind, repo, def); err != nil {
		return 0, err
	}
	n, err := repo.CopyFrom(ctx, def.ColumnNames(), rows)
	if err != nil {
		return n, etlerr.Wrapf(etlerr.ErrIO, err, "storage: insert into %s", def.FQN)
	}
	return n, nil
}
