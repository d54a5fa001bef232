package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"banketl/internal/etlerr"
)

// Config selects and configures a backend.
type Config struct {
	Kind    string   // "sqlite", "postgres", "mssql"
	DSN     string   // driver-specific connection string
	Table   string   // target table, optionally schema-qualified
	Columns []string // ordered destination columns
}

// Factory opens a Repository for a backend.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Backends call it from init;
// a second registration for the same kind replaces the first.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Repository for cfg.Kind. An unknown kind is a config error;
// a failure inside the backend is an IO error.
func New(ctx context.Context, cfg Config) (Repository, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, etlerr.Newf(etlerr.ErrConfig, "storage: unknown kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	repo, err := f(ctx, cfg)
	if err != nil {
		return nil, etlerr.Wrapf(etlerr.ErrIO, err, "storage: open %s", kind)
	}
	return repo, nil
}
