// Package storage contains the destination-store contract and the backend
// factory. Concrete backends (sqlite, postgres) live in subpackages and
// register themselves at init time; callers open a store by DSN without
// knowing which backend serves it.
package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fidoriel/rebrickable-sqlite-orm/internal/catalog"
)

// Error wraps a failure from the destination store: schema creation, insert,
// or commit. Entity is empty for failures outside any entity's unit of work.
type Error struct {
	Op     string
	Entity string
	Err    error
}

func (e *Error) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Store is the narrow contract the loader needs from a destination.
type Store interface {
	// CreateSchema drops and recreates one table per entity. The slice is
	// given in load order; implementations drop in reverse so children go
	// before their parents.
	CreateSchema(ctx context.Context, entities []catalog.Entity) error

	// Begin opens the unit of work covering one entity's insert-and-commit.
	Begin(ctx context.Context) (Tx, error)

	Close()
}

// Tx is a single unit of work. Foreign keys are checked no earlier than
// commit time, so a batch may contain forward references within itself.
type Tx interface {
	Insert(ctx context.Context, e catalog.Entity, rows [][]any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory opens a Store for a DSN.
type Factory func(ctx context.Context, dsn string) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for a backend kind. It is
// called from backend packages' init functions.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// KindFromDSN selects a backend kind for a destination string: postgres for
// postgres URLs, sqlite for everything else (a plain file path included).
func KindFromDSN(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

// Open locates the registered factory for the DSN's kind and opens the store.
func Open(ctx context.Context, dsn string) (Store, error) {
	kind := KindFromDSN(dsn)
	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind %q", kind)
	}
	return f(ctx, dsn)
}
