// Package postgres implements a Postgres storage backend using pgx v5. Rows
// are loaded with COPY inside the entity's transaction; foreign keys are
// created DEFERRABLE INITIALLY DEFERRED so a batch may reference itself.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fidoriel/rebrickable-sqlite-orm/internal/catalog"
	"github.com/fidoriel/rebrickable-sqlite-orm/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, dsn string) (storage.Store, error) {
		return Open(ctx, dsn)
	})
}

var dialect = storage.Dialect{
	TypeFor: func(f catalog.Field) string {
		switch f.Type {
		case catalog.TypeInt:
			return "BIGINT"
		case catalog.TypeBool:
			return "BOOLEAN"
		default:
			if f.MaxLen > 0 {
				return fmt.Sprintf("VARCHAR(%d)", f.MaxLen)
			}
			return "TEXT"
		}
	},
	FKSuffix: " DEFERRABLE INITIALLY DEFERRED",
}

// Store is a Postgres-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the Postgres DSN and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

// CreateSchema drops children-first and recreates every table.
func (s *Store) CreateSchema(ctx context.Context, entities []catalog.Entity) error {
	for i := len(entities) - 1; i >= 0; i-- {
		if _, err := s.pool.Exec(ctx, storage.DropTableSQL(entities[i])+" CASCADE"); err != nil {
			return fmt.Errorf("postgres: drop %s: %w", entities[i].Name, err)
		}
	}
	for _, e := range entities {
		if _, err := s.pool.Exec(ctx, storage.CreateTableSQL(e, dialect)); err != nil {
			return fmt.Errorf("postgres: create %s: %w", e.Name, err)
		}
	}
	return nil
}

func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Insert(ctx context.Context, e catalog.Entity, rows [][]any) error {
	cols := e.Columns()
	if _, err := t.tx.CopyFrom(ctx, pgx.Identifier{e.Name}, cols, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("postgres: copy %s: %w", e.Name, err)
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}
