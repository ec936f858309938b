// Package sqlite implements the default storage backend on a local SQLite
// file using database/sql. SQLite has no dedicated bulk-load API, but a
// prepared INSERT inside one transaction per entity keeps performance
// acceptable for the catalog's volumes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver

	"github.com/fidoriel/rebrickable-sqlite-orm/internal/catalog"
	"github.com/fidoriel/rebrickable-sqlite-orm/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, dsn string) (storage.Store, error) {
		return Open(ctx, dsn)
	})
}

var dialect = storage.Dialect{
	TypeFor: func(f catalog.Field) string {
		switch f.Type {
		case catalog.TypeInt:
			return "INTEGER"
		case catalog.TypeBool:
			// SQLite stores booleans as 0/1.
			return "BOOLEAN"
		default:
			if f.MaxLen > 0 {
				return fmt.Sprintf("VARCHAR(%d)", f.MaxLen)
			}
			return "TEXT"
		}
	},
}

// Store is a SQLite-backed storage.Store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dsn. A plain file path is
// accepted as-is; the driver interprets it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite: dsn must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// PRAGMAs are per-connection and the loader is the sole writer anyway,
	// so pin the pool to one connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle, mainly for tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() { _ = s.db.Close() }

// CreateSchema drops the tables in reverse of the given order (children
// first) and recreates them in order, so a rebuild always starts from empty
// tables.
func (s *Store) CreateSchema(ctx context.Context, entities []catalog.Entity) error {
	for i := len(entities) - 1; i >= 0; i-- {
		if _, err := s.db.ExecContext(ctx, storage.DropTableSQL(entities[i])); err != nil {
			return fmt.Errorf("sqlite: drop %s: %w", entities[i].Name, err)
		}
	}
	for _, e := range entities {
		if _, err := s.db.ExecContext(ctx, storage.CreateTableSQL(e, dialect)); err != nil {
			return fmt.Errorf("sqlite: create %s: %w", e.Name, err)
		}
	}
	return nil
}

// Begin opens one unit of work. Foreign-key enforcement is deferred to
// commit within the transaction, which is what allows a batch to reference
// rows later in the same batch (themes.parent_id).
func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "PRAGMA defer_foreign_keys = ON;"); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("sqlite: defer foreign keys: %w", err)
	}
	return &sqliteTx{tx: tx, stmts: map[string]*sql.Stmt{}}, nil
}

type sqliteTx struct {
	tx    *sql.Tx
	stmts map[string]*sql.Stmt // prepared insert per entity
}

func (t *sqliteTx) stmt(ctx context.Context, e catalog.Entity) (*sql.Stmt, error) {
	if st, ok := t.stmts[e.Name]; ok {
		return st, nil
	}
	st, err := t.tx.PrepareContext(ctx, storage.InsertSQL(e, func(int) string { return "?" }))
	if err != nil {
		return nil, fmt.Errorf("sqlite: prepare insert %s: %w", e.Name, err)
	}
	t.stmts[e.Name] = st
	return st, nil
}

func (t *sqliteTx) Insert(ctx context.Context, e catalog.Entity, rows [][]any) error {
	st, err := t.stmt(ctx, e)
	if err != nil {
		return err
	}
	width := len(e.Fields)
	for _, row := range rows {
		if len(row) != width {
			return fmt.Errorf("sqlite: insert %s: row width %d != %d fields", e.Name, len(row), width)
		}
		if _, err := st.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("sqlite: insert %s: %w", e.Name, err)
		}
	}
	return nil
}

func (t *sqliteTx) Commit(ctx context.Context) error {
	t.closeStmts()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func (t *sqliteTx) Rollback(ctx context.Context) error {
	t.closeStmts()
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("sqlite: rollback: %w", err)
	}
	return nil
}

func (t *sqliteTx) closeStmts() {
	for _, st := range t.stmts {
		_ = st.Close()
	}
	t.stmts = map[string]*sql.Stmt{}
}
