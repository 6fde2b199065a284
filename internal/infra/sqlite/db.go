package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// Open opens (or creates) the SQLite data file. The pool is capped at a
// single connection: the core is single-process and every multi-row mutation
// runs inside one coarse database transaction.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("Open: open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("Open: enabling foreign keys: %w", err)
	}
	return db, nil
}

// Store is the repository over the ledger and orphan tables. One Store wraps
// one shared *sql.DB.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over an opened database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InitSchema ensures the baseline schema exists. Safe to call on an already
// initialized file.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("InitSchema: creating schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// querier abstracts *sql.DB and *sql.Tx so row-level helpers run both
// standalone and inside a reconciliation unit.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
