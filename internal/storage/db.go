// Package storage persists transactions and categories in SQLite and computes
// the grouped sums behind every summary and chart.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"ledger/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the connection pool shared by the repositories.
type Store struct {
	db *sql.DB

	Transactions *TransactionRepository
	Categories   *CategoryRepository
	Aggregates   *Aggregator
}

// Open creates the database file if needed, applies migrations, seeds the
// default categories and wires the repositories onto one pool.
func Open(ctx context.Context, dbPath string, clock core.Clock) (*Store, error) {
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if isMemory(dbPath) {
		// Each connection to :memory: opens its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := NewStore(db, clock)
	if err := s.Categories.EnsureDefaults(ctx, core.DefaultCategories); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed default categories: %w", err)
	}

	return s, nil
}

// NewStore wires repositories onto an existing, already migrated pool.
func NewStore(db *sql.DB, clock core.Clock) *Store {
	return &Store{
		db:           db,
		Transactions: NewTransactionRepository(db),
		Categories:   NewCategoryRepository(db),
		Aggregates:   NewAggregator(db, clock),
	}
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &core.StoreError{Op: "ping", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// dsn appends the pragmas every connection needs. busy_timeout lets concurrent
// writers wait for the file lock instead of failing immediately.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func isMemory(dbPath string) bool {
	return strings.Contains(dbPath, ":memory:") || strings.Contains(dbPath, "mode=memory")
}

func ensureDir(dbPath string) error {
	if isMemory(dbPath) {
		return nil
	}
	clean := strings.TrimPrefix(dbPath, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db directory %q: %w", dir, err)
	}
	return nil
}
