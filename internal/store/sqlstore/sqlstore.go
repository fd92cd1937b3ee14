// Package sqlstore implements store.Repository on database/sql through sqlx.
// The same queries run against Postgres (pgx) and SQLite (modernc); they are
// written with ? placeholders and rebound for the driver in use.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/store"
)

type dialect struct {
	name      string
	money     string
	timestamp string
	txOptions *sql.TxOptions
	classify  func(error) error
}

var postgresDialect = dialect{
	name:      "postgres",
	money:     "NUMERIC(14,4)",
	timestamp: "TIMESTAMPTZ",
	txOptions: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
	classify:  classifyPostgres,
}

var sqliteDialect = dialect{
	name:      "sqlite",
	money:     "TEXT",
	timestamp: "DATETIME",
	classify:  classifySQLite,
}

type Store struct {
	db      *sqlx.DB
	dialect dialect
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	return open(ctx, db, postgresDialect)
}

// OpenSQLite opens a file database, or a private in-memory one for ":memory:".
// SQLite serializes writers, so the pool is pinned to one connection; this
// also keeps an in-memory database alive for the life of the Store.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return open(ctx, db, sqliteDialect)
}

func open(ctx context.Context, db *sqlx.DB, d dialect) (*Store, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s schema: %w", d.name, err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Dialect() string {
	return s.dialect.name
}

// SeedIfEmpty inserts the given catalog when the products table is empty.
func (s *Store) SeedIfEmpty(ctx context.Context, suppliers []domain.Supplier, products []domain.Product) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, sup := range suppliers {
			if err := insertSupplier(ctx, tx, sup); err != nil {
				return err
			}
		}
		for _, p := range products {
			if err := insertProduct(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	return err == nil, err
}

// inTx runs fn in one transaction, rolling back on any error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, s.dialect.txOptions)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return s.classify(err)
	}
	if err := tx.Commit(); err != nil {
		return s.classify(err)
	}
	return nil
}

func (s *Store) classify(err error) error {
	if err == nil || store.IsKnown(err) {
		return err
	}
	if mapped := s.dialect.classify(err); mapped != nil {
		return mapped
	}
	return err
}

func classifyPostgres(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case "23505":
		return store.Invalid(pgErr.ConstraintName, "already exists")
	case "23503":
		return fmt.Errorf("%w: %s", store.ErrNotFound, pgErr.ConstraintName)
	case "23514":
		return store.Invalid(pgErr.ConstraintName, "violates a check constraint")
	}
	return nil
}

func classifySQLite(err error) error {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return nil
	}
	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return store.Invalid("", "already exists")
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%w: referenced row", store.ErrNotFound)
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return store.Invalid("", "violates a check constraint")
	}
	return nil
}

func notFound(err error, entity string, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", store.ErrNotFound, entity, id)
	}
	return err
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func statusArgs(statuses []domain.AlertStatus) []any {
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}
	return args
}
