// Package gormstore is the relational Store backend (PostgreSQL, MySQL or
// SQLite through gorm).
package gormstore

import (
	"context"
	"errors"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"zyboard/internal/repository"
)

type Store struct {
	db   *gorm.DB
	kind string
}

var _ repository.Store = (*Store)(nil)

// New wraps an open gorm connection. kind is reported by Kind().
func New(db *gorm.DB, kind string) *Store {
	return &Store{db: db, kind: kind}
}

func (s *Store) Kind() string { return s.kind }

// DB exposes the underlying connection for migrations and tests.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Ping(ctx context.Context) bool {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error == nil
}

// WithTx rolls back when fn returns an error or panics.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, kind: s.kind})
	})
	return repository.Wrap("transaction", err)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return repository.Wrap("close", err)
	}
	return repository.Wrap("close", sqlDB.Close())
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// wrap classifies driver errors into the repository taxonomy.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.NotFound(op)
	}
	if isDuplicate(err) {
		return repository.Duplicate(op, err)
	}
	return repository.Wrap(op, err)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	// modernc sqlite errors carry no exported code
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
