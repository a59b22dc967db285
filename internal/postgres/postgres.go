package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cyclebill/cyclebill/internal/config"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Querier defines the database operations shared by *sqlx.DB and *sqlx.Tx,
// so repositories work unchanged inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// IClient defines the interface for postgres client operations
type IClient interface {
	// WithTx wraps the given function in a transaction; nested calls reuse
	// the ambient transaction via savepoints
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Querier returns the transaction from context if one is open, or the
	// base connection pool
	Querier(ctx context.Context) Querier

	// Close closes the underlying connection pool
	Close() error
}

// DB wraps sqlx.DB to provide transaction management.
// It is constructed once at process start and passed in explicitly; there is
// no package-level connection state.
type DB struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewDB creates a new DB instance from the configured DSN
func NewDB(cfg *config.Configuration, logger *logger.Logger) (*DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		return nil, err
	}

	if cfg.Postgres.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	}
	if cfg.Postgres.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	}
	if cfg.Postgres.ConnMaxLifetimeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)
	}

	return &DB{db: db, logger: logger}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.db.Close()
}

// Querier returns either the transaction from context or the base DB
func (db *DB) Querier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return tx.Tx
	}
	return db.db
}
