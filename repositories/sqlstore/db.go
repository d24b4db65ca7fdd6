// Package sqlstore holds the database/sql implementation of the repositories
// shared by every supported dialect. Dialect packages (postgres, sqlite) open
// the connection and supply migrations and error classification.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Dialect describes what differs between database engines
type Dialect interface {
	// DriverName is the database/sql driver name; it also selects sqlx bind vars
	DriverName() string

	// GooseDialect selects the goose migration dialect
	GooseDialect() goose.Dialect

	// Migrations returns the migration files at the root of the returned FS
	Migrations() (fs.FS, error)

	// IsUniqueViolation reports whether err is a unique constraint violation
	IsUniqueViolation(err error) bool

	// ReadTxOptions returns options for a consistent read-only snapshot, or nil
	ReadTxOptions() *sql.TxOptions
}

// DB wraps the sqlx connection pool together with its dialect
type DB struct {
	*sqlx.DB
	dialect Dialect
	logger  *zap.Logger
}

// New wraps an open *sql.DB
func New(db *sql.DB, dialect Dialect, logger *zap.Logger) *DB {
	return &DB{
		DB:      sqlx.NewDb(db, dialect.DriverName()),
		dialect: dialect,
		logger:  logger,
	}
}

// Dialect returns the dialect the pool was opened with
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection", zap.String("driver", db.dialect.DriverName()))
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Migrate applies every pending migration of the dialect
func (db *DB) Migrate(ctx context.Context) error {
	fsys, err := db.dialect.Migrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	provider, err := goose.NewProvider(db.dialect.GooseDialect(), db.DB.DB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, r := range results {
		db.logger.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.String("file", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	db.logger.Info("database schema up to date", zap.Int64("version", version))
	return nil
}
