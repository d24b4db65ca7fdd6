// Package postgres provides the PostgreSQL dialect of the SQL store
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/upb/account-service/config"
	"github.com/upb/account-service/repositories/sqlstore"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// uniqueViolation is the SQLSTATE for unique_violation
const uniqueViolation = "23505"

// Dialect implements sqlstore.Dialect for PostgreSQL via lib/pq
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

// DriverName implements sqlstore.Dialect
func (Dialect) DriverName() string { return "postgres" }

// GooseDialect implements sqlstore.Dialect
func (Dialect) GooseDialect() goose.Dialect { return goose.DialectPostgres }

// Migrations implements sqlstore.Dialect
func (Dialect) Migrations() (fs.FS, error) {
	return fs.Sub(embedMigrations, "migrations")
}

// IsUniqueViolation implements sqlstore.Dialect
func (Dialect) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// ReadTxOptions returns a repeatable-read snapshot so a page and its total agree
func (Dialect) ReadTxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

// Open creates a new connection pool and verifies it
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*sqlstore.DB, error) {
	db, err := sql.Open(Dialect{}.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("driver", "postgres"),
		zap.String("connection", cfg.LogString()))

	return sqlstore.New(db, Dialect{}, logger), nil
}
