// Package sqlite provides the embedded SQLite dialect of the SQL store,
// backed by the cgo-free modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/upb/account-service/config"
	"github.com/upb/account-service/repositories/sqlstore"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Dialect implements sqlstore.Dialect for SQLite
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

// DriverName implements sqlstore.Dialect
func (Dialect) DriverName() string { return "sqlite" }

// GooseDialect implements sqlstore.Dialect
func (Dialect) GooseDialect() goose.Dialect { return goose.DialectSQLite3 }

// Migrations implements sqlstore.Dialect
func (Dialect) Migrations() (fs.FS, error) {
	return fs.Sub(embedMigrations, "migrations")
}

// IsUniqueViolation implements sqlstore.Dialect
func (Dialect) IsUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}

// ReadTxOptions returns nil: the store runs on a single connection, so every
// transaction already sees a consistent snapshot.
func (Dialect) ReadTxOptions() *sql.TxOptions {
	return nil
}

// DSN appends the connection pragmas the store relies on
func DSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
}

// Open opens (creating if needed) the database at cfg.SQLitePath
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*sqlstore.DB, error) {
	db, err := sql.Open(Dialect{}.DriverName(), DSN(cfg.SQLitePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; also keeps an in-memory database alive for the pool's lifetime.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("driver", "sqlite"),
		zap.String("connection", cfg.LogString()))

	return sqlstore.New(db, Dialect{}, logger), nil
}

// OpenInMemory opens a migrated private in-memory database
func OpenInMemory(ctx context.Context, logger *zap.Logger) (*sqlstore.DB, error) {
	db, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: MemoryPath}, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
