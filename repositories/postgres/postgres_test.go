package postgres

import (
	"database/sql"
	"fmt"
	"io/fs"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect_IsUniqueViolation(t *testing.T) {
	d := Dialect{}

	assert.True(t, d.IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, d.IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, d.IsUniqueViolation(&pq.Error{Code: "23502"}))
	assert.False(t, d.IsUniqueViolation(sql.ErrNoRows))
	assert.False(t, d.IsUniqueViolation(nil))
}

func TestDialect_ReadTxOptions(t *testing.T) {
	opts := Dialect{}.ReadTxOptions()
	require.NotNil(t, opts)
	assert.True(t, opts.ReadOnly)
	assert.Equal(t, sql.LevelRepeatableRead, opts.Isolation)
}

func TestDialect_Migrations(t *testing.T) {
	fsys, err := Dialect{}.Migrations()
	require.NoError(t, err)

	files, err := fs.Glob(fsys, "*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "00001_create_users.sql")

	body, err := fs.ReadFile(fsys, "00001_create_users.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "UNIQUE (email)")
}
