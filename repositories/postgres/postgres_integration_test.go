//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/upb/account-service/config"
	"github.com/upb/account-service/models"
	"github.com/upb/account-service/repositories"
	"github.com/upb/account-service/repositories/postgres"
	"github.com/upb/account-service/repositories/sqlstore"
	"go.uber.org/zap"
)

// setupPostgres starts a throwaway postgres container and returns a migrated store
func setupPostgres(t *testing.T) *sqlstore.DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "accounts",
			"POSTGRES_PASSWORD": "accounts",
			"POSTGRES_DB":       "accounts",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Driver:           config.DriverPostgres,
		ConnectionString: fmt.Sprintf("postgres://accounts:accounts@%s:%s/accounts?sslmode=disable", host, port.Port()),
		MaxOpenConns:     5,
		MaxIdleConns:     2,
		ConnMaxLifetime:  time.Minute,
	}

	db, err := postgres.Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	db := setupPostgres(t)
	repo := sqlstore.NewUserRepository(db, zap.NewNop())
	tm := sqlstore.NewTransactionManager(db, zap.NewNop())

	dob := time.Date(1985, 7, 3, 0, 0, 0, 0, time.UTC)
	user := models.NewUser("Grace Hopper", dob, "Grace@Example.com", "$2a$10$hash", models.RoleAdmin)
	require.NoError(t, repo.Create(ctx, user))

	t.Run("duplicate email maps to ErrDuplicateEmail", func(t *testing.T) {
		dup := models.NewUser("Other", dob, "grace@example.com", "hash", models.RoleUser)
		assert.ErrorIs(t, repo.Create(ctx, dup), repositories.ErrDuplicateEmail)
	})

	t.Run("lookup by id and email", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, got.Role)
		assert.Equal(t, "1985-07-03", got.DateOfBirth.Format(models.DateLayout))

		got, err = repo.GetByEmail(ctx, "GRACE@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("set active", func(t *testing.T) {
		updated, err := repo.SetActive(ctx, user.ID, false, time.Now().UTC())
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
	})

	t.Run("page and count in one snapshot", func(t *testing.T) {
		var (
			users []*models.User
			total int
		)
		err := tm.InReadTransaction(ctx, func(ctx context.Context, tx repositories.Transaction) error {
			var err error
			if users, err = repo.List(ctx, 10, 0); err != nil {
				return err
			}
			total, err = repo.Count(ctx)
			return err
		})
		require.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, 1, total)
	})

	t.Run("health check", func(t *testing.T) {
		assert.NoError(t, db.HealthCheck(ctx))
	})
}
