package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/account-service/internal/auth"
	"github.com/upb/account-service/models"
	"github.com/upb/account-service/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	stored := models.NewUser("Ada", time.Now(), "ada@example.com", "stored-hash", models.RoleAdmin)

	t.Run("issues a token for the authenticated user", func(t *testing.T) {
		accounts, repo, hasher, _ := newTestAccountService(true)
		repo.On("GetByEmail", ctx, "ada@example.com").Return(stored, nil)
		hasher.On("Verify", "pw", "stored-hash").Return(true)

		expires := time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)
		tokens := &MockTokenMinter{}
		tokens.On("Issue", auth.Identity{
			UserID: stored.ID.String(),
			Email:  "ada@example.com",
			Role:   models.RoleAdmin,
		}).Return("signed.jwt.token", expires, nil)

		svc := NewAuthService(accounts, tokens, zap.NewNop())
		result, err := svc.Login(ctx, "ada@example.com", "pw")
		require.NoError(t, err)
		assert.Equal(t, "signed.jwt.token", result.Token)
		assert.Equal(t, expires, result.ExpiresAt)
		assert.Equal(t, stored.ID, result.User.ID)
		tokens.AssertExpectations(t)
	})

	t.Run("credential failure issues no token", func(t *testing.T) {
		accounts, repo, hasher, _ := newTestAccountService(true)
		repo.On("GetByEmail", ctx, "ada@example.com").Return(stored, nil)
		hasher.On("Verify", "bad", "stored-hash").Return(false)
		tokens := &MockTokenMinter{}

		svc := NewAuthService(accounts, tokens, zap.NewNop())
		_, err := svc.Login(ctx, "ada@example.com", "bad")
		assert.True(t, IsUnauthorizedError(err))
		tokens.AssertNotCalled(t, "Issue", mock.Anything)
	})

	t.Run("signing failure is internal", func(t *testing.T) {
		accounts, repo, hasher, _ := newTestAccountService(true)
		repo.On("GetByEmail", ctx, "ada@example.com").Return(stored, nil)
		hasher.On("Verify", "pw", "stored-hash").Return(true)
		tokens := &MockTokenMinter{}
		tokens.On("Issue", mock.Anything).Return("", time.Time{}, errors.New("sign"))

		svc := NewAuthService(accounts, tokens, zap.NewNop())
		_, err := svc.Login(ctx, "ada@example.com", "pw")
		assert.True(t, IsInternalError(err))
	})
}

// TestRegisterThenLogin runs the real hasher and issuer over the mock store
func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: []byte("test-secret"), TTL: time.Hour, Issuer: "account-service"})
	require.NoError(t, err)

	repo := &MockUserRepository{}
	accounts := NewAccountService(repo, &passthroughTxManager{}, hasher, AccountServiceConfig{}, zap.NewNop())
	svc := NewAuthService(accounts, issuer, zap.NewNop())

	var created *models.User
	repo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*models.User)
	}).Return(nil)

	_, err = accounts.Register(ctx, registerInput())
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotContains(t, created.PasswordHash, "s3cret!")

	repo.On("GetByEmail", ctx, "ada@example.com").Return(created, nil)

	result, err := svc.Login(ctx, "ada@example.com", "s3cret!")
	require.NoError(t, err)

	identity, err := issuer.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), identity.UserID)
	assert.Equal(t, models.RoleUser, identity.Role)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.Same(t, ErrInvalidCredentials, err)

	repo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repositories.ErrNotFound)
	_, err = svc.Login(ctx, "nobody@example.com", "s3cret!")
	assert.Same(t, ErrInvalidCredentials, err)
}
