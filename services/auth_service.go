package services

import (
	"context"
	"time"

	"github.com/upb/account-service/internal/auth"
	"github.com/upb/account-service/models"
	"go.uber.org/zap"
)

// CredentialChecker verifies an email/password pair
type CredentialChecker interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// TokenMinter issues identity tokens
type TokenMinter interface {
	Issue(identity auth.Identity) (string, time.Time, error)
}

// LoginResult is a successful login
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// AuthService turns a credential pair into a signed identity token
type AuthService struct {
	accounts CredentialChecker
	tokens   TokenMinter
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(accounts CredentialChecker, tokens TokenMinter, logger *zap.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		logger:   logger,
	}
}

// Login authenticates and issues a token carrying the user's id, email and role
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(auth.Identity{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, WrapInternal("failed to issue token", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
