package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/upb/account-service/internal/auth"
	"github.com/upb/account-service/models"
	"github.com/upb/account-service/repositories"
	"go.uber.org/zap"
)

// Pagination bounds for List
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// RegisterInput carries a validated registration request
type RegisterInput struct {
	FullName    string
	DateOfBirth time.Time
	Email       string
	Password    string
	// Role is optional; nil means USER
	Role *models.Role
}

// UserPage is one page of the account directory
type UserPage struct {
	Users       []*models.User
	TotalUsers  int
	CurrentPage int
	PageSize    int
	TotalPages  int
}

// AccountServiceConfig holds registration policy
type AccountServiceConfig struct {
	// AllowRoleOnRegister honors a role supplied at registration
	AllowRoleOnRegister bool
}

// AccountService owns the account directory: registration, credential checks, lookup, listing and status
type AccountService struct {
	users               repositories.UserRepository
	txm                 repositories.TransactionManager
	hasher              auth.PasswordHasher
	allowRoleOnRegister bool
	now                 func() time.Time
	logger              *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(
	users repositories.UserRepository,
	txm repositories.TransactionManager,
	hasher auth.PasswordHasher,
	cfg AccountServiceConfig,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		users:               users,
		txm:                 txm,
		hasher:              hasher,
		allowRoleOnRegister: cfg.AllowRoleOnRegister,
		now:                 func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		logger:              logger,
	}
}

// Register creates a new active account
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	role := models.RoleUser
	if in.Role != nil {
		if !in.Role.IsValid() {
			return nil, ErrInvalidRole
		}
		if s.allowRoleOnRegister {
			role = *in.Role
		} else if *in.Role != models.RoleUser {
			s.logger.Info("ignoring requested role at registration", zap.String("requested_role", in.Role.String()))
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(in.FullName, in.DateOfBirth, in.Email, hash, role)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, NewDomainError(ErrorTypeConflict, ErrDuplicateEmail.Message, err)
		}
		return nil, WrapInternal("failed to create user", err)
	}

	if role == models.RoleAdmin {
		s.logger.Warn("admin account self-registered", zap.String("user_id", user.ID.String()))
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", role.String()))
	return user, nil
}

// Authenticate checks a credential pair. Unknown email, wrong password and
// inactive account all return ErrInvalidCredentials after one bcrypt comparison.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, WrapInternal("failed to look up user", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Info("login refused for inactive account", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetByID returns the account with the given ID
func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to get user", err)
	}
	return user, nil
}

// List returns one 1-indexed page of accounts together with the total count
func (s *AccountService) List(ctx context.Context, page, pageSize int) (*UserPage, error) {
	if err := validatePagination(page, pageSize); err != nil {
		return nil, err
	}

	result := &UserPage{
		Users:       []*models.User{},
		CurrentPage: page,
		PageSize:    pageSize,
	}

	err := s.txm.InReadTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		total, err := s.users.Count(ctx)
		if err != nil {
			return err
		}
		result.TotalUsers = total

		// A page past the end, including one whose offset would overflow, is empty.
		if page-1 > (math.MaxInt-pageSize)/pageSize || (page-1)*pageSize >= total {
			return nil
		}

		users, err := s.users.List(ctx, pageSize, (page-1)*pageSize)
		if err != nil {
			return err
		}
		result.Users = users
		return nil
	})
	if err != nil {
		return nil, WrapInternal("failed to list users", err)
	}

	result.TotalPages = totalPages(result.TotalUsers, pageSize)
	return result, nil
}

// SetActive sets the active flag of an account and returns the updated record
func (s *AccountService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	user, err := s.users.SetActive(ctx, id, active, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to update user status", err)
	}

	s.logger.Info("user status changed", zap.String("user_id", id.String()), zap.Bool("is_active", active))
	return user, nil
}

func validatePagination(page, pageSize int) error {
	var err *DomainError
	invalid := func(field, reason string) {
		if err == nil {
			err = NewDomainError(ErrorTypeValidation, ErrInvalidPagination.Message, nil)
		}
		err.WithDetail(field, reason)
	}

	if page < 1 {
		invalid("page", "must be a positive integer")
	}
	if pageSize < 1 {
		invalid("pageSize", "must be a positive integer")
	} else if pageSize > MaxPageSize {
		invalid("pageSize", fmt.Sprintf("must not exceed %d", MaxPageSize))
	}

	if err == nil {
		return nil
	}
	return err
}

// totalPages is ceil(total / pageSize)
func totalPages(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
