package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/account-service/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when an insert violates the unique email constraint
	ErrDuplicateEmail = errors.New("email already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new read/write transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Automatically commits if function succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error

	// InReadTransaction executes a function within a transaction that sees a single
	// consistent snapshot where the database supports it.
	InReadTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository handles account data operations
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by normalized email. Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns users ordered by creation time
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// Count returns the total number of users
	Count(ctx context.Context) (int, error)

	// SetActive updates the active flag and returns the updated user.
	// Returns ErrNotFound if absent.
	SetActive(ctx context.Context, id uuid.UUID, active bool, updatedAt time.Time) (*models.User, error)
}

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Repositories aggregates all repository instances
type Repositories struct {
	Users UserRepository
}
