package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/account-service/config"
	"github.com/upb/account-service/handlers"
	"github.com/upb/account-service/internal/auth"
	"github.com/upb/account-service/middleware"
	"github.com/upb/account-service/repositories"
	"github.com/upb/account-service/repositories/postgres"
	"github.com/upb/account-service/repositories/sqlite"
	"github.com/upb/account-service/repositories/sqlstore"
	"github.com/upb/account-service/services"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *sqlstore.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *sqlstore.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	TxManager repositories.TransactionManager

	// Auth primitives
	Hasher auth.PasswordHasher
	Tokens *auth.TokenIssuer

	// Services
	AccountService *services.AccountService
	AuthService    *services.AuthService

	// HTTP
	AuthMiddleware *middleware.AuthMiddleware
	UserHandler    *handlers.UserHandler
	HealthHandler  *handlers.HealthHandler
}

// NewDependencies opens the configured database and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	db, err := OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithDB(cfg, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesWithDB wires every dependency on top of an already open, migrated database
func NewDependenciesWithDB(cfg *config.Config, db *sqlstore.DB, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		DB:          db,
		Logger:      logger,
		RepoFactory: sqlstore.NewRepositoryFactory(db, logger),
	}

	deps.initRepositories()

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	deps.initServices(cfg)
	deps.initHTTP()

	return deps, nil
}

// OpenDatabase opens the configured store and applies migrations when enabled
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlstore.DB, error) {
	var (
		db  *sqlstore.DB
		err error
	)

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err = postgres.Open(cfg, logger)
	case config.DriverSQLite:
		db, err = sqlite.Open(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initAuth(cfg *config.Config) error {
	if cfg.Auth.UsingDevSecret {
		d.Logger.Warn("JWT_SECRET not set, signing tokens with the development secret")
	}

	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	d.Hasher = hasher

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret: []byte(cfg.Auth.JWTSecret),
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
	})
	if err != nil {
		return err
	}
	d.Tokens = tokens

	d.AuthMiddleware = middleware.NewAuthMiddleware(tokens, d.Logger)
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.AccountService = services.NewAccountService(
		d.Users,
		d.TxManager,
		d.Hasher,
		services.AccountServiceConfig{AllowRoleOnRegister: cfg.Auth.AllowRoleOnRegister},
		d.Logger,
	)
	d.AuthService = services.NewAuthService(d.AccountService, d.Tokens, d.Logger)
}

func (d *Dependencies) initHTTP() {
	d.UserHandler = handlers.NewUserHandler(d.AccountService, d.AuthService, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		d.RepoFactory = nil
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
