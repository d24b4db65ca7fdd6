// Command account-admin performs operator tasks against the account store.
//
// Usage:
//
//	account-admin create-admin -email admin@example.com -name "Site Admin" -dob 1980-01-01
//
// The password is read from the terminal without echo, or as one line from
// stdin when stdin is not a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/upb/account-service/app"
	"github.com/upb/account-service/config"
	"github.com/upb/account-service/internal/auth"
	"github.com/upb/account-service/internal/observability"
	"github.com/upb/account-service/models"
	"github.com/upb/account-service/repositories/sqlstore"
	"github.com/upb/account-service/services"
	"github.com/upb/account-service/utils"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Test seams for the terminal
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

const usage = `usage: account-admin <command> [flags]

commands:
  create-admin   create an ADMIN account
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "account-admin: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin *os.File, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "create-admin":
		return createAdmin(ctx, args[1:], stdin, stdout)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

type createAdminOptions struct {
	Email       string
	FullName    string
	DateOfBirth string
}

func parseCreateAdminFlags(args []string, out io.Writer) (*createAdminOptions, error) {
	opts := &createAdminOptions{}

	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.Email, "email", "", "admin email address (required)")
	fs.StringVar(&opts.FullName, "name", "Administrator", "full name")
	fs.StringVar(&opts.DateOfBirth, "dob", "1970-01-01", "date of birth (YYYY-MM-DD)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts.Email = models.NormalizeEmail(opts.Email)
	opts.FullName = strings.TrimSpace(opts.FullName)
	if opts.Email == "" {
		return nil, errors.New("-email is required")
	}
	if opts.FullName == "" {
		return nil, errors.New("-name must not be empty")
	}
	return opts, nil
}

func createAdmin(ctx context.Context, args []string, stdin *os.File, stdout io.Writer) error {
	opts, err := parseCreateAdminFlags(args, stdout)
	if err != nil {
		return err
	}

	dob, err := utils.ParseBirthdate(opts.DateOfBirth)
	if err != nil {
		return fmt.Errorf("-dob: %w", err)
	}

	password, err := promptPassword(stdin, stdout)
	if err != nil {
		return err
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := app.OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := registerAdmin(ctx, db, cfg.Auth.BcryptCost, opts, dob, password, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "created admin %s (%s)\n", user.Email, user.ID)
	return nil
}

func registerAdmin(
	ctx context.Context,
	db *sqlstore.DB,
	bcryptCost int,
	opts *createAdminOptions,
	dob time.Time,
	password string,
	logger *zap.Logger,
) (*models.User, error) {
	hasher, err := auth.NewBcryptHasher(bcryptCost)
	if err != nil {
		return nil, err
	}

	factory := sqlstore.NewRepositoryFactory(db, logger)
	accounts := services.NewAccountService(
		factory.NewRepositories().Users,
		factory.GetTransactionManager(),
		hasher,
		services.AccountServiceConfig{AllowRoleOnRegister: true},
		logger,
	)

	role := models.RoleAdmin
	user, err := accounts.Register(ctx, services.RegisterInput{
		FullName:    opts.FullName,
		DateOfBirth: dob,
		Email:       opts.Email,
		Password:    password,
		Role:        &role,
	})
	if err != nil {
		if services.IsConflictError(err) {
			return nil, fmt.Errorf("an account with email %s already exists", opts.Email)
		}
		return nil, err
	}
	return user, nil
}

// promptPassword reads the password twice from a terminal, or once from piped stdin
func promptPassword(stdin *os.File, out io.Writer) (string, error) {
	fd := int(stdin.Fd())

	if !isTerminal(fd) {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return checkPassword(strings.TrimRight(line, "\r\n"))
	}

	fmt.Fprint(out, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return checkPassword(string(first))
}

func checkPassword(password string) (string, error) {
	switch {
	case len(password) < 6:
		return "", errors.New("password must be at least 6 characters")
	case len(password) > utils.MaxPasswordBytes:
		return "", fmt.Errorf("password must be at most %d bytes", utils.MaxPasswordBytes)
	}
	return password, nil
}
