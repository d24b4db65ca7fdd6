package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upb/account-service/models"
)

var (
	// ErrInvalidToken is returned when a token fails any integrity or claim check
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when a token is well-formed but past its expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrMissingToken is returned when no bearer token was presented
	ErrMissingToken = errors.New("missing token")
)

// DefaultTokenTTL is the lifetime of an issued token
const DefaultTokenTTL = time.Hour

// Identity is the verified subject of a token
type Identity struct {
	UserID string
	Email  string
	Role   models.Role
}

// Claims is the signed claim set of an identity token
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenConfig holds the immutable signing configuration, built once at startup
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

// TokenIssuer mints and verifies HS256 identity tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// IssuerOption customizes a TokenIssuer
type IssuerOption func(*TokenIssuer)

// WithClock overrides the time source used for issuing and verifying
func WithClock(now func() time.Time) IssuerOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

// NewTokenIssuer creates a TokenIssuer. The secret is copied so later changes
// to the caller's slice cannot affect signing.
func NewTokenIssuer(cfg TokenConfig, opts ...IssuerOption) (*TokenIssuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token TTL must be positive, got %s", cfg.TTL)
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	t := &TokenIssuer{
		secret: secret,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Issue signs a token for the identity and returns it with its expiry
func (t *TokenIssuer) Issue(identity Identity) (string, time.Time, error) {
	if identity.UserID == "" {
		return "", time.Time{}, errors.New("identity has no user id")
	}
	if !identity.Role.IsValid() {
		return "", time.Time{}, fmt.Errorf("identity has invalid role %s", identity.Role)
	}

	now := t.now()
	claims := &Claims{
		UserID: identity.UserID,
		Email:  identity.Email,
		Role:   identity.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks signature, expiry and claims. Every failure is reported as
// ErrInvalidToken or ErrTokenExpired.
func (t *TokenIssuer) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(t.issuer),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(t.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   role,
	}, nil
}
