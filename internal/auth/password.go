package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured
const DefaultBcryptCost = 10

// PasswordHasher hashes and verifies account passwords
type PasswordHasher interface {
	// Hash returns a salted one-way hash of plaintext
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches hash. A malformed hash never matches.
	Verify(plaintext, hash string) bool

	// VerifyDummy burns the same work as a real Verify and always reports false.
	// Used when there is no stored hash to compare against.
	VerifyDummy(plaintext string) bool
}

// BcryptHasher implements PasswordHasher with golang.org/x/crypto/bcrypt
type BcryptHasher struct {
	cost      int
	dummyHash []byte
}

// NewBcryptHasher creates a hasher with the given work factor
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("account-service/dummy"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &BcryptHasher{
		cost:      cost,
		dummyHash: dummy,
	}, nil
}

// Hash returns a bcrypt hash of plaintext
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares plaintext against a bcrypt hash in constant time
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	if hash == "" {
		h.VerifyDummy(plaintext)
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// VerifyDummy runs a comparison against a fixed hash of the same cost
func (h *BcryptHasher) VerifyDummy(plaintext string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(plaintext))
	return false
}
