package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	hasher, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("hash then verify succeeds", func(t *testing.T) {
		hash, err := hasher.Hash("secret")
		require.NoError(t, err)

		assert.NotEqual(t, "secret", hash)
		assert.True(t, hasher.Verify("secret", hash))
	})

	t.Run("wrong password does not verify", func(t *testing.T) {
		hash, err := hasher.Hash("secret")
		require.NoError(t, err)

		assert.False(t, hasher.Verify("Secret", hash))
		assert.False(t, hasher.Verify("", hash))
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		a, err := hasher.Hash("secret")
		require.NoError(t, err)
		b, err := hasher.Hash("secret")
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
	})

	t.Run("malformed hash is a mismatch", func(t *testing.T) {
		for _, hash := range []string{"", "not-a-hash", "$2a$10$short", "$2a$99$" + string(make([]byte, 53))} {
			assert.False(t, hasher.Verify("secret", hash), "hash %q", hash)
		}
	})

	t.Run("dummy verify never matches", func(t *testing.T) {
		assert.False(t, hasher.VerifyDummy("account-service/dummy"))
	})

	t.Run("password longer than 72 bytes fails to hash", func(t *testing.T) {
		long := make([]byte, 73)
		for i := range long {
			long[i] = 'a'
		}
		_, err := hasher.Hash(string(long))
		assert.Error(t, err)
	})
}

func TestNewBcryptHasher_CostRange(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost - 1)
	assert.Error(t, err)

	_, err = NewBcryptHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}
