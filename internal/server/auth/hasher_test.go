package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_Hash(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	t.Run("produces bcrypt hash with configured cost", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$"))

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost, cost)
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("hash never contains the plaintext", func(t *testing.T) {
		hash, err := hasher.Hash("plain-secret")
		require.NoError(t, err)
		assert.NotContains(t, hash, "plain-secret")
	})

	t.Run("rejects passwords over 72 bytes", func(t *testing.T) {
		_, err := hasher.Hash(strings.Repeat("x", 73))
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})
}

func TestBcryptHasher_Verify(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	passwords := []string{"correctpassword", "p", "ünïcödé pass", strings.Repeat("z", 72)}
	for _, pw := range passwords {
		hash, err := hasher.Hash(pw)
		require.NoError(t, err)
		assert.True(t, hasher.Verify(pw, hash), "round trip for %q", pw)
		assert.False(t, hasher.Verify(pw+"!", hash), "wrong password for %q", pw)
	}

	t.Run("72-byte password with a suffix is a mismatch", func(t *testing.T) {
		pw := strings.Repeat("a", 72)
		hash, err := hasher.Hash(pw)
		require.NoError(t, err)
		assert.False(t, hasher.Verify(pw+"WRONG-SUFFIX", hash))
		assert.False(t, hasher.Verify(pw+"a", hash))
	})

	t.Run("malformed hash is a mismatch", func(t *testing.T) {
		assert.False(t, hasher.Verify("password", "not-a-valid-hash"))
		assert.False(t, hasher.Verify("password", ""))
		assert.False(t, hasher.Verify("", "$2a$"))
	})
}
