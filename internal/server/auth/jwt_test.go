package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/authrelay/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestTokenService(secret string) *TokenService {
	s := NewTokenService([]byte(secret), 24*time.Hour)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestIssueAndParse_Success(t *testing.T) {
	s := newTestTokenService("super-secret")

	tok, err := s.Issue("alice@example.com")
	require.NoError(t, err)

	claims, status := s.Parse(tok)
	require.Equal(t, TokenValid, status)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, fixedNow, claims.IssuedAt.Time.UTC())
	assert.Equal(t, fixedNow.Add(24*time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestParse_Expired(t *testing.T) {
	s := newTestTokenService("secret")

	tok, err := s.Issue("u1@example.com")
	require.NoError(t, err)

	s.now = func() time.Time { return fixedNow.Add(24*time.Hour + time.Second) }

	_, status := s.Parse(tok)
	assert.Equal(t, TokenExpired, status)
}

func TestParse_StillValidJustBeforeExpiry(t *testing.T) {
	s := newTestTokenService("secret")

	tok, err := s.Issue("u1@example.com")
	require.NoError(t, err)

	s.now = func() time.Time { return fixedNow.Add(24*time.Hour - time.Second) }

	_, status := s.Parse(tok)
	assert.Equal(t, TokenValid, status)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := newTestTokenService("right-secret").Issue("u2@example.com")
	require.NoError(t, err)

	_, status := newTestTokenService("wrong-secret").Parse(tok)
	assert.Equal(t, TokenInvalid, status)
}

func TestParse_Tampered(t *testing.T) {
	s := newTestTokenService("secret")
	tok, err := s.Issue("alice@example.com")
	require.NoError(t, err)

	other, err := s.Issue("mallory@example.com")
	require.NoError(t, err)

	// header.payload of one token with the signature of another
	parts := strings.Split(tok, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, status := s.Parse(forged)
	assert.Equal(t, TokenInvalid, status)
}

func TestParse_Malformed(t *testing.T) {
	s := newTestTokenService("k")

	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, status := s.Parse(tok)
		assert.Equal(t, TokenInvalid, status, "token %q", tok)
	}
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	s := newTestTokenService("k")

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour))},
		Email:            "a@example.com",
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, status := s.Parse(tok)
	assert.Equal(t, TokenInvalid, status)
}

func TestParse_RequiresExpiryAndEmail(t *testing.T) {
	s := newTestTokenService("k")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "a@example.com"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, status := s.Parse(noExp)
	assert.Equal(t, TokenInvalid, status)

	noEmail, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour))},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, status = s.Parse(noEmail)
	assert.Equal(t, TokenInvalid, status)
}

func TestStatusError(t *testing.T) {
	assert.NoError(t, StatusError(TokenValid))
	assert.ErrorIs(t, StatusError(TokenExpired), common.ErrTokenExpired)
	assert.ErrorIs(t, StatusError(TokenInvalid), common.ErrInvalidToken)

	assert.Equal(t, "valid", TokenValid.String())
	assert.Equal(t, "expired", TokenExpired.String())
	assert.Equal(t, "invalid", TokenInvalid.String())
}
