// Package auth provides password hashing and session token primitives.
package auth

import "golang.org/x/crypto/bcrypt"

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash without
// truncation (more than 72 bytes).
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// maxPasswordLen is the longest input bcrypt uses in full.
const maxPasswordLen = 72

// PasswordHasher hashes passwords and checks candidates against a hash.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. A malformed hash is a
	// mismatch, not an error.
	Verify(password, hash string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt at a fixed cost.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify rejects passwords over 72 bytes outright: bcrypt compares only
// the first 72 and would accept any suffix.
func (h *BcryptHasher) Verify(password, hash string) bool {
	if len(password) > maxPasswordLen {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
