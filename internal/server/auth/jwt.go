package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/authrelay/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session token payload: the standard registered claims and
// the email the token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenStatus is the internal outcome of parsing a token. Callers outside
// this package only ever see whether a token verified.
type TokenStatus int

const (
	TokenInvalid TokenStatus = iota
	TokenValid
	TokenExpired
)

func (s TokenStatus) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// TokenService issues and verifies stateless HS256 session tokens.
// Rotating the secret invalidates every outstanding token.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewTokenService(secret []byte, validity time.Duration) *TokenService {
	return &TokenService{secret: secret, validity: validity, now: time.Now}
}

// Issue signs a token for email, valid from now for the configured validity.
func (s *TokenService) Issue(email string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		Email: email,
	})

	return token.SignedString(s.secret)
}

// Parse checks signature and expiry and reports the outcome. Claims are
// only returned for TokenValid.
func (s *TokenService) Parse(tokenString string) (*Claims, TokenStatus) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, TokenExpired
		}
		return nil, TokenInvalid
	}

	if !token.Valid || claims.Email == "" {
		return nil, TokenInvalid
	}

	return claims, TokenValid
}

// StatusError maps a non-valid status to the matching sentinel, for logs.
func StatusError(status TokenStatus) error {
	switch status {
	case TokenValid:
		return nil
	case TokenExpired:
		return common.ErrTokenExpired
	default:
		return common.ErrInvalidToken
	}
}
