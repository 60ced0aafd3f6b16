// Package services contains server-side business logic. This file implements
// UserService, which handles signup, login and session token verification.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/authrelay/internal/common"
	"github.com/dmitrijs2005/authrelay/internal/logging"
	"github.com/dmitrijs2005/authrelay/internal/server/auth"
	"github.com/dmitrijs2005/authrelay/internal/server/models"
	"github.com/dmitrijs2005/authrelay/internal/server/repositories/users"
)

// TokenIssuer issues session tokens and reports how a token parsed.
// *auth.TokenService implements it.
type TokenIssuer interface {
	Issue(email string) (string, error)
	Parse(token string) (*auth.Claims, auth.TokenStatus)
}

// Session is the outcome of a successful login.
type Session struct {
	Token string
	Name  string
	Email string
}

// UserService provides authentication-related operations:
// - Signup: create users with a hashed password
// - Login: verify credentials and issue a session token
// - Verify: resolve a session token back to its user
type UserService struct {
	repo   users.Repository
	hasher auth.PasswordHasher
	tokens TokenIssuer
	log    logging.Logger
	now    func() time.Time

	// signupMu serialises the check-then-create sequence of Signup.
	signupMu sync.Mutex
}

// NewUserService constructs a UserService.
func NewUserService(repo users.Repository, hasher auth.PasswordHasher, tokens TokenIssuer, log logging.Logger) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
}

// Signup creates a user. All fields are required. It returns
// common.ErrAlreadyExists when the email is taken and common.ErrValidation
// for missing fields or a password bcrypt cannot hash.
func (s *UserService) Signup(ctx context.Context, name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return common.ErrValidation
	}

	// Cheap pre-check so a duplicate never pays for hashing.
	if err := s.ensureFree(ctx, email); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return fmt.Errorf("%w: %w", common.ErrValidation, err)
		}
		return fmt.Errorf("%w: hashing password: %w", common.ErrInternal, err)
	}

	s.signupMu.Lock()
	defer s.signupMu.Unlock()

	if err := s.ensureFree(ctx, email); err != nil {
		return err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return err
	}

	s.log.Info(ctx, "user signed up", "email", email)
	return nil
}

func (s *UserService) ensureFree(ctx context.Context, email string) error {
	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return common.ErrAlreadyExists
	case errors.Is(err, common.ErrNotFound):
		return nil
	default:
		return err
	}
}

// Login checks the credentials and issues a session token.
// Unknown emails yield common.ErrNotFound, wrong passwords common.ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, common.ErrValidation
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrUnauthorized
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: issuing token: %w", common.ErrInternal, err)
	}

	return &Session{Token: token, Name: user.Name, Email: user.Email}, nil
}

// Verify resolves token to the user it was issued to. Any token problem,
// including a user that no longer exists, is reported as
// common.ErrInvalidToken without further detail.
func (s *UserService) Verify(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrInvalidToken
	}

	claims, status := s.tokens.Parse(token)
	if status != auth.TokenValid {
		s.log.Debug(ctx, "token rejected", "status", status.String(), "error", auth.StatusError(status))
		return nil, common.ErrInvalidToken
	}

	user, err := s.repo.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.log.Debug(ctx, "token for unknown user", "email", claims.Email)
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}
