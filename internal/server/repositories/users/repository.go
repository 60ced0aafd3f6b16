// Package users implements the credential store: lookup by email and
// append-only creation of user records.
package users

import (
	"context"

	"github.com/dmitrijs2005/authrelay/internal/server/models"
)

// Repository persists user records.
//
// FindByEmail returns common.ErrNotFound when no record matches. Create
// returns common.ErrAlreadyExists when the email is taken. Failures of the
// backing medium are wrapped with common.ErrStorage.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}
