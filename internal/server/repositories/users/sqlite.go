package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authrelay/internal/common"
	"github.com/dmitrijs2005/authrelay/internal/dbx"
	"github.com/dmitrijs2005/authrelay/internal/server/models"
)

// SQLiteRepository stores users in an embedded SQLite database.
// created_at is kept as unix milliseconds.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (email, name, password_hash, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, user.Email, user.Name, user.PasswordHash, user.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: db error: %w", common.ErrStorage, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: db error: %w", common.ErrStorage, err)
	}
	if n == 0 {
		return common.ErrAlreadyExists
	}

	return nil
}

func (r *SQLiteRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT email, name, password_hash, created_at FROM users WHERE email = ?`

	user := &models.User{}
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.Email, &user.Name, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: db error: %w", common.ErrStorage, err)
	}
	user.CreatedAt = time.UnixMilli(createdAt).UTC()

	return user, nil
}
