package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/authrelay/internal/dbx"
	"github.com/dmitrijs2005/authrelay/internal/filex"
	"github.com/dmitrijs2005/authrelay/internal/server/migrations"
	"github.com/dmitrijs2005/authrelay/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends repositories over an embedded SQLite file.
type SQLiteRepositoryManager struct {
	db *sql.DB
}

// NewSQLiteRepositoryManager opens the database file at path, creating it
// and its directory when missing. A single connection is used so writers
// never see SQLITE_BUSY.
func NewSQLiteRepositoryManager(ctx context.Context, path string) (*SQLiteRepositoryManager, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := dbx.WaitReady(ctx, db, 0, pingBackoff); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteRepositoryManager{db: db}, nil
}

func (m *SQLiteRepositoryManager) Users() users.Repository {
	return users.NewSQLiteRepository(m.db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.SQLite)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, "sqlite")
}

func (m *SQLiteRepositoryManager) Close() error {
	return m.db.Close()
}
