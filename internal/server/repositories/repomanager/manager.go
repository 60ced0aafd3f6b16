package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/authrelay/internal/server/config"
	"github.com/dmitrijs2005/authrelay/internal/server/repositories/users"
)

// RepositoryManager owns a credential store connection and vends the
// repositories built on top of it.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Close() error
}

// New opens the store selected by cfg.StoreBackend.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		return NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	case config.StoreSQLite:
		return NewSQLiteRepositoryManager(ctx, cfg.SQLitePath)
	case config.StoreS3:
		return NewS3RepositoryManager(ctx, S3Options{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
			ObjectKey:    cfg.S3ObjectKey,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
