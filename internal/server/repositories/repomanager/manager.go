// Package repomanager vends the repositories of one storage driver and runs
// work that must observe a consistent view of them.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/users"
)

// Repositories groups the stores used by the services.
type Repositories interface {
	Users() users.Repository
	Tasks() tasks.Repository
	RefreshTokens() refreshtokens.Repository
}

// RepositoryManager is implemented once per storage driver.
type RepositoryManager interface {
	Repositories

	// WithTx runs fn with repositories bound to a single transaction where the
	// driver supports one; otherwise fn sees the manager's own repositories.
	WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error

	// RunMigrations brings the schema (tables or indexes) up to date.
	RunMigrations(ctx context.Context) error

	Close(ctx context.Context) error
}

// New opens the storage selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		return OpenPostgres(ctx, cfg.DatabaseDSN)
	case config.StorageMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.StorageMemory:
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
