package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/migrations"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// postgresRepositories binds repository constructors to a DBTX, which is
// either the pool or an open transaction.
type postgresRepositories struct {
	db dbx.DBTX
}

func (r postgresRepositories) Users() users.Repository {
	return users.NewPostgresRepository(r.db)
}

func (r postgresRepositories) Tasks() tasks.Repository {
	return tasks.NewPostgresRepository(r.db)
}

func (r postgresRepositories) RefreshTokens() refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(r.db)
}

// PostgresRepositoryManager vends PostgreSQL-backed repositories and applies
// the embedded goose migrations.
type PostgresRepositoryManager struct {
	postgresRepositories
	db *sql.DB
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// OpenPostgres connects with the pgx driver and checks the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	return NewPostgresRepositoryManager(db), nil
}

// NewPostgresRepositoryManager wraps an already opened database.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{postgresRepositories: postgresRepositories{db: db}, db: db}
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, postgresRepositories{db: tx})
	})
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the database.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) Close(ctx context.Context) error {
	return m.db.Close()
}
