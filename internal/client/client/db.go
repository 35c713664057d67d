package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/client/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations brings the local schema up to date. It uses a goose
// Provider rather than the package-level goose state, so several databases
// can be migrated at once.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// InitDatabase opens the SQLite file at dsn and applies migrations. The
// caller owns the returned handle.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
