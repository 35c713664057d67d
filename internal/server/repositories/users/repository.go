// Package users declares the credential store contract and its PostgreSQL,
// MongoDB and in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/todokeeper/internal/models"
)

// Repository stores registered users. Users are never updated or deleted.
type Repository interface {
	// Create inserts user. It returns common.ErrorDuplicateUser when the email
	// is already registered.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByEmail returns common.ErrorNotFound when no user has email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns common.ErrorNotFound when no user has id.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
