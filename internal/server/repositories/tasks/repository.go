// Package tasks declares the task store contract and its PostgreSQL, MongoDB
// and in-memory implementations. Ownership checks live in the service layer;
// repositories address tasks by id only.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/todokeeper/internal/models"
)

type Repository interface {
	// ListByOwner returns the owner's tasks, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Task, error)

	Create(ctx context.Context, task *models.Task) error

	// Get returns common.ErrorNotFound when id does not resolve.
	Get(ctx context.Context, id string) (*models.Task, error)

	// Update overwrites the mutable fields of the stored task with task.ID.
	// It returns common.ErrorNotFound when the task is gone.
	Update(ctx context.Context, task *models.Task) error

	// Delete returns common.ErrorNotFound when id does not resolve.
	Delete(ctx context.Context, id string) error

	// DeleteByOwner removes the owner's tasks, or only the completed ones
	// when completedOnly is set, and reports how many were removed.
	DeleteByOwner(ctx context.Context, ownerID string, completedOnly bool) (int64, error)
}
