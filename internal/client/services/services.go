// Package services holds the two client variants behind common interfaces:
// the local variant keeps users, the session marker and tasks in a kv.Store,
// the remote variant delegates to the REST server through client.APIClient.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
)

// Keys of the local key-value layout.
const (
	KeyUsers   = "users"
	KeySession = "session"
)

// TasksKey is the key of the task collection of the user with email.
func TasksKey(email string) string {
	return "todos_" + email
}

// Gate establishes, resumes and ends sessions.
type Gate interface {
	Register(ctx context.Context, name, email, password string) (*models.Session, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	// InitSession resolves the persisted session marker once at start-up. It
	// returns nil when there is no marker or the marker no longer resolves,
	// in which case the marker is cleared.
	InitSession(ctx context.Context) (*models.Session, error)
	Logout(ctx context.Context, s *models.Session) error
}

// TaskStore is the per-user task collection. Every call is scoped to s.
type TaskStore interface {
	List(ctx context.Context, s *models.Session) ([]*models.Task, error)
	Create(ctx context.Context, s *models.Session, in models.TaskInput) (*models.Task, error)
	Update(ctx context.Context, s *models.Session, id string, patch models.TaskPatch) (*models.Task, error)
	Toggle(ctx context.Context, s *models.Session, id string) (*models.Task, error)
	Delete(ctx context.Context, s *models.Session, id string) error
	// Reorder stores ids as the display order. Stores that cannot persist
	// an order accept the call and do nothing.
	Reorder(ctx context.Context, s *models.Session, ids []string) error
	PersistsOrder() bool
}

func storageError(err error) error {
	return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
}
