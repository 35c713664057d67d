package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/client/client"
	"github.com/dmitrijs2005/todokeeper/internal/models"
)

// RemoteTaskStore forwards every operation to the server. The server scopes
// tasks by the credentials the APIClient carries, so the session argument
// only identifies the caller locally.
type RemoteTaskStore struct {
	api *client.APIClient
}

func NewRemoteTaskStore(api *client.APIClient) *RemoteTaskStore {
	return &RemoteTaskStore{api: api}
}

func (s *RemoteTaskStore) PersistsOrder() bool { return false }

func (s *RemoteTaskStore) List(ctx context.Context, sess *models.Session) ([]*models.Task, error) {
	return s.api.ListTodos(ctx)
}

func (s *RemoteTaskStore) Create(ctx context.Context, sess *models.Session, in models.TaskInput) (*models.Task, error) {
	req := client.CreateTodoRequest{Text: in.Text, Completed: in.Completed, Category: in.Category}
	if in.DueDate != nil {
		req.DueDate = in.DueDate.Format(time.RFC3339)
	}
	return s.api.CreateTodo(ctx, req)
}

func (s *RemoteTaskStore) Update(ctx context.Context, sess *models.Session, id string, patch models.TaskPatch) (*models.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.api.UpdateTodo(ctx, id, patch)
}

func (s *RemoteTaskStore) Toggle(ctx context.Context, sess *models.Session, id string) (*models.Task, error) {
	return s.api.ToggleTodo(ctx, id)
}

func (s *RemoteTaskStore) Delete(ctx context.Context, sess *models.Session, id string) error {
	return s.api.DeleteTodo(ctx, id)
}

// Reorder is a no-op: the server has no ordering endpoint, so a manual
// order lives only in the controller's view.
func (s *RemoteTaskStore) Reorder(ctx context.Context, sess *models.Session, ids []string) error {
	return nil
}
