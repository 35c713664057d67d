package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
)

// TaskService enforces ownership on top of the task repository. A task that
// does not exist yields common.ErrorNotFound; one owned by someone else
// yields common.ErrorForbidden.
type TaskService struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewTaskService(m repomanager.RepositoryManager) *TaskService {
	return &TaskService{repomanager: m, now: time.Now}
}

// List returns the owner's tasks, newest first, narrowed by filter.
func (s *TaskService) List(ctx context.Context, ownerID string, filter models.Filter) ([]*models.Task, error) {
	tasks, err := s.repomanager.Tasks().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return filter.Apply(tasks, s.now()), nil
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in models.TaskInput) (*models.Task, error) {
	task, err := models.NewTask(ownerID, in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.Tasks().Create(ctx, task); err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return task, nil
}

// Update applies patch to the task. Absent fields are left untouched.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, patch models.TaskPatch) (*models.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, ownerID, id, func(t *models.Task) error {
		return patch.Apply(t, s.now().UTC())
	})
}

// Toggle flips the completion flag.
func (s *TaskService) Toggle(ctx context.Context, ownerID, id string) (*models.Task, error) {
	return s.mutate(ctx, ownerID, id, func(t *models.Task) error {
		t.Completed = !t.Completed
		t.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	return s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := s.owned(ctx, r, ownerID, id); err != nil {
			return err
		}
		return r.Tasks().Delete(ctx, id)
	})
}

// ClearCompleted removes the owner's completed tasks.
func (s *TaskService) ClearCompleted(ctx context.Context, ownerID string) (int64, error) {
	return s.repomanager.Tasks().DeleteByOwner(ctx, ownerID, true)
}

// ClearAll removes every task of the owner.
func (s *TaskService) ClearAll(ctx context.Context, ownerID string) (int64, error) {
	return s.repomanager.Tasks().DeleteByOwner(ctx, ownerID, false)
}

func (s *TaskService) mutate(ctx context.Context, ownerID, id string, fn func(t *models.Task) error) (*models.Task, error) {
	var result *models.Task
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		task, err := s.owned(ctx, r, ownerID, id)
		if err != nil {
			return err
		}
		if err := fn(task); err != nil {
			return err
		}
		if err := r.Tasks().Update(ctx, task); err != nil {
			return err
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *TaskService) owned(ctx context.Context, r repomanager.Repositories, ownerID, id string) (*models.Task, error) {
	task, err := r.Tasks().Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading task: %w", err)
	}
	if task.OwnerID != ownerID {
		return nil, common.ErrorForbidden
	}
	return task, nil
}
