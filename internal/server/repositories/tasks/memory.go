package tasks

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	tasks map[string]models.Task
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tasks: make(map[string]models.Task)}
}

func (r *MemoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Task, 0)
	for _, t := range r.tasks {
		if t.OwnerID == ownerID {
			c := t
			result = append(result, &c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepository) Create(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[task.ID] = *task
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) Update(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tasks[task.ID]
	if !ok {
		return common.ErrorNotFound
	}
	stored.Text = task.Text
	stored.Completed = task.Completed
	stored.Category = task.Category
	stored.DueDate = task.DueDate
	stored.UpdatedAt = task.UpdatedAt
	r.tasks[task.ID] = stored
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryRepository) DeleteByOwner(ctx context.Context, ownerID string, completedOnly bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.tasks {
		if t.OwnerID == ownerID && (!completedOnly || t.Completed) {
			delete(r.tasks, id)
			n++
		}
	}
	return n, nil
}
