package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
)

// LocalTaskStore keeps one JSON array of tasks per user under TasksKey. The
// array order is the display order: new tasks are prepended and Reorder
// rewrites it.
type LocalTaskStore struct {
	store kv.Store
	now   func() time.Time

	mu sync.Mutex
}

func NewLocalTaskStore(store kv.Store) *LocalTaskStore {
	return &LocalTaskStore{store: store, now: time.Now}
}

func (s *LocalTaskStore) PersistsOrder() bool { return true }

func (s *LocalTaskStore) List(ctx context.Context, sess *models.Session) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, sess)
}

func (s *LocalTaskStore) Create(ctx context.Context, sess *models.Session, in models.TaskInput) (*models.Task, error) {
	t, err := models.NewTask(sess.UserID, in, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess, append([]*models.Task{t}, tasks...)); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *LocalTaskStore) Update(ctx context.Context, sess *models.Session, id string, patch models.TaskPatch) (*models.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, sess, id, func(t *models.Task) error {
		return patch.Apply(t, s.now().UTC())
	})
}

func (s *LocalTaskStore) Toggle(ctx context.Context, sess *models.Session, id string) (*models.Task, error) {
	return s.mutate(ctx, sess, id, func(t *models.Task) error {
		t.Completed = !t.Completed
		t.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *LocalTaskStore) Delete(ctx context.Context, sess *models.Session, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load(ctx, sess)
	if err != nil {
		return err
	}
	i, err := indexOwned(tasks, sess, id)
	if err != nil {
		return err
	}
	return s.save(ctx, sess, append(tasks[:i], tasks[i+1:]...))
}

// Reorder puts the tasks named in ids first, in that order. Tasks not named
// keep their relative order after them; unknown ids are ignored.
func (s *LocalTaskStore) Reorder(ctx context.Context, sess *models.Session, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load(ctx, sess)
	if err != nil {
		return err
	}

	byID := make(map[string]*models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	out := make([]*models.Task, 0, len(tasks))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
			delete(byID, id)
		}
	}
	for _, t := range tasks {
		if _, ok := byID[t.ID]; ok {
			out = append(out, t)
		}
	}
	return s.save(ctx, sess, out)
}

func (s *LocalTaskStore) mutate(ctx context.Context, sess *models.Session, id string, fn func(t *models.Task) error) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	i, err := indexOwned(tasks, sess, id)
	if err != nil {
		return nil, err
	}
	if err := fn(tasks[i]); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess, tasks); err != nil {
		return nil, err
	}
	return tasks[i], nil
}

func indexOwned(tasks []*models.Task, sess *models.Session, id string) (int, error) {
	for i, t := range tasks {
		if t.ID != id {
			continue
		}
		if t.OwnerID != sess.UserID {
			return -1, common.ErrorForbidden
		}
		return i, nil
	}
	return -1, common.ErrorNotFound
}

func (s *LocalTaskStore) load(ctx context.Context, sess *models.Session) ([]*models.Task, error) {
	raw, err := s.store.Get(ctx, TasksKey(sess.Email))
	if err != nil {
		return nil, storageError(err)
	}
	if len(raw) == 0 {
		return []*models.Task{}, nil
	}
	var tasks []*models.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, storageError(err)
	}
	return tasks, nil
}

func (s *LocalTaskStore) save(ctx context.Context, sess *models.Session, tasks []*models.Task) error {
	raw, err := json.Marshal(tasks)
	if err != nil {
		return common.ErrorInternal
	}
	if err := s.store.Set(ctx, TasksKey(sess.Email), raw); err != nil {
		return storageError(err)
	}
	return nil
}
