// Package controller holds the view state of a signed-in user's task list
// and turns user gestures into TaskStore calls. After a mutation only the
// affected task is reconciled from the store's answer; the list is never
// reloaded wholesale.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/client/services"
	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"go.uber.org/multierr"
)

// Form carries the values of the add-or-edit form. DueDate is the raw user
// input; empty means no due date.
type Form struct {
	Text     string
	Category string
	DueDate  string
}

// BulkError lists the tasks a bulk delete could not remove. Err combines the
// individual failures.
type BulkError struct {
	Failed []string
	Err    error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("%d task(s) could not be deleted: %v", len(e.Failed), e.Err)
}

func (e *BulkError) Unwrap() []error { return multierr.Errors(e.Err) }

type Controller struct {
	store   services.TaskStore
	session *models.Session
	now     func() time.Time

	mu      sync.Mutex
	tasks   []*models.Task
	filter  models.Filter
	editing string
}

func New(store services.TaskStore, s *models.Session) *Controller {
	return &Controller{store: store, session: s, now: time.Now, filter: models.FilterAll}
}

// Load replaces the list with the store's content. On failure the last
// known-good list stays in place.
func (c *Controller) Load(ctx context.Context) error {
	tasks, err := c.store.List(ctx, c.session)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = tasks
	if c.editing != "" && c.indexOf(c.editing) < 0 {
		c.editing = ""
	}
	return nil
}

// Tasks returns the whole list in display order.
func (c *Controller) Tasks() []*models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*models.Task(nil), c.tasks...)
}

// Visible returns the tasks passing the current filter, in display order.
func (c *Controller) Visible() []*models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.Apply(c.tasks, c.now())
}

func (c *Controller) SetFilter(f models.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
}

func (c *Controller) Filter() models.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Categories is "General" plus every category present in the list.
func (c *Controller) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Categories(c.tasks)
}

func (c *Controller) IsOverdue(t *models.Task) bool {
	return t.IsOverdue(c.now())
}

// StartEdit points the form at task id, discarding any edit in progress.
func (c *Controller) StartEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(id) < 0 {
		return common.ErrorNotFound
	}
	c.editing = id
	return nil
}

func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = ""
}

// Editing returns the task being edited, or nil.
func (c *Controller) Editing() *models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(c.editing); i >= 0 {
		return c.tasks[i]
	}
	return nil
}

// Submit updates the task being edited, or creates a new one when no edit
// is in progress. Invalid input is rejected before the store is called and
// leaves the edit pointer as it was.
func (c *Controller) Submit(ctx context.Context, f Form) (*models.Task, error) {
	if strings.TrimSpace(f.Text) == "" {
		return nil, common.ErrorEmptyText
	}
	due, err := models.ParseDueDate(f.DueDate)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	editing := c.editing
	c.mu.Unlock()

	if editing == "" {
		t, err := c.store.Create(ctx, c.session, models.TaskInput{Text: f.Text, Category: f.Category, DueDate: due})
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.tasks = append([]*models.Task{t}, c.tasks...)
		c.mu.Unlock()
		return t, nil
	}

	text, category := f.Text, f.Category
	patch := models.TaskPatch{
		Text:     &text,
		Category: &category,
		DueDate:  models.NullableDate{Set: true, Value: due},
	}
	t, err := c.store.Update(ctx, c.session, editing, patch)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.reconcile(t)
	if c.editing == editing {
		c.editing = ""
	}
	c.mu.Unlock()
	return t, nil
}

func (c *Controller) Toggle(ctx context.Context, id string) (*models.Task, error) {
	t, err := c.store.Toggle(ctx, c.session, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.reconcile(t)
	c.mu.Unlock()
	return t, nil
}

// Delete removes task id. A task the store no longer knows is dropped from
// the view as well, but the NotFound is still reported.
func (c *Controller) Delete(ctx context.Context, id string) error {
	err := c.store.Delete(ctx, c.session, id)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	c.mu.Lock()
	c.remove(map[string]bool{id: true})
	c.mu.Unlock()
	return err
}

// ClearCompleted deletes every completed task and returns how many went.
func (c *Controller) ClearCompleted(ctx context.Context) (int, error) {
	return c.clear(ctx, func(t *models.Task) bool { return t.Completed })
}

// ClearAll deletes every task and returns how many went.
func (c *Controller) ClearAll(ctx context.Context) (int, error) {
	return c.clear(ctx, func(*models.Task) bool { return true })
}

// clear issues one delete per matching task concurrently and waits for all
// of them. Only the tasks the store confirmed are removed from the view;
// the rest are reported in a *BulkError.
func (c *Controller) clear(ctx context.Context, match func(t *models.Task) bool) (int, error) {
	c.mu.Lock()
	var targets []string
	for _, t := range c.tasks {
		if match(t) {
			targets = append(targets, t.ID)
		}
	}
	c.mu.Unlock()

	results := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, id := range targets {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i] = c.store.Delete(ctx, c.session, id)
		}(i, id)
	}
	wg.Wait()

	deleted := make(map[string]bool, len(targets))
	var failed []string
	var errs error
	for i, id := range targets {
		err := results[i]
		if err == nil || errors.Is(err, common.ErrorNotFound) {
			deleted[id] = true
			continue
		}
		failed = append(failed, id)
		errs = multierr.Append(errs, fmt.Errorf("task %s: %w", id, err))
	}

	c.mu.Lock()
	c.remove(deleted)
	c.mu.Unlock()

	if len(failed) > 0 {
		return len(deleted), &BulkError{Failed: failed, Err: errs}
	}
	return len(deleted), nil
}

// Move places task fromID at the position of task toID. The view changes
// at once; if the store refuses the new order the move is rolled back.
func (c *Controller) Move(ctx context.Context, fromID, toID string) error {
	c.mu.Lock()
	from, to := c.indexOf(fromID), c.indexOf(toID)
	if from < 0 || to < 0 {
		c.mu.Unlock()
		return common.ErrorNotFound
	}
	c.tasks = relocate(c.tasks, from, to)

	ids := make([]string, len(c.tasks))
	for i, t := range c.tasks {
		ids[i] = t.ID
	}
	c.mu.Unlock()

	if err := c.store.Reorder(ctx, c.session, ids); err != nil {
		// undo only this move; changes made meanwhile stay
		c.mu.Lock()
		if i := c.indexOf(fromID); i >= 0 {
			c.tasks = relocate(c.tasks, i, min(from, len(c.tasks)-1))
		}
		c.mu.Unlock()
		return err
	}
	return nil
}

// relocate returns a copy of tasks with the element at from moved to index to.
func relocate(tasks []*models.Task, from, to int) []*models.Task {
	t := tasks[from]
	rest := append(append([]*models.Task(nil), tasks[:from]...), tasks[from+1:]...)
	out := make([]*models.Task, 0, len(tasks))
	out = append(out, rest[:to]...)
	out = append(out, t)
	return append(out, rest[to:]...)
}

// reconcile replaces the task with t's id by t. A task that has meanwhile
// left the view is not brought back. Callers hold c.mu.
func (c *Controller) reconcile(t *models.Task) {
	if i := c.indexOf(t.ID); i >= 0 {
		c.tasks[i] = t
	}
}

// remove drops the tasks in ids from the view. Callers hold c.mu.
func (c *Controller) remove(ids map[string]bool) {
	kept := c.tasks[:0:0]
	for _, t := range c.tasks {
		if !ids[t.ID] {
			kept = append(kept, t)
		}
	}
	c.tasks = kept
	if ids[c.editing] {
		c.editing = ""
	}
}

func (c *Controller) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
