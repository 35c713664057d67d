package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTaskService(t *testing.T) *TaskService {
	t.Helper()
	s := NewTaskService(repomanager.NewMemoryRepositoryManager())
	clock := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func strPtr(s string) *string { return &s }

func TestTaskService_CreateDefaults(t *testing.T) {
	s := newTaskService(t)

	task, err := s.Create(context.Background(), "u1", models.TaskInput{Text: "  buy milk "})
	require.NoError(t, err)
	assert.Equal(t, "buy milk", task.Text)
	assert.Equal(t, common.DefaultCategory, task.Category)
	assert.False(t, task.Completed)
	assert.Nil(t, task.DueDate)
	assert.Equal(t, "u1", task.OwnerID)
}

func TestTaskService_CreateRejectsEmptyText(t *testing.T) {
	s := newTaskService(t)

	_, err := s.Create(context.Background(), "u1", models.TaskInput{Text: "   "})
	require.ErrorIs(t, err, common.ErrorEmptyText)

	list, err := s.List(context.Background(), "u1", models.FilterAll)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTaskService_ListIsScopedAndNewestFirst(t *testing.T) {
	s := newTaskService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "u1", models.TaskInput{Text: "first"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "u1", models.TaskInput{Text: "second", Completed: true})
	require.NoError(t, err)
	_, err = s.Create(ctx, "u2", models.TaskInput{Text: "theirs"})
	require.NoError(t, err)

	list, err := s.List(ctx, "u1", models.FilterAll)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Text)

	active, err := s.List(ctx, "u1", models.FilterActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "first", active[0].Text)
}

func TestTaskService_UpdateOwnership(t *testing.T) {
	s := newTaskService(t)
	ctx := context.Background()

	task, err := s.Create(ctx, "u1", models.TaskInput{Text: "mine", Category: "Work"})
	require.NoError(t, err)

	_, err = s.Update(ctx, "u2", task.ID, models.TaskPatch{Text: strPtr("hijack")})
	require.ErrorIs(t, err, common.ErrorForbidden)

	_, err = s.Update(ctx, "u1", "missing", models.TaskPatch{Text: strPtr("x")})
	require.ErrorIs(t, err, common.ErrorNotFound)

	unchanged, err := s.List(ctx, "u1", models.FilterAll)
	require.NoError(t, err)
	assert.Equal(t, "mine", unchanged[0].Text)
}

func TestTaskService_UpdatePartial(t *testing.T) {
	s := newTaskService(t)
	ctx := context.Background()

	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	task, err := s.Create(ctx, "u1", models.TaskInput{Text: "a", Category: "Work", DueDate: &due})
	require.NoError(t, err)

	done := true
	got, err := s.Update(ctx, "u1", task.ID, models.TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, "a", got.Text)
	assert.Equal(t, "Work", got.Category)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.UpdatedAt.After(task.UpdatedAt))

	got, err = s.Update(ctx, "u1", task.ID, models.TaskPatch{DueDate: models.NullableDate{Set: true}})
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)

	_, err = s.Update(ctx, "u1", task.ID, models.TaskPatch{Text: strPtr(" ")})
	require.ErrorIs(t, err, common.ErrorEmptyText)
}

func TestTaskService_ToggleTwiceRestores(t *testing.T) {
	s := newTaskService(t)
	ctx := context.Background()

	task, err := s.Create(ctx, "u1", models.TaskInput{Text: "a"})
	require.NoError(t, err)

	once, err := s.Toggle(ctx, "u1", task.ID)
	require.NoError(t, err)
	assert.True(t, once.Completed)

	twice, err := s.Toggle(ctx, "u1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Completed, twice.Completed)

	_, err = s.Toggle(ctx, "u2", task.ID)
	require.ErrorIs(t, err, common.ErrorForbidden)
}

func TestTaskService_Delete(t *testing.T) {
	s := newTaskService(t)
	ctx := context.Background()

	task, err := s.Create(ctx, "u1", models.TaskInput{Text: "a"})
	require.NoError(t, err)

	require.ErrorIs(t, s.Delete(ctx, "u2", task.ID), common.ErrorForbidden)
	require.NoError(t, s.Delete(ctx, "u1", task.ID))
	require.ErrorIs(t, s.Delete(ctx, "u1", task.ID), common.ErrorNotFound)
}

func TestTaskService_ClearCompletedKeepsActive(t *testing.T) {
	s := newTaskService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "u1", models.TaskInput{Text: "open"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "u1", models.TaskInput{Text: "done", Completed: true})
	require.NoError(t, err)

	n, err := s.ClearCompleted(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := s.List(ctx, "u1", models.FilterAll)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Completed)

	n, err = s.ClearAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
