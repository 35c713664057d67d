package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Overdue(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	tasks := []*Task{
		{ID: "1", Completed: false, DueDate: &yesterday},
		{ID: "2", Completed: true, DueDate: &yesterday},
		{ID: "3", Completed: false, DueDate: &tomorrow},
	}

	got := FilterOverdue.Apply(tasks, now)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	assert.Len(t, FilterAll.Apply(tasks, now), 3)
	assert.Len(t, FilterActive.Apply(tasks, now), 2)
	assert.Len(t, FilterCompleted.Apply(tasks, now), 1)
}

func TestFilter_NoDueDateNeverOverdue(t *testing.T) {
	task := Task{}
	assert.False(t, task.IsOverdue(time.Now()))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("Pending")
	require.NoError(t, err)
	assert.Equal(t, FilterActive, f)

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	_, err = ParseFilter("someday")
	require.Error(t, err)
}

func TestCategories(t *testing.T) {
	tasks := []*Task{{Category: "Work"}, {Category: ""}, {Category: "Home"}, {Category: "Work"}}
	assert.Equal(t, []string{"General", "Work", "Home"}, Categories(tasks))
	assert.Equal(t, []string{"General"}, Categories(nil))
}
