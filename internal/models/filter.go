package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
)

// Filter selects which tasks a list view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
	FilterOverdue   Filter = "overdue"
)

// ParseFilter accepts the filter names case-insensitively; "pending" is an
// alias of "active".
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterActive, FilterCompleted, FilterOverdue:
		return f, nil
	case "pending":
		return FilterActive, nil
	case "":
		return FilterAll, nil
	}
	return "", fmt.Errorf("%w: unknown filter %q", common.ErrorValidation, s)
}

// Match reports whether t passes the filter at time now.
func (f Filter) Match(t *Task, now time.Time) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	case FilterOverdue:
		return t.IsOverdue(now)
	}
	return true
}

// Apply returns the tasks passing f, preserving order.
func (f Filter) Apply(tasks []*Task, now time.Time) []*Task {
	out := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t, now) {
			out = append(out, t)
		}
	}
	return out
}

// Categories returns common.DefaultCategory followed by every other category
// present in tasks, in order of first appearance.
func Categories(tasks []*Task) []string {
	seen := map[string]struct{}{common.DefaultCategory: {}}
	out := []string{common.DefaultCategory}
	for _, t := range tasks {
		c := t.Category
		if c == "" {
			c = common.DefaultCategory
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
