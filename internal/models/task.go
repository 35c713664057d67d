package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/google/uuid"
)

// DateLayout is the calendar-date form accepted for due dates.
const DateLayout = "2006-01-02"

// Task is a single to-do item owned by exactly one user.
type Task struct {
	ID        string     `json:"id" bson:"_id"`
	OwnerID   string     `json:"ownerId" bson:"owner_id"`
	Text      string     `json:"text" bson:"text"`
	Completed bool       `json:"completed" bson:"completed"`
	Category  string     `json:"category" bson:"category"`
	DueDate   *time.Time `json:"dueDate" bson:"due_date"`
	CreatedAt time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updated_at"`
}

// IsOverdue reports whether the task has a due date before now and is still open.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.Completed
}

// TaskInput carries the fields accepted when creating a task.
type TaskInput struct {
	Text      string
	Completed bool
	Category  string
	DueDate   *time.Time
}

// NewTask validates in and builds a task for ownerID. Text and category are
// trimmed; an empty category becomes common.DefaultCategory.
func NewTask(ownerID string, in TaskInput, now time.Time) (*Task, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, common.ErrorEmptyText
	}
	return &Task{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Text:      text,
		Completed: in.Completed,
		Category:  normalizeCategory(in.Category),
		DueDate:   in.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func normalizeCategory(c string) string {
	if c = strings.TrimSpace(c); c == "" {
		return common.DefaultCategory
	}
	return c
}

// ParseDueDate accepts "", a calendar date (YYYY-MM-DD, taken as UTC midnight)
// or an RFC 3339 timestamp. The empty string yields nil.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if d, err := time.Parse(DateLayout, s); err == nil {
		return &d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid due date %q", common.ErrorValidation, s)
	}
	return &d, nil
}

// NullableDate is a tri-state due date for patches: not Set means untouched,
// Set with a nil Value means clear.
type NullableDate struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON marks the field as present. null and "" clear the date.
func (d *NullableDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		d.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: dueDate must be a string", common.ErrorValidation)
	}
	v, err := ParseDueDate(s)
	if err != nil {
		return err
	}
	d.Value = v
	return nil
}

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Text      *string      `json:"text,omitempty"`
	Completed *bool        `json:"completed,omitempty"`
	Category  *string      `json:"category,omitempty"`
	DueDate   NullableDate `json:"dueDate"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Text == nil && p.Completed == nil && p.Category == nil && !p.DueDate.Set
}

// Validate rejects a text field that is blank after trimming.
func (p TaskPatch) Validate() error {
	if p.Text != nil && strings.TrimSpace(*p.Text) == "" {
		return common.ErrorEmptyText
	}
	return nil
}

// Apply validates the patch and writes the present fields into t.
func (p TaskPatch) Apply(t *Task, now time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Text != nil {
		t.Text = strings.TrimSpace(*p.Text)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Category != nil {
		t.Category = normalizeCategory(*p.Category)
	}
	if p.DueDate.Set {
		t.DueDate = p.DueDate.Value
	}
	t.UpdatedAt = now
	return nil
}

// MarshalJSON emits only the present fields; a cleared due date is sent as null.
func (p TaskPatch) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 4)
	if p.Text != nil {
		m["text"] = *p.Text
	}
	if p.Completed != nil {
		m["completed"] = *p.Completed
	}
	if p.Category != nil {
		m["category"] = *p.Category
	}
	if p.DueDate.Set {
		if p.DueDate.Value == nil {
			m["dueDate"] = nil
		} else {
			m["dueDate"] = p.DueDate.Value.Format(time.RFC3339)
		}
	}
	return json.Marshal(m)
}
