package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Task is a single to-do record. The JSON layout is the persisted format.
type Task struct {
	ID          int64    `json:"id" yaml:"id" toml:"id"`
	Title       string   `json:"title" yaml:"title" toml:"title"`
	Description string   `json:"description" yaml:"description" toml:"description"`
	Priority    Priority `json:"priority" yaml:"priority" toml:"priority"`
	DueDate     *Date    `json:"dueDate" yaml:"dueDate,omitempty" toml:"dueDate,omitempty"`
	Completed   bool     `json:"completed" yaml:"completed" toml:"completed"`
}

// New builds a pending task. Inputs are expected to be validated already.
func New(id int64, title, description string, priority Priority, due *Date) Task {
	return Task{
		ID:          id,
		Title:       title,
		Description: description,
		Priority:    priority,
		DueDate:     due,
		Completed:   false,
	}
}

// HasDue reports whether the task carries a deadline.
func (t Task) HasDue() bool {
	return t.DueDate != nil
}

// Overdue reports whether a pending task's due date lies before today.
func (t Task) Overdue(today Date) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(today)
}

// UnmarshalJSON accepts an empty string as "no due date", which is what an
// empty date form field produces. A null record or one without a valid
// priority is an error.
func (t *Task) UnmarshalJSON(b []byte) error {
	if body := bytes.TrimSpace(b); len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return errors.New("task record is null")
	}
	type alias Task
	aux := struct {
		*alias
		DueDate *string `json:"dueDate"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.DueDate = nil
	if aux.DueDate != nil {
		due, err := ParseDate(*aux.DueDate)
		if err != nil {
			return fmt.Errorf("task %d: %w", t.ID, err)
		}
		t.DueDate = due
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("task %d: %w: %q", t.ID, ErrInvalidPriority, t.Priority)
	}
	return nil
}

// ValidateTitle trims the title and rejects blank ones.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrEmptyTitle
	}
	return trimmed, nil
}
