package task

import "strings"

// Patch carries a partial update. Nil fields are left untouched. There is no
// ID field: a task's id never changes.
type Patch struct {
	Title        *string
	Description  *string
	Priority     *Priority
	DueDate      *Date
	ClearDueDate bool
	Completed    *bool
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.Completed == nil
}

func (p Patch) Validate() error {
	if p.Title != nil {
		if _, err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Priority != nil {
		if _, err := ParsePriority(string(*p.Priority)); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the set fields into t. Call Validate first.
func (p Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority, _ = ParsePriority(string(*p.Priority))
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
