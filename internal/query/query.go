// Package query derives views over a task collection: filter, sort, search.
// Only SortTasks touches its input, and only its order.
package query

import (
	"slices"
	"strings"

	"taskpad/internal/task"
)

type Filter string

const (
	FilterAll          Filter = "all"
	FilterCompleted    Filter = "completed"
	FilterPending      Filter = "pending"
	FilterHighPriority Filter = "highPriority"
)

// Filters lists the filters in the order the UI cycles through them.
func Filters() []Filter {
	return []Filter{FilterAll, FilterPending, FilterCompleted, FilterHighPriority}
}

// ParseFilter maps unknown or empty criteria to FilterAll.
func ParseFilter(v string) Filter {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "completed", "done":
		return FilterCompleted
	case "pending", "todo":
		return FilterPending
	case "highpriority", "high":
		return FilterHighPriority
	default:
		return FilterAll
	}
}

// Next returns the filter after f in Filters, wrapping around.
func (f Filter) Next() Filter {
	all := Filters()
	i := slices.Index(all, f)
	return all[(i+1)%len(all)]
}

func (f Filter) Match(t task.Task) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	case FilterHighPriority:
		return t.Priority == task.PriorityHigh
	default:
		return true
	}
}

func FilterTasks(tasks []task.Task, f Filter) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

type SortKey string

const (
	SortDueDate  SortKey = "dueDate"
	SortPriority SortKey = "priority"
)

func ParseSortKey(v string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "duedate", "due":
		return SortDueDate, true
	case "priority", "prio":
		return SortPriority, true
	default:
		return "", false
	}
}

// SortTasks reorders tasks in place. The sort is stable, and tasks without a
// due date go after every dated task when sorting by due date.
func SortTasks(tasks []task.Task, key SortKey) {
	switch key {
	case SortDueDate:
		slices.SortStableFunc(tasks, compareDue)
	case SortPriority:
		slices.SortStableFunc(tasks, func(a, b task.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		})
	}
}

func compareDue(a, b task.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Time().Compare(b.DueDate.Time())
}

// SearchTasks matches q case-insensitively against title or description.
// An empty query matches everything.
func SearchTasks(tasks []task.Task, q string) []task.Task {
	needle := strings.ToLower(q)
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if needle == "" ||
			strings.Contains(strings.ToLower(t.Title), needle) ||
			strings.Contains(strings.ToLower(t.Description), needle) {
			out = append(out, t)
		}
	}
	return out
}

func Stats(tasks []task.Task) (done, pending int) {
	for _, t := range tasks {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}
