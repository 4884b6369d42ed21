package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"taskpad/internal/task"
)

// formState backs both the add and the edit form. taskID is only meaningful
// when editing.
type formState struct {
	editing     bool
	taskID      int64
	title       string
	description string
	priority    string
	due         string
	index       int
}

func formFields() []string {
	return []string{"title", "description", "priority (high/medium/low)", "due date (YYYY-MM-DD)"}
}

func (fs formState) heading() string {
	if !fs.editing {
		return "New task"
	}
	return fmt.Sprintf("Edit task #%d", fs.taskID)
}

func (fs formState) currentLabel() string {
	return formFields()[fs.index]
}

func (fs formState) values() []string {
	return []string{fs.title, fs.description, fs.priority, fs.due}
}

func (fs formState) currentValue() string {
	return fs.values()[fs.index]
}

func (fs *formState) setCurrentValue(v string) {
	switch fs.index {
	case 0:
		fs.title = v
	case 1:
		fs.description = v
	case 2:
		fs.priority = v
	case 3:
		fs.due = v
	}
}

func (m Model) startForm(t *task.Task) (tea.Model, tea.Cmd) {
	fs := &formState{priority: string(task.PriorityMedium)}
	if t != nil {
		fs = &formState{
			editing:     true,
			taskID:      t.ID,
			title:       t.Title,
			description: t.Description,
			priority:    string(t.Priority),
		}
		if t.DueDate != nil {
			fs.due = t.DueDate.String()
		}
	}
	m.form = fs
	m.mode = modeForm
	m.syncInput()
	m.input.Focus()
	m.status = m.formPrompt()
	return m, nil
}

func (m *Model) syncInput() {
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = m.form.currentLabel()
	m.input.CursorEnd()
}

func (m Model) updateFormMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.form = nil
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case "tab", "down":
		m.form.setCurrentValue(m.input.Value())
		m.form.index = wrapIndex(m.form.index+1, len(formFields()))
		m.syncInput()
		m.status = m.formPrompt()
		return m, nil
	case "shift+tab", "up":
		m.form.setCurrentValue(m.input.Value())
		m.form.index = wrapIndex(m.form.index-1, len(formFields()))
		m.syncInput()
		m.status = m.formPrompt()
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.form.setCurrentValue(m.input.Value())
		if m.form.index >= len(formFields())-1 {
			return m.saveForm()
		}
		m.form.index++
		m.syncInput()
		m.status = m.formPrompt()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// saveForm validates every field up front so a bad value never half-applies.
func (m Model) saveForm() (tea.Model, tea.Cmd) {
	fs := m.form
	title, err := task.ValidateTitle(fs.title)
	if err != nil {
		return m.formError(0, err)
	}
	priority, err := task.ParsePriority(fs.priority)
	if err != nil {
		return m.formError(2, err)
	}
	due, err := task.ParseDate(fs.due)
	if err != nil {
		return m.formError(3, err)
	}

	if !fs.editing {
		if _, err := m.store.Add(title, fs.description, priority, due); err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		m.status = "Added task"
	} else {
		desc := fs.description
		patch := task.Patch{
			Title:        &title,
			Description:  &desc,
			Priority:     &priority,
			DueDate:      due,
			ClearDueDate: due == nil,
		}
		_, found, err := m.store.Update(fs.taskID, patch)
		if err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		if !found {
			m.status = "Task no longer exists"
		} else {
			m.status = "Saved task"
		}
	}

	m.form = nil
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
	return m, nil
}

func (m Model) formError(field int, err error) (tea.Model, tea.Cmd) {
	m.form.index = field
	m.syncInput()
	m.status = err.Error()
	return m, nil
}

func (m Model) formPrompt() string {
	if m.form == nil {
		return ""
	}
	return fmt.Sprintf("Editing %s (field %d of %d). Enter to advance, Esc to cancel, tab to move.",
		m.form.currentLabel(), m.form.index+1, len(formFields()))
}

func (m Model) renderFormBox() string {
	if m.form == nil {
		return ""
	}
	values := m.form.values()
	var b strings.Builder
	for i, name := range formFields() {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		val := values[i]
		if strings.TrimSpace(val) == "" {
			val = "(empty)"
		}
		b.WriteString(fmt.Sprintf("%s %-26s : %s\n", prefix, name, val))
	}
	return b.String()
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
