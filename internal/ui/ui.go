package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskpad/internal/config"
	"taskpad/internal/query"
	"taskpad/internal/render"
	"taskpad/internal/store"
	"taskpad/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeForm
	modeSearch
)

// changedMsg is delivered once per store notification.
type changedMsg store.Event

type Model struct {
	store       *store.Store
	cfg         config.Config
	changes     chan store.Event
	unsubscribe func()

	view       []task.Task
	cursor     int
	mode       mode
	input      textinput.Model
	status     string
	filter     query.Filter
	search     string
	pendingKey string
	confirmDel bool
	pendingDel *task.Task
	form       *formState
	today      task.Date
	st         render.Styles
}

// New subscribes the model to s. Call Close when the program exits.
func New(s *store.Store, cfg config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 256
	ti.Width = 40

	changes := make(chan store.Event, 64)
	unsubscribe := s.Subscribe(func(ev store.Event) {
		select {
		case changes <- ev:
		default:
			// a refresh is already queued
		}
	})

	m := Model{
		store:       s,
		cfg:         cfg,
		changes:     changes,
		unsubscribe: unsubscribe,
		input:       ti,
		mode:        modeList,
		filter:      query.ParseFilter(cfg.DefaultFilter),
		status:      fmt.Sprintf("Press '%s' to add, space to toggle, '%s' to delete.", cfg.Keys.Add, cfg.Keys.Delete),
		today:       task.Today(),
		st:          render.NewStyles(lipgloss.DefaultRenderer()),
	}
	m.refresh()
	return m
}

func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func Run(s *store.Store, cfg config.Config) error {
	if key, ok := query.ParseSortKey(cfg.DefaultSort); ok {
		s.Sort(key)
	}
	m := New(s, cfg)
	defer m.Close()

	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func waitForChange(ch <-chan store.Event) tea.Cmd {
	return func() tea.Msg {
		return changedMsg(<-ch)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.onChange(store.Event(msg))
		return m, waitForChange(m.changes)
	case tea.KeyMsg:
		if m.form != nil {
			return m.updateFormMode(msg.String(), msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		if m.mode == modeSearch {
			return m.updateSearchMode(msg.String(), msg)
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

// onChange re-derives the visible list and keeps the cursor on something sensible.
func (m *Model) onChange(ev store.Event) {
	var keep int64
	if ev.Op == store.OpAdd || ev.Op == store.OpUpdate {
		keep = ev.ID
	} else if cur, ok := m.current(); ok {
		keep = cur.ID
	}
	m.refresh()
	for i, t := range m.view {
		if t.ID == keep {
			m.cursor = i
			return
		}
	}
}

func (m *Model) refresh() {
	m.view = m.store.View(m.filter, m.search)
	m.cursor = clampCursor(m.cursor, len(m.view))
}

func (m Model) current() (task.Task, bool) {
	if len(m.view) == 0 {
		return task.Task{}, false
	}
	return m.view[clampCursor(m.cursor, len(m.view))], true
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	combo, prefix := m.chord(key)
	m.pendingKey = ""
	if prefix {
		m.pendingKey = combo
		m.status = "…" + combo
		return m, nil
	}
	if combo != "" {
		key = combo
	}

	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		if len(m.view) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(m.view))
	case k.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.view))
		}
	case k.Add:
		return m.startForm(nil)
	case k.Edit:
		t, ok := m.current()
		if !ok {
			m.status = "No tasks to edit"
			return m, nil
		}
		return m.startForm(&t)
	case k.Toggle:
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		if after, found := m.store.Toggle(t.ID); found {
			m.status = "Marked " + humanDone(after.Completed)
		}
	case k.Delete:
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case k.Filter:
		m.filter = m.filter.Next()
		m.refresh()
		m.status = "Filter: " + string(m.filter)
	case k.Search:
		m.mode = modeSearch
		m.input.SetValue(m.search)
		m.input.Placeholder = "search title or description"
		m.input.CursorEnd()
		m.input.Focus()
		m.status = "Search: type to filter, enter to keep, esc to clear"
	case k.PriorityUp, k.PriorityDown:
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		p := t.Priority.Raise()
		if key == k.PriorityDown {
			p = t.Priority.Lower()
		}
		m.applyPatch(t.ID, task.Patch{Priority: &p}, "Priority: "+string(p))
	case k.DueForward, k.DueBack:
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		step := 1
		if key == k.DueBack {
			step = -1
		}
		due := m.today
		if t.DueDate != nil {
			due = t.DueDate.AddDays(step)
		}
		m.applyPatch(t.ID, task.Patch{DueDate: &due}, "Due: "+due.String())
	case k.SortDue:
		m.store.Sort(query.SortDueDate)
		m.status = "Sorted by due date"
	case k.SortPriority:
		m.store.Sort(query.SortPriority)
		m.status = "Sorted by priority"
	case k.Detail:
		t, ok := m.current()
		if !ok {
			m.status = "No tasks"
			return m, nil
		}
		m.status = detailLine(t)
	}
	return m, nil
}

// chord tracks multi-key bindings such as "sd". prefix means key started
// or extended a binding and was consumed; otherwise a non-empty combo is a
// completed binding.
func (m Model) chord(key string) (combo string, prefix bool) {
	candidate := m.pendingKey + key
	bindings := chords(m.cfg.Keys)
	for _, b := range bindings {
		if b == candidate {
			return candidate, false
		}
	}
	for _, b := range bindings {
		if strings.HasPrefix(b, candidate) {
			return candidate, true
		}
	}
	return "", false
}

func chords(k config.Keymap) []string {
	var out []string
	for _, b := range []string{k.SortDue, k.SortPriority} {
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (m *Model) applyPatch(id int64, p task.Patch, ok string) {
	_, found, err := m.store.Update(id, p)
	switch {
	case err != nil:
		m.status = fmt.Sprintf("update failed: %v", err)
	case !found:
		m.status = "Task no longer exists"
	default:
		m.status = ok
	}
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.search = ""
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.refresh()
		m.status = "Search cleared"
		return m, nil
	case "enter":
		m.mode = modeList
		m.input.Blur()
		m.status = fmt.Sprintf("%d match(es) for %q", len(m.view), m.search)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.search = m.input.Value()
		m.refresh()
		return m, cmd
	}
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		if m.store.Delete(m.pendingDel.ID) {
			m.status = "Deleted task"
		} else {
			m.status = "Task was already gone"
		}
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	var b strings.Builder

	done, pending := query.Stats(m.store.Tasks())
	b.WriteString(m.st.Header("Tasks", done, pending))
	b.WriteString("\n")
	b.WriteString(m.st.Muted.Render(m.viewLabel()))
	b.WriteString("\n\n")

	if len(m.view) == 0 {
		if m.store.Len() == 0 {
			b.WriteString(fmt.Sprintf("No tasks yet. Press '%s' to add one.", m.cfg.Keys.Add))
		} else {
			b.WriteString("No tasks match.")
		}
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n---\n")

	switch {
	case m.form != nil:
		b.WriteString(m.st.Title.Render(m.form.heading()))
		b.WriteString(" (tab/shift+tab to move, enter to save/next, esc to cancel)")
		b.WriteString("\n\n")
		b.WriteString(m.renderFormBox())
		b.WriteString("\n")
		b.WriteString("Field: " + m.form.currentLabel())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case m.mode == modeSearch:
		b.WriteString("Search\n")
		b.WriteString(m.input.View())
	default:
		b.WriteString(m.renderDetailPanel())
	}

	b.WriteString("\n\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(m.st.Muted.Render(renderHelp(m.cfg.Keys)))

	return m.st.Border.Render(b.String())
}

func (m Model) viewLabel() string {
	label := "filter: " + string(m.filter)
	if m.search != "" {
		label += fmt.Sprintf(" • search: %q", m.search)
	}
	return label
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s edit • %s detail • space toggle • %s delete • %s filter • %s search • %s/%s priority • %s/%s due • %s/%s sort • %s quit",
		k.Up, k.Down, k.Add, k.Edit, k.Detail, k.Delete, k.Filter, k.Search,
		k.PriorityUp, k.PriorityDown, k.DueBack, k.DueForward, k.SortDue, k.SortPriority, k.Quit)
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	for i, t := range m.view {
		cursor := "  "
		if m.cursor == i && m.mode == modeList && m.form == nil {
			cursor = m.st.Selected.Render("> ")
		}
		b.WriteString(cursor + m.st.Line(t, m.today))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderDetailPanel() string {
	t, ok := m.current()
	if !ok {
		return "No task selected"
	}
	due := "(none)"
	if t.DueDate != nil {
		due = t.DueDate.String() + " (" + render.DueLabel(*t.DueDate, m.today) + ")"
	}
	var b strings.Builder
	b.WriteString("Details\n")
	b.WriteString(fmt.Sprintf("Title       : %s\n", t.Title))
	b.WriteString(fmt.Sprintf("Description : %s\n", emptyPlaceholder(t.Description)))
	b.WriteString(fmt.Sprintf("Priority    : %s\n", t.Priority))
	b.WriteString(fmt.Sprintf("Due         : %s\n", due))
	b.WriteString(fmt.Sprintf("Status      : %s\n", humanDone(t.Completed)))
	return b.String()
}

func detailLine(t task.Task) string {
	info := fmt.Sprintf("Task #%d • %s • %s • %s", t.ID, t.Title, humanDone(t.Completed), t.Priority)
	if t.Description != "" {
		info += " • " + t.Description
	}
	if t.DueDate != nil {
		info += " • due:" + t.DueDate.String()
	}
	return info
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func humanDone(done bool) string {
	if done {
		return "done"
	}
	return "pending"
}
