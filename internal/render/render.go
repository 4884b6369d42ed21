// Package render turns tasks into styled terminal text for the CLI and TUI.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	humanize "github.com/dustin/go-humanize"

	"taskpad/internal/task"
)

const (
	BoxChecked   = "☑"
	BoxUnchecked = "☐"
	maxTitle     = 60
)

type Styles struct {
	Title    lipgloss.Style
	Success  lipgloss.Style
	Pending  lipgloss.Style
	Accent   lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Selected lipgloss.Style
	Done     lipgloss.Style
	Overdue  lipgloss.Style
	Border   lipgloss.Style

	priority map[task.Priority]lipgloss.Style
}

// NewStyles binds styles to r so colors follow the destination's capabilities.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:    r.NewStyle().Bold(true),
		Success:  r.NewStyle().Foreground(lipgloss.Color("42")),
		Pending:  r.NewStyle().Foreground(lipgloss.Color("214")),
		Accent:   r.NewStyle().Foreground(lipgloss.Color("12")),
		Muted:    r.NewStyle().Faint(true),
		Error:    r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Selected: r.NewStyle().Bold(true).Reverse(true),
		Done:     r.NewStyle().Faint(true).Strikethrough(true),
		Overdue:  r.NewStyle().Foreground(lipgloss.Color("9")),
		Border: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
		priority: map[task.Priority]lipgloss.Style{
			task.PriorityHigh:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			task.PriorityMedium: r.NewStyle().Foreground(lipgloss.Color("214")),
			task.PriorityLow:    r.NewStyle().Foreground(lipgloss.Color("8")),
		},
	}
}

func (s Styles) Priority(p task.Priority) string {
	st, ok := s.priority[p]
	if !ok {
		return string(p)
	}
	return st.Render(fmt.Sprintf("%-6s", p))
}

func (s Styles) Panel(lines []string) string {
	return s.Border.Render(strings.Join(lines, "\n"))
}

// Header is the one-line summary above a list.
func (s Styles) Header(title string, done, pending int) string {
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		s.Title.Render(title),
		s.Success.Render("✔"), done,
		s.Pending.Render("•"), pending,
		s.Accent.Render("Total"), done+pending,
	)
}

// Line renders one task on a single row.
func (s Styles) Line(t task.Task, today task.Date) string {
	box := s.Muted.Render(BoxUnchecked)
	title := Truncate(t.Title, maxTitle)
	if t.Completed {
		box = s.Success.Render(BoxChecked)
		title = s.Done.Render(title)
	}
	line := fmt.Sprintf("%s %s %s", box, s.Priority(t.Priority), title)
	if t.DueDate != nil {
		due := "due " + t.DueDate.String() + " (" + DueLabel(*t.DueDate, today) + ")"
		if t.Overdue(today) {
			due = s.Overdue.Render(due)
		} else {
			due = s.Muted.Render(due)
		}
		line += "  " + due
	}
	return line
}

// DueLabel describes due relative to today, e.g. "tomorrow" or "3 days ago".
func DueLabel(due, today task.Date) string {
	days := int(due.Time().Sub(today.Time()).Hours() / 24)
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	case -1:
		return "yesterday"
	}
	return humanize.RelTime(due.Time(), today.Time(), "ago", "from now")
}

func ProgressBar(done, total, width int) string {
	if total == 0 {
		total = 1
	}
	if width <= 0 {
		width = 28
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf("] %d/%d", done, total)
}

func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
