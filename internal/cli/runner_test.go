package cli

import (
	"bytes"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpad/internal/kv"
	"taskpad/internal/logging"
	"taskpad/internal/storage"
	"taskpad/internal/store"
	"taskpad/internal/task"
)

type harness struct {
	store *store.Store
	mem   *kv.Memory
	out   bytes.Buffer
	err   bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{mem: kv.NewMemory()}
	h.store = store.Open(storage.New(h.mem, "", logging.Discard()), store.WithLogger(logging.Discard()))
	return h
}

func (h *harness) run(args ...string) int {
	h.out.Reset()
	h.err.Reset()
	return Run(h.store, args, Options{
		Out:   &h.out,
		Err:   &h.err,
		Today: func() task.Date { return task.NewDate(2025, time.June, 10) },
	})
}

func (h *harness) only(t *testing.T) task.Task {
	t.Helper()
	tasks := h.store.Tasks()
	require.Len(t, tasks, 1)
	return tasks[0]
}

func TestRun_NoArgsPrintsHelp(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 2, h.run())
	assert.Contains(t, h.out.String(), "Subcommands:")

	assert.Equal(t, 0, h.run("help"))
	assert.Equal(t, 2, h.run("bogus"))
	assert.Contains(t, h.err.String(), "unknown subcommand: bogus")
}

func TestRun_AddWithFlagsAfterTitle(t *testing.T) {
	h := newHarness(t)

	code := h.run("add", "Buy", "milk", "-d", "2%", "-p", "high", "--due", "2025-06-12")
	require.Equal(t, 0, code, h.err.String())
	assert.Contains(t, h.out.String(), "added #")

	got := h.only(t)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, "2%", got.Description)
	assert.Equal(t, task.PriorityHigh, got.Priority)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2025-06-12", got.DueDate.String())
	assert.False(t, got.Completed)
}

func TestRun_AddDefaultsAndValidation(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("add", "plain"))
	assert.Equal(t, task.PriorityMedium, h.only(t).Priority)
	assert.Nil(t, h.only(t).DueDate)

	assert.Equal(t, 2, h.run("add"))
	assert.Equal(t, 2, h.run("add", "x", "-p", "urgent"))
	assert.Contains(t, h.err.String(), "priority")
	assert.Equal(t, 2, h.run("add", "x", "--due", "soon"))
	assert.Equal(t, 1, h.store.Len())
}

func TestRun_ToggleAndRemove(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("add", "a"))
	id := strconv.FormatInt(h.only(t).ID, 10)

	assert.Equal(t, 0, h.run("done", id))
	assert.Contains(t, h.out.String(), "completed #"+id)
	assert.True(t, h.only(t).Completed)

	assert.Equal(t, 0, h.run("done", id))
	assert.Contains(t, h.out.String(), "reopened #"+id)

	assert.Equal(t, 0, h.run("rm", id))
	assert.Equal(t, 0, h.store.Len())

	assert.Equal(t, 0, h.run("rm", id), "a miss is not an error")
	assert.Contains(t, h.err.String(), "nothing changed")
	assert.Equal(t, 0, h.run("done", id))

	assert.Equal(t, 2, h.run("done", "abc"))
	assert.Equal(t, 2, h.run("rm"))
}

func TestRun_Edit(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("add", "Buy milk", "-d", "2%", "--due", "2025-06-12"))
	before := h.only(t)
	id := strconv.FormatInt(before.ID, 10)

	require.Equal(t, 0, h.run("edit", id, "-p", "low"), h.err.String())
	after := h.only(t)
	assert.Equal(t, task.PriorityLow, after.Priority)
	after.Priority = before.Priority
	assert.Equal(t, before, after)

	require.Equal(t, 0, h.run("edit", id, "--no-due", "--title", "Buy oat milk"))
	assert.Nil(t, h.only(t).DueDate)
	assert.Equal(t, "Buy oat milk", h.only(t).Title)

	require.Equal(t, 0, h.run("edit", id, "--desc", "1%"))
	assert.Equal(t, "1%", h.only(t).Description)

	assert.Equal(t, 2, h.run("edit", id))
	assert.Equal(t, 2, h.run("edit", id, "--title", " "))
	assert.Equal(t, 2, h.run("edit", id, "-p", "urgent"))
	assert.Equal(t, 0, h.run("edit", "42", "--title", "x"))
	assert.Contains(t, h.err.String(), "no task with id 42")
}

func TestRun_ListFiltersAndSearch(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("add", "Buy milk", "-p", "high"))
	require.Equal(t, 0, h.run("add", "Call mom", "-p", "low"))
	require.Equal(t, 0, h.run("add", "Pay rent", "-d", "bank transfer"))
	for _, tk := range h.store.Tasks() {
		if tk.Title == "Call mom" {
			h.store.Toggle(tk.ID)
		}
	}

	require.Equal(t, 0, h.run("ls"))
	out := h.out.String()
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "Call mom")
	assert.Contains(t, out, "Total 3")

	require.Equal(t, 0, h.run("ls", "-f", "highPriority"))
	assert.Contains(t, h.out.String(), "Buy milk")
	assert.NotContains(t, h.out.String(), "Pay rent")

	require.Equal(t, 0, h.run("ls", "--filter", "completed"))
	assert.Contains(t, h.out.String(), "Call mom")
	assert.NotContains(t, h.out.String(), "Buy milk")

	require.Equal(t, 0, h.run("search", "BANK"))
	assert.Contains(t, h.out.String(), "Pay rent")
	assert.NotContains(t, h.out.String(), "Buy milk")

	require.Equal(t, 0, h.run("ls", "--group"))
	assert.Contains(t, h.out.String(), "Pending")
	assert.Contains(t, h.out.String(), "Done")
}

func TestRun_SortAndExport(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("add", "later", "-p", "low", "--due", "2025-07-01"))
	require.Equal(t, 0, h.run("add", "sooner", "-p", "medium", "--due", "2025-06-11"))
	require.Equal(t, 0, h.run("add", "urgent", "-p", "high"))

	require.Equal(t, 0, h.run("sort", "priority"))
	assert.Equal(t, "urgent", h.store.Tasks()[0].Title)

	require.Equal(t, 0, h.run("sort", "dueDate"))
	titles := []string{}
	for _, tk := range h.store.Tasks() {
		titles = append(titles, tk.Title)
	}
	assert.Equal(t, []string{"sooner", "later", "urgent"}, titles)

	assert.Equal(t, 2, h.run("sort", "title"))
	assert.Equal(t, 2, h.run("sort"))

	require.Equal(t, 0, h.run("export"))
	var exported []task.Task
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &exported))
	assert.Equal(t, h.store.Tasks(), exported)

	require.Equal(t, 0, h.run("export", "--format", "yaml"))
	assert.Contains(t, h.out.String(), "tasks:")
	assert.Equal(t, 2, h.run("export", "--format", "xml"))
}

func TestRun_MutationsPersist(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("add", "Buy milk", "-d", "2%", "-p", "high"))
	id := strconv.FormatInt(h.only(t).ID, 10)
	require.Equal(t, 0, h.run("rm", id))

	reloaded := store.Open(storage.New(h.mem, "", logging.Discard()), store.WithLogger(logging.Discard()))
	assert.Equal(t, 0, reloaded.Len())
}
