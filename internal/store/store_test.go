package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpad/internal/kv"
	"taskpad/internal/logging"
	"taskpad/internal/query"
	"taskpad/internal/storage"
	"taskpad/internal/task"
)

// countingPersister records saves without encoding anything.
type countingPersister struct {
	saved [][]task.Task
}

func (p *countingPersister) Load(current []task.Task) []task.Task { return current }
func (p *countingPersister) Save(tasks []task.Task)               { p.saved = append(p.saved, tasks) }

func ptr[T any](v T) *T { return &v }

func newMemStore(t *testing.T, opts ...Option) (*Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	adapter := storage.New(mem, "", logging.Discard())
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	return Open(adapter, opts...), mem
}

func reopen(mem *kv.Memory) *Store {
	return Open(storage.New(mem, "", logging.Discard()), WithLogger(logging.Discard()))
}

func TestStore_AddAssignsUniqueIDs(t *testing.T) {
	s, _ := newMemStore(t)

	seen := map[int64]bool{}
	for range 50 {
		tk, err := s.Add("task", "", task.PriorityMedium, nil)
		require.NoError(t, err)
		assert.False(t, seen[tk.ID])
		assert.False(t, tk.Completed)
		seen[tk.ID] = true
	}
	assert.Equal(t, 50, s.Len())
}

func TestStore_LengthIsAddsMinusDeletes(t *testing.T) {
	s, _ := newMemStore(t)

	var ids []int64
	for range 10 {
		tk, err := s.Add("t", "", task.PriorityLow, nil)
		require.NoError(t, err)
		ids = append(ids, tk.ID)
	}
	for _, id := range ids[:4] {
		assert.True(t, s.Delete(id))
	}
	assert.False(t, s.Delete(ids[0]))
	assert.Equal(t, 6, s.Len())
}

func TestStore_AddValidates(t *testing.T) {
	s, mem := newMemStore(t)

	_, err := s.Add("   ", "", task.PriorityHigh, nil)
	assert.ErrorIs(t, err, task.ErrEmptyTitle)

	_, err = s.Add("ok", "", task.Priority("urgent"), nil)
	assert.ErrorIs(t, err, task.ErrInvalidPriority)

	assert.Equal(t, 0, s.Len())
	_, ok, _ := mem.Get(storage.DefaultKey)
	assert.False(t, ok, "rejected adds must not persist")
}

func TestStore_AddNormalizes(t *testing.T) {
	s, _ := newMemStore(t)
	due := task.NewDate(2025, time.April, 1)

	tk, err := s.Add("  Buy milk  ", "2%", task.Priority("HIGH"), &due)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", tk.Title)
	assert.Equal(t, task.PriorityHigh, tk.Priority)

	due = due.AddDays(10)
	got, ok := s.Get(tk.ID)
	require.True(t, ok)
	assert.Equal(t, "2025-04-01", got.DueDate.String(), "store keeps its own copy of the date")
}

func TestStore_UpdateChangesOnlyGivenFields(t *testing.T) {
	s, _ := newMemStore(t)
	due := task.NewDate(2025, time.May, 5)
	orig, err := s.Add("Buy milk", "2%", task.PriorityHigh, &due)
	require.NoError(t, err)

	got, ok, err := s.Update(orig.ID, task.Patch{Priority: ptr(task.PriorityLow)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, task.PriorityLow, got.Priority)

	got.Priority = orig.Priority
	assert.Equal(t, orig, got)
}

func TestStore_UpdateInvalidPatchIsRejected(t *testing.T) {
	p := &countingPersister{}
	s := New(p, WithLogger(logging.Discard()))
	tk, err := s.Add("a", "", task.PriorityLow, nil)
	require.NoError(t, err)
	saves := len(p.saved)

	_, ok, err := s.Update(tk.ID, task.Patch{Title: ptr("")})
	assert.ErrorIs(t, err, task.ErrEmptyTitle)
	assert.False(t, ok)
	assert.Len(t, p.saved, saves)

	got, _ := s.Get(tk.ID)
	assert.Equal(t, "a", got.Title)
}

func TestStore_ToggleIsInvolution(t *testing.T) {
	s, _ := newMemStore(t)
	tk, err := s.Add("a", "", task.PriorityLow, nil)
	require.NoError(t, err)

	once, ok := s.Toggle(tk.ID)
	require.True(t, ok)
	assert.True(t, once.Completed)

	twice, ok := s.Toggle(tk.ID)
	require.True(t, ok)
	assert.Equal(t, tk, twice)
}

func TestStore_MissingIDIsNoOp(t *testing.T) {
	s, _ := newMemStore(t)
	a, _ := s.Add("a", "", task.PriorityLow, nil)
	b, _ := s.Add("b", "", task.PriorityHigh, nil)
	require.True(t, s.Delete(a.ID))
	before := s.Tasks()

	_, ok, err := s.Update(a.ID, task.Patch{Title: ptr("new")})
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok = s.Toggle(a.ID)
	assert.False(t, ok)

	assert.Equal(t, before, s.Tasks())
	assert.Equal(t, []task.Task{b}, s.Tasks())
}

func TestStore_EveryMutationSaves(t *testing.T) {
	p := &countingPersister{}
	s := New(p, WithLogger(logging.Discard()))

	tk, _ := s.Add("a", "", task.PriorityLow, nil)
	s.Toggle(tk.ID)
	s.Update(tk.ID, task.Patch{Description: ptr("d")})
	s.Delete(tk.ID)
	s.Delete(999)
	s.Toggle(999)

	require.Len(t, p.saved, 6)
	assert.Empty(t, p.saved[len(p.saved)-1])
}

func TestStore_SortPersistence(t *testing.T) {
	p := &countingPersister{}
	s := New(p, WithLogger(logging.Discard()))
	s.Add("low", "", task.PriorityLow, nil)
	s.Add("high", "", task.PriorityHigh, nil)
	saves := len(p.saved)

	s.Sort(query.SortPriority)
	assert.Equal(t, "high", s.Tasks()[0].Title)
	require.Len(t, p.saved, saves+1)
	assert.Equal(t, "high", p.saved[saves][0].Title)

	p2 := &countingPersister{}
	s2 := New(p2, WithLogger(logging.Discard()), WithSortPersistence(false))
	s2.Add("low", "", task.PriorityLow, nil)
	s2.Add("high", "", task.PriorityHigh, nil)
	saves = len(p2.saved)
	s2.Sort(query.SortPriority)
	assert.Equal(t, "high", s2.Tasks()[0].Title)
	assert.Len(t, p2.saved, saves)
}

func TestStore_QueriesDoNotMutate(t *testing.T) {
	s, _ := newMemStore(t)
	s.Add("Buy milk", "", task.PriorityLow, nil)
	h, _ := s.Add("Pay rent", "bank", task.PriorityHigh, nil)
	before := s.Tasks()

	assert.Equal(t, []task.Task{h}, s.Filter(query.FilterHighPriority))
	assert.Equal(t, []task.Task{h}, s.Search("BANK"))
	assert.Equal(t, before, s.Search(""))
	assert.Equal(t, before, s.Filter(query.FilterAll))
	assert.Empty(t, s.View(query.FilterCompleted, ""))
	assert.Equal(t, []task.Task{h}, s.View(query.FilterPending, "rent"))
	assert.Equal(t, before, s.Tasks())
}

func TestStore_TasksReturnsCopy(t *testing.T) {
	s, _ := newMemStore(t)
	s.Add("a", "", task.PriorityLow, nil)

	got := s.Tasks()
	got[0].Title = "changed"
	assert.Equal(t, "a", s.Tasks()[0].Title)
}

func TestStore_ReloadScenario(t *testing.T) {
	s, mem := newMemStore(t)

	tk, err := s.Add("Buy milk", "2%", task.PriorityHigh, nil)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	assert.False(t, tk.Completed)
	assert.NotZero(t, tk.ID)

	s.Delete(tk.ID)
	assert.Equal(t, 0, s.Len())

	s.Reload()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, reopen(mem).Len())
}

func TestStore_RoundTripAcrossReopen(t *testing.T) {
	s, mem := newMemStore(t)
	due := task.NewDate(2025, time.August, 8)
	s.Add("a", "first", task.PriorityLow, &due)
	b, _ := s.Add("b", "", task.PriorityHigh, nil)
	s.Toggle(b.ID)
	s.Sort(query.SortPriority)

	assert.Equal(t, s.Tasks(), reopen(mem).Tasks())
}

func TestStore_ReloadKeepsStateOnCorruption(t *testing.T) {
	s, mem := newMemStore(t)
	s.Add("a", "", task.PriorityLow, nil)
	before := s.Tasks()

	require.NoError(t, mem.Set(storage.DefaultKey, `[{"id":`))
	s.Reload()
	assert.Equal(t, before, s.Tasks())
}

func TestStore_WriteFailureKeepsMemoryAuthoritative(t *testing.T) {
	s, mem := newMemStore(t)
	mem.SetErr = errors.New("quota exceeded")

	tk, err := s.Add("a", "", task.PriorityLow, nil)
	require.NoError(t, err)
	assert.Equal(t, []task.Task{tk}, s.Tasks())

	assert.Equal(t, 0, reopen(mem).Len())
}

func TestStore_IDsStayAheadOfLoadedData(t *testing.T) {
	mem := kv.NewMemory()
	far := time.Now().Add(24 * time.Hour).UnixMilli()
	require.NoError(t, storage.New(mem, "", logging.Discard()).Write([]task.Task{
		task.New(far, "future", "", task.PriorityLow, nil),
	}))

	s := reopen(mem)
	tk, err := s.Add("next", "", task.PriorityLow, nil)
	require.NoError(t, err)
	assert.Greater(t, tk.ID, far)
}
