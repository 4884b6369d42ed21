// Package store owns the authoritative, ordered task collection. Every
// mutation is saved through the persistence adapter and announced to
// subscribers.
package store

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"taskpad/internal/query"
	"taskpad/internal/task"
)

// Persister is the persistence adapter the store writes through.
type Persister interface {
	Load(current []task.Task) []task.Task
	Save(tasks []task.Task)
}

type Op string

const (
	OpAdd    Op = "add"
	OpDelete Op = "delete"
	OpUpdate Op = "update"
	OpToggle Op = "toggle"
	OpSort   Op = "sort"
	OpLoad   Op = "load"
)

// Event tells subscribers the collection changed. ID is zero for sort and load.
type Event struct {
	Op Op
	ID int64
}

type Listener func(Event)

type Store struct {
	mu          sync.Mutex
	tasks       []task.Task
	persist     Persister
	ids         *task.IDSource
	log         *slog.Logger
	persistSort bool

	lmu       sync.Mutex
	listeners map[int]Listener
	nextLID   int
}

type Option func(*Store)

// WithSortPersistence controls whether Sort saves the new order. On by default.
func WithSortPersistence(on bool) Option {
	return func(s *Store) { s.persistSort = on }
}

func WithIDSource(ids *task.IDSource) Option {
	return func(s *Store) { s.ids = ids }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

func New(p Persister, opts ...Option) *Store {
	s := &Store{
		tasks:       []task.Task{},
		persist:     p,
		persistSort: true,
		listeners:   map[int]Listener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = task.NewIDSource(nil)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Open builds a store and loads whatever was persisted.
func Open(p Persister, opts ...Option) *Store {
	s := New(p, opts...)
	s.Reload()
	return s
}

// Reload replaces the collection with the persisted one. Missing or corrupt
// data leaves the current collection in place.
func (s *Store) Reload() {
	s.mu.Lock()
	s.tasks = s.persist.Load(s.tasks)
	if s.tasks == nil {
		s.tasks = []task.Task{}
	}
	for _, t := range s.tasks {
		s.ids.Observe(t.ID)
	}
	s.mu.Unlock()
	s.notify(Event{Op: OpLoad})
}

// Add appends a new pending task and returns it.
func (s *Store) Add(title, description string, priority task.Priority, due *task.Date) (task.Task, error) {
	title, err := task.ValidateTitle(title)
	if err != nil {
		return task.Task{}, err
	}
	priority, err = task.ParsePriority(string(priority))
	if err != nil {
		return task.Task{}, err
	}

	s.mu.Lock()
	t := task.New(s.ids.Next(), title, description, priority, cloneDate(due))
	s.tasks = append(s.tasks, t)
	s.saveLocked()
	s.mu.Unlock()

	s.log.Debug("task added", "id", t.ID)
	s.notify(Event{Op: OpAdd, ID: t.ID})
	return t, nil
}

// Delete removes the task with id. A missing id is not an error; ok reports
// whether anything was removed.
func (s *Store) Delete(id int64) (ok bool) {
	s.mu.Lock()
	n := len(s.tasks)
	s.tasks = slices.DeleteFunc(s.tasks, func(t task.Task) bool { return t.ID == id })
	ok = len(s.tasks) != n
	s.saveLocked()
	s.mu.Unlock()

	s.notify(Event{Op: OpDelete, ID: id})
	return ok
}

// Update merges p into the task with id. An invalid patch changes nothing and
// returns the validation error; a missing id returns ok=false.
func (s *Store) Update(id int64, p task.Patch) (task.Task, bool, error) {
	if err := p.Validate(); err != nil {
		return task.Task{}, false, fmt.Errorf("update %d: %w", id, err)
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	var out task.Task
	if i >= 0 {
		p.Apply(&s.tasks[i])
		out = s.tasks[i]
	}
	s.saveLocked()
	s.mu.Unlock()

	s.notify(Event{Op: OpUpdate, ID: id})
	return out, i >= 0, nil
}

// Toggle flips the completion flag of the task with id.
func (s *Store) Toggle(id int64) (task.Task, bool) {
	s.mu.Lock()
	i := s.indexLocked(id)
	var out task.Task
	if i >= 0 {
		s.tasks[i].Completed = !s.tasks[i].Completed
		out = s.tasks[i]
	}
	s.saveLocked()
	s.mu.Unlock()

	s.notify(Event{Op: OpToggle, ID: id})
	return out, i >= 0
}

// Sort reorders the collection itself, not a view of it.
func (s *Store) Sort(key query.SortKey) {
	s.mu.Lock()
	query.SortTasks(s.tasks, key)
	if s.persistSort {
		s.saveLocked()
	}
	s.mu.Unlock()

	s.notify(Event{Op: OpSort})
}

func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Store) Get(id int64) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i], true
	}
	return task.Task{}, false
}

func (s *Store) Filter(f query.Filter) []task.Task {
	return query.FilterTasks(s.Tasks(), f)
}

func (s *Store) Search(q string) []task.Task {
	return query.SearchTasks(s.Tasks(), q)
}

// View applies a filter and then a search.
func (s *Store) View(f query.Filter, q string) []task.Task {
	return query.SearchTasks(query.FilterTasks(s.Tasks(), f), q)
}

func (s *Store) indexLocked(id int64) int {
	return slices.IndexFunc(s.tasks, func(t task.Task) bool { return t.ID == id })
}

func (s *Store) saveLocked() {
	s.persist.Save(slices.Clone(s.tasks))
}

func cloneDate(d *task.Date) *task.Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
