// Package storage converts the task collection to and from the JSON text
// kept under one key of a kv.Store.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"taskpad/internal/kv"
	"taskpad/internal/task"
)

const DefaultKey = "tasks"

type Adapter struct {
	kv  kv.Store
	key string
	log *slog.Logger
}

func New(store kv.Store, key string, log *slog.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{kv: store, key: key, log: log}
}

func (a *Adapter) Key() string { return a.key }

// Read returns the stored collection. ok is false when nothing was ever saved.
func (a *Adapter) Read() ([]task.Task, bool, error) {
	raw, ok, err := a.kv.Get(a.key)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", a.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	var tasks []task.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, true, fmt.Errorf("json unmarshal: %w", err)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, true, nil
}

// Write overwrites the stored collection.
func (a *Adapter) Write(tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := a.kv.Set(a.key, string(b)); err != nil {
		return fmt.Errorf("write %s: %w", a.key, err)
	}
	return nil
}

// Load returns the stored collection, or current unchanged when nothing is
// stored or the stored text cannot be read. Failures are logged, not returned.
func (a *Adapter) Load(current []task.Task) []task.Task {
	tasks, ok, err := a.Read()
	if err != nil {
		a.log.Error("load tasks", "key", a.key, "err", err)
		return current
	}
	if !ok {
		a.log.Debug("no stored tasks", "key", a.key)
		return current
	}
	a.log.Debug("loaded tasks", "key", a.key, "count", len(tasks))
	return tasks
}

// Save writes the collection. A failed write is logged and otherwise ignored;
// the in-memory collection stays authoritative.
func (a *Adapter) Save(tasks []task.Task) {
	if err := a.Write(tasks); err != nil {
		a.log.Error("save tasks", "key", a.key, "count", len(tasks), "err", err)
	}
}
