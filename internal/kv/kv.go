// Package kv is the key-value string store the task list is persisted in.
package kv

import (
	"errors"
	"fmt"
	"strings"

	"taskpad/internal/kv/filekv"
	"taskpad/internal/kv/sqlite"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// Store maps string keys to string values. Get reports ok=false for a key
// that was never written.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Close() error
}

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Open returns the backend named by backend. path is a database file for
// sqlite and a directory for file; memory ignores it.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendSQLite, "":
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", path, err)
		}
		return s, nil
	case BackendFile:
		s, err := filekv.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file store %s: %w", path, err)
		}
		return s, nil
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
