package kv

import "sync"

// Memory keeps values in a map. SetErr, when non-nil, is returned from every
// Set without storing anything, which is how tests simulate a full disk.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
	SetErr error
	GetErr error
}

func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }
