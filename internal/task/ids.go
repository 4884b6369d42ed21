package task

import (
	"sync"
	"time"
)

// IDSource hands out ids derived from the creation time in milliseconds.
// Two calls within the same millisecond still get distinct, increasing ids.
type IDSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDSource(now func() time.Time) *IDSource {
	if now == nil {
		now = time.Now
	}
	return &IDSource{now: now}
}

func (s *IDSource) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Observe makes sure later ids sort after id, e.g. after loading stored tasks
// whose ids came from a clock that ran ahead.
func (s *IDSource) Observe(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.last {
		s.last = id
	}
}
