package store

import "fmt"

// Subscribe registers fn for change notifications until the returned func
// is called.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.lmu.Lock()
	id := s.nextLID
	s.nextLID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

// notify runs outside s.mu, so listeners may call back into the store.
func (s *Store) notify(ev Event) {
	s.lmu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.lmu.Unlock()

	for _, l := range ls {
		s.dispatch(l, ev)
	}
}

func (s *Store) dispatch(l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("listener panicked", "op", ev.Op, "id", ev.ID, "err", fmt.Sprint(r))
		}
	}()
	l(ev)
}
