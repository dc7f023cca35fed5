package settings

import (
	"sort"
	"sync"
)

// Observer is called with the key whose value changed.
type Observer func(key string)

// signal fans a value-changed notification out to observers on the
// emitting goroutine. Observers registered for all keys run before
// observers registered for the specific key, each group in
// registration order.
type signal struct {
	mu     sync.RWMutex
	global map[uint64]Observer
	byKey  map[string]map[uint64]Observer
	nextID uint64
}

func newSignal() *signal {
	return &signal{
		global: make(map[uint64]Observer),
		byKey:  make(map[string]map[uint64]Observer),
	}
}

func (s *signal) subscribe(key string, fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if key == "" {
		s.global[id] = fn
	} else {
		if s.byKey[key] == nil {
			s.byKey[key] = make(map[uint64]Observer)
		}
		s.byKey[key][id] = fn
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if key == "" {
				delete(s.global, id)
				return
			}
			delete(s.byKey[key], id)
			if len(s.byKey[key]) == 0 {
				delete(s.byKey, key)
			}
		})
	}
}

func (s *signal) emit(key string) {
	s.mu.RLock()
	targets := append(ordered(s.global), ordered(s.byKey[key])...)
	s.mu.RUnlock()

	for _, fn := range targets {
		fn(key)
	}
}

func ordered(m map[uint64]Observer) []Observer {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Observer, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}
