// Package feed connects to desktop-wide configuration services that push
// key-change events for preferences owned outside the file manager.
//
// A schema may or may not be installed on the host. Probe performs the
// runtime capability check and returns Absent when the schema is missing,
// so callers never branch on nil.
package feed

import (
	"errors"
	"sort"
	"sync"
)

var ErrNotInstalled = errors.New("feed: schema not installed")

// Handler receives a changed key and its new value rendered as text.
type Handler func(key, value string)

// Feed is one installed configuration schema.
type Feed interface {
	// Present reports whether the schema is installed.
	Present() bool
	// Get returns the current value of key.
	Get(key string) (string, bool)
	// Subscribe registers h for change events. The returned func cancels.
	Subscribe(h Handler) (cancel func())
}

// Absent is the Feed of a schema that is not installed.
type Absent struct {
	Schema string
}

func (Absent) Present() bool                     { return false }
func (Absent) Get(string) (string, bool)         { return "", false }
func (Absent) Subscribe(Handler) (cancel func()) { return func() {} }

// Memory is an in-process Feed. Set delivers events synchronously.
type Memory struct {
	mu       sync.RWMutex
	values   map[string]string
	handlers map[uint64]Handler
	nextID   uint64
}

func NewMemory(initial map[string]string) *Memory {
	m := &Memory{
		values:   make(map[string]string, len(initial)),
		handlers: make(map[uint64]Handler),
	}
	for k, v := range initial {
		m.values[k] = v
	}
	return m
}

func (m *Memory) Present() bool { return true }

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the stored keys in lexical order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Memory) Subscribe(h Handler) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.handlers[id] = h
	m.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.handlers, id)
			m.mu.Unlock()
		})
	}
}

// Set stores value and notifies every subscriber.
func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	m.values[key] = value
	ids := make([]uint64, 0, len(m.handlers))
	for id := range m.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, m.handlers[id])
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(key, value)
	}
}
