package cachestorage

import (
	"context"
	"net/http"
	"slices"
	"sync"
)

// Memory keeps caches in process memory.
type Memory struct {
	mu     sync.RWMutex
	order  []string
	caches map[string]map[string]Entry
}

// NewMemory returns an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{caches: make(map[string]map[string]Entry)}
}

func (m *Memory) Open(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openLocked(name)
	return nil
}

func (m *Memory) Put(_ context.Context, name string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openLocked(name)[entry.Key] = cloneEntry(entry)
	return nil
}

func (m *Memory) Match(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, name := range m.order {
		if entry, ok := m.caches[name][key]; ok {
			return cloneEntry(entry), true, nil
		}
	}
	return Entry{}, false, nil
}

func (m *Memory) Names(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order), nil
}

func (m *Memory) Delete(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.caches[name]; !ok {
		return false, nil
	}
	delete(m.caches, name)
	m.order = slices.DeleteFunc(m.order, func(n string) bool { return n == name })
	return true, nil
}

func (m *Memory) openLocked(name string) map[string]Entry {
	entries, ok := m.caches[name]
	if !ok {
		entries = make(map[string]Entry)
		m.caches[name] = entries
		m.order = append(m.order, name)
	}
	return entries
}

func cloneEntry(e Entry) Entry {
	e.Header = http.Header(e.Header).Clone()
	e.Body = slices.Clone(e.Body)
	return e
}

var _ Storage = (*Memory)(nil)
