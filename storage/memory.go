package storage

import (
	"context"
	"sync"
)

// Memory is an in-process [Store].
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty [Memory] store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, entries ...Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	apply(m.data, entries, nil)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	apply(m.data, nil, keys)
	return nil
}

func (m *Memory) Update(_ context.Context, set []Entry, del []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	apply(m.data, set, del)
	return nil
}

func apply(data map[string]string, set []Entry, del []string) {
	for _, e := range set {
		data[e.Key] = e.Value
	}
	for _, k := range del {
		delete(data, k)
	}
}
