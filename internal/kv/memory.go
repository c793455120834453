package kv

import (
	"context"
	"slices"
	"sync"
)

// Memory keeps values in process memory. Useful for tests and for running
// without any persistence.
type Memory struct {
	mu     sync.RWMutex
	values Values
}

func NewMemory() *Memory {
	return &Memory{values: make(Values)}
}

func (m *Memory) Get(_ context.Context, keys ...string) (Values, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(Values, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = slices.Clone(v)
		}
	}
	return out, nil
}

func (m *Memory) Set(_ context.Context, values Values) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.values[k] = slices.Clone(v)
	}
	return nil
}

// Ping implements the health check contract; memory is always reachable.
func (m *Memory) Ping(context.Context) error { return nil }
