package cache

import (
	"context"
	"slices"
	"sync"
)

var _ Slot = (*MemorySlot)(nil)

// MemorySlot keeps slots in process memory. It serves single-binary deployments
// and tests.
type MemorySlot struct {
	mu       sync.Mutex
	values   map[string][]byte
	watchers map[string][]chan struct{}
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{
		values:   make(map[string][]byte),
		watchers: make(map[string][]chan struct{}),
	}
}

func (m *MemorySlot) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[key]
	if !ok {
		return nil, ErrSlotEmpty
	}

	return slices.Clone(value), nil
}

func (m *MemorySlot) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = slices.Clone(value)
	for _, ch := range m.watchers[key] {
		notify(ch)
	}

	return nil
}

func (m *MemorySlot) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	m.mu.Lock()
	m.watchers[key] = append(m.watchers[key], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()

		m.mu.Lock()
		defer m.mu.Unlock()
		m.watchers[key] = slices.DeleteFunc(m.watchers[key], func(c chan struct{}) bool { return c == ch })
		if len(m.watchers[key]) == 0 {
			delete(m.watchers, key)
		}
		close(ch)
	}()

	return ch, nil
}

func (m *MemorySlot) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *MemorySlot) Close() error {
	return nil
}
