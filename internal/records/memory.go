package records

import (
	"context"
	"sync"
)

// memory is an in-memory map-based Store implementation.
// State is lost when the process restarts.
type memory struct {
	mu   sync.RWMutex   // guards best
	best map[string]int // keyed by level key
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() Store {
	return &memory{best: make(map[string]int)}
}

func (m *memory) Best(ctx context.Context, key string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.best[key]
	return v, ok, nil
}

func (m *memory) Put(ctx context.Context, key string, seconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.best[key]; ok && prev <= seconds {
		return nil
	}
	m.best[key] = seconds
	return nil
}

func (m *memory) All(ctx context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.best))
	for k, v := range m.best {
		out[k] = v
	}
	return out, nil
}
