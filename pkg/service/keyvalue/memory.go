package keyvalue

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Ensure MemoryAdapter implements the KeyValue interface.
var _ KeyValue = (*MemoryAdapter)(nil)

// NewMemoryAdapter returns a KeyValue that keeps counters in process memory.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{counters: make(map[string]int64)}
}

// MemoryAdapter is an in-process KeyValue. Counters are lost on restart.
type MemoryAdapter struct {
	mu       sync.Mutex
	counters map[string]int64
}

// SetCounter sets the counter with the given key to value.
func (m *MemoryAdapter) SetCounter(_ context.Context, key string, value int64) error {
	if len(key) == 0 {
		return errors.New("invalid key")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key] = value
	return nil
}

// GetCounter gets the current value of a counter.
func (m *MemoryAdapter) GetCounter(_ context.Context, key string) (int64, error) {
	if len(key) == 0 {
		return 0, errors.New("invalid key")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key], nil
}

// IncrementCounter increments the value with the given key.
func (m *MemoryAdapter) IncrementCounter(_ context.Context, key string) error {
	if len(key) == 0 {
		return errors.New("invalid key")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return nil
}
