package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Ensure MemoryStore implements Queue.
var _ Queue = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-process store enforcing limits.
func NewMemoryStore(limits Limits) *MemoryStore {
	return &MemoryStore{
		limits:   limits,
		channels: make(map[string][]Message),
	}
}

// MemoryStore keeps every channel in process memory.
//
// A single mutex guards the whole map, so every Push and Pull is serialized
// with every other one regardless of channel. Channels are created on first
// use and are never removed, even once empty.
//
// This type is thread-safe.
type MemoryStore struct {
	limits Limits

	mu       sync.Mutex
	channels map[string][]Message
}

// Limits returns the limits the store was built with.
func (m *MemoryStore) Limits() Limits {
	return m.limits
}

// Push appends payload to channel.
//
// The payload is copied, so the caller may reuse its slice after Push
// returns.
func (m *MemoryStore) Push(_ context.Context, channel string, payload []byte) (string, error) {
	if err := m.limits.admit(payload); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.channels[channel]
	// The depth check and the append must happen under the same lock hold.
	if len(q) >= m.limits.MaxQueueDepth {
		return "", ErrQueueFull
	}
	data := make([]byte, len(payload))
	copy(data, payload)
	msg := Message{
		ID:      uuid.New().String(),
		Payload: data,
	}
	m.channels[channel] = append(q, msg)
	return msg.ID, nil
}

// Pull removes and returns the oldest message in channel.
//
// The error is always nil for MemoryStore.
func (m *MemoryStore) Pull(_ context.Context, channel string) (Message, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.channels[channel]
	if !ok {
		m.channels[channel] = nil
	}
	if len(q) == 0 {
		return Message{}, false, nil
	}
	msg := q[0]
	// Drop the reference so the payload can be collected.
	q[0] = Message{}
	m.channels[channel] = q[1:]
	return msg, true, nil
}

// Len returns the number of resident messages in channel.
func (m *MemoryStore) Len(_ context.Context, channel string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channels[channel]), nil
}
