package queuemock

import (
	"context"
	"strconv"
	"sync"

	"github.com/rwool/msgrelay/pkg/service/queue"
)

// QueueMock is a mock implementation of the queue.Queue type.
//
// Messages are kept per channel without any limits. Setting Err makes every
// call fail with that error, which is how backend failures are simulated.
//
// Intended for testing only.
type QueueMock struct {
	Err error

	mu     sync.Mutex
	data   map[string][]queue.Message
	nextID int
}

// New returns a new QueueMock.
func New() *QueueMock {
	return &QueueMock{data: make(map[string][]queue.Message)}
}

// Push appends data to the given channel. IDs are sequential numbers.
func (q *QueueMock) Push(ctx context.Context, channel string, data []byte) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return "", q.Err
	}
	q.nextID++
	id := strconv.Itoa(q.nextID)
	q.data[channel] = append(q.data[channel], queue.Message{ID: id, Payload: data})
	return id, nil
}

// Pull pulls data from the given channel.
func (q *QueueMock) Pull(ctx context.Context, channel string) (queue.Message, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return queue.Message{}, false, q.Err
	}
	c := q.data[channel]
	if len(c) == 0 {
		return queue.Message{}, false, nil
	}
	q.data[channel] = c[1:]
	return c[0], true, nil
}

// Len returns the number of messages in the given channel.
func (q *QueueMock) Len(ctx context.Context, channel string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return 0, q.Err
	}
	return len(q.data[channel]), nil
}
