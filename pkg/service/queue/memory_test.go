package queue_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/rwool/msgrelay/pkg/service/queue"
)

func newStore(body, depth int) *queue.MemoryStore {
	return queue.NewMemoryStore(queue.Limits{MaxBodyBytes: body, MaxQueueDepth: depth})
}

func TestPushPull(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(1024*1024, 8)

	id, err := s.Push(ctx, "test", []byte("opaque-bytes"))
	require.NoError(t, err, "Push should succeed.")
	assert.NotEmpty(t, id, "Push should return an ID.")

	msg, ok, err := s.Pull(ctx, "test")
	require.NoError(t, err, "Pull should not error.")
	require.True(t, ok, "Pull should find the message.")
	assert.Equal(t, id, msg.ID, "Pulled ID should match pushed ID.")
	assert.Equal(t, []byte("opaque-bytes"), msg.Payload, "Payload should be unchanged.")

	_, ok, err = s.Pull(ctx, "test")
	require.NoError(t, err, "Pull should not error.")
	assert.False(t, ok, "Second pull should be empty.")
}

func TestPullEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(1024, 8)

	for i := 0; i < 3; i++ {
		msg, ok, err := s.Pull(ctx, "empty")
		require.NoError(t, err, "Pull should not error.")
		assert.False(t, ok, "Unknown channel should be empty.")
		assert.Equal(t, queue.Message{}, msg, "Empty pull should return zero message.")
	}
	n, err := s.Len(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "Pulling should not create messages.")
}

func TestPushRejections(t *testing.T) {
	t.Parallel()

	t.Run("Empty Body", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		s := newStore(4, 8)
		_, err := s.Push(ctx, "c", nil)
		assert.Equal(t, queue.ErrEmptyBody, err, "Nil payload should be rejected.")
		_, err = s.Push(ctx, "c", []byte{})
		assert.Equal(t, queue.ErrEmptyBody, err, "Zero length payload should be rejected.")
		n, _ := s.Len(ctx, "c")
		assert.Equal(t, 0, n, "Queue should be unchanged.")
	})

	t.Run("Too Large", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		s := newStore(4, 8)
		_, err := s.Push(ctx, "oversize", make([]byte, 5))
		assert.Equal(t, queue.ErrTooLarge, err, "5 byte payload should exceed a 4 byte limit.")
		n, _ := s.Len(ctx, "oversize")
		assert.Equal(t, 0, n, "Queue should be unchanged.")

		_, err = s.Push(ctx, "oversize", make([]byte, 4))
		assert.NoError(t, err, "Payload at the limit should be accepted.")
	})

	t.Run("Queue Full", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		s := newStore(1024, 1)
		_, err := s.Push(ctx, "qfull", []byte("a"))
		require.NoError(t, err, "First push should succeed.")
		_, err = s.Push(ctx, "qfull", []byte("b"))
		assert.Equal(t, queue.ErrQueueFull, err, "Second push should exceed depth 1.")

		msg, ok, err := s.Pull(ctx, "qfull")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("a"), msg.Payload, "Only the first payload should be stored.")
		_, ok, _ = s.Pull(ctx, "qfull")
		assert.False(t, ok, "Rejected payload must not be stored.")
	})

	t.Run("Empty Before Size", func(t *testing.T) {
		t.Parallel()
		s := newStore(0, 1)
		_, err := s.Push(context.Background(), "c", nil)
		assert.Equal(t, queue.ErrEmptyBody, err, "Empty body should be checked first.")
	})
}

func TestFIFO(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(1024, 100)

	var ids []string
	for i := 0; i < 50; i++ {
		id, err := s.Push(ctx, "fifo", []byte(strconv.Itoa(i)))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for i := 0; i < 50; i++ {
		msg, ok, err := s.Pull(ctx, "fifo")
		require.NoError(t, err)
		require.True(t, ok, "Message %d should be present.", i)
		assert.Equal(t, strconv.Itoa(i), string(msg.Payload), "Messages should come back in push order.")
		assert.Equal(t, ids[i], msg.ID, "IDs should come back in push order.")
	}
}

func TestChannelsIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(1024, 1)

	_, err := s.Push(ctx, "a", []byte("1"))
	require.NoError(t, err)
	_, err = s.Push(ctx, "A", []byte("2"))
	require.NoError(t, err, "Channel names are case-sensitive.")

	msg, ok, _ := s.Pull(ctx, "A")
	require.True(t, ok)
	assert.Equal(t, "2", string(msg.Payload))
	msg, ok, _ = s.Pull(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "1", string(msg.Payload))
}

func TestPayloadCopied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(1024, 8)

	p := []byte("abc")
	_, err := s.Push(ctx, "c", p)
	require.NoError(t, err)
	p[0] = 'z'

	msg, ok, _ := s.Pull(ctx, "c")
	require.True(t, ok)
	assert.Equal(t, "abc", string(msg.Payload), "Stored payload should not alias the caller's slice.")
}

func TestConcurrentCapacity(t *testing.T) {
	t.Parallel()
	const (
		depth   = 10
		pushers = 100
	)
	s := newStore(1024, depth)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	group, ctx := errgroup.WithContext(ctx)

	// Wait on a channel to "burst" all requests as fast as possible.
	var ready sync.WaitGroup
	ready.Add(pushers)
	start := make(chan struct{})

	var (
		mu       sync.Mutex
		accepted int
		full     int
	)
	for i := 0; i < pushers; i++ {
		i := i
		group.Go(func() error {
			ready.Done()
			<-start
			_, err := s.Push(ctx, "burst", []byte(strconv.Itoa(i)))
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				accepted++
			case queue.ErrQueueFull:
				full++
			default:
				return err
			}
			return nil
		})
	}

	ready.Wait()
	close(start)
	require.NoError(t, group.Wait(), "Pushes should only fail with ErrQueueFull.")

	assert.Equal(t, depth, accepted, "Exactly depth pushes should be accepted.")
	assert.Equal(t, pushers-depth, full, "Remaining pushes should be rejected.")
	n, err := s.Len(ctx, "burst")
	require.NoError(t, err)
	assert.Equal(t, depth, n, "Queue should never exceed its depth.")
}

func TestConcurrentAtMostOnce(t *testing.T) {
	t.Parallel()
	const count = 200
	s := newStore(1024, count)
	ctx := context.Background()

	for i := 0; i < count; i++ {
		_, err := s.Push(ctx, "once", []byte(strconv.Itoa(i)))
		require.NoError(t, err)
	}

	var (
		group errgroup.Group
		mu    sync.Mutex
		seen  = make(map[string]struct{})
	)
	for w := 0; w < 8; w++ {
		group.Go(func() error {
			for {
				msg, ok, err := s.Pull(ctx, "once")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				mu.Lock()
				if _, dup := seen[msg.ID]; dup {
					mu.Unlock()
					t.Errorf("message %s delivered twice", msg.ID)
					return nil
				}
				seen[msg.ID] = struct{}{}
				mu.Unlock()
			}
		})
	}
	require.NoError(t, group.Wait())
	assert.Len(t, seen, count, "Every message should be delivered exactly once.")
}
