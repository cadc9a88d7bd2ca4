package keyvaluemock

import (
	"context"
	"sync"
)

// KeyValueMock is a mock implementation of the keyvalue.KeyValue type.
//
// Setting Err makes every call fail with that error.
type KeyValueMock struct {
	Err error

	channels *sync.Map
}

// New returns a new KeyValueMock.
func New() *KeyValueMock {
	return &KeyValueMock{channels: new(sync.Map)}
}

type counter struct {
	i  int64
	mu sync.Mutex
}

func (k *KeyValueMock) getCounter(key string) *counter {
	v, ok := k.channels.Load(key)
	if !ok {
		v, _ = k.channels.LoadOrStore(key, &counter{})
	}
	return v.(*counter)
}

// SetCounter sets the value of the counter for key.
func (k *KeyValueMock) SetCounter(ctx context.Context, key string, value int64) error {
	if k.Err != nil {
		return k.Err
	}
	c := k.getCounter(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.i = value
	return nil
}

// GetCounter gets the current value of the counter for key.
func (k *KeyValueMock) GetCounter(ctx context.Context, key string) (int64, error) {
	if k.Err != nil {
		return 0, k.Err
	}
	c := k.getCounter(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.i, nil
}

// IncrementCounter increments the value of the counter for key.
func (k *KeyValueMock) IncrementCounter(ctx context.Context, key string) error {
	if k.Err != nil {
		return k.Err
	}
	c := k.getCounter(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.i++
	return nil
}
