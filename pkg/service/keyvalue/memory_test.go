package keyvalue_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwool/msgrelay/pkg/service/keyvalue"
)

func TestMemoryCounters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := keyvalue.NewMemoryAdapter()

	v, err := kv.GetCounter(ctx, "missing")
	require.NoError(t, err, "Missing counter should not error.")
	assert.Equal(t, int64(0), v, "Missing counter should read as 0.")

	require.NoError(t, kv.SetCounter(ctx, "c", 41))
	require.NoError(t, kv.IncrementCounter(ctx, "c"))
	v, err = kv.GetCounter(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v, "Counter should be set then incremented.")

	assert.Error(t, kv.IncrementCounter(ctx, ""), "Empty key should be rejected.")
}

func TestMemoryCountersConcurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := keyvalue.NewMemoryAdapter()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = kv.IncrementCounter(ctx, "c")
		}()
	}
	wg.Wait()

	v, err := kv.GetCounter(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, int64(50), v, "No increments should be lost.")
}
