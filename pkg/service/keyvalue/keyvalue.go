// Package keyvalue implements named counters used for per-channel relay
// statistics.
package keyvalue

import (
	"context"
)

// KeyValue wraps the set of methods for maintaining counters identified by a
// given key.
//
// A counter that has never been set or incremented reads as 0.
type KeyValue interface {
	SetCounter(ctx context.Context, key string, value int64) error
	GetCounter(ctx context.Context, key string) (int64, error)
	IncrementCounter(ctx context.Context, key string) error
}
