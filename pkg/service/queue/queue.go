// Package queue implements the channel queues that back the relay.
package queue

import (
	"context"

	"github.com/pkg/errors"
)

// Admission errors returned by Push. Callers should compare against
// errors.Cause(err) since backends may wrap them.
var (
	ErrEmptyBody = errors.New("empty message body")
	ErrTooLarge  = errors.New("message body too large")
	ErrQueueFull = errors.New("queue is full")
)

// Message is a single relayed payload and the ID assigned to it on push.
type Message struct {
	ID      string
	Payload []byte
}

// Queue wraps the set of methods for pushing to and pulling from named
// channels.
//
// Delivery is at-most-once: a message returned by Pull is removed from its
// channel before Pull returns, so there is no way to recover it if the caller
// fails to hand it on. There is no acknowledgement or redelivery.
type Queue interface {
	// Push appends payload to the tail of channel and returns the ID assigned
	// to it.
	Push(ctx context.Context, channel string, payload []byte) (string, error)
	// Pull removes and returns the head of channel. ok is false if the
	// channel is empty or has never been used.
	Pull(ctx context.Context, channel string) (msg Message, ok bool, err error)
	// Len returns the number of messages resident in channel.
	Len(ctx context.Context, channel string) (int, error)
}
