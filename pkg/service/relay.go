// Package service implements the business logic for the message relay.
package service

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/rwool/msgrelay/pkg/service/keyvalue"
	"github.com/rwool/msgrelay/pkg/service/queue"
)

// RelayService is the user accessible service.
type RelayService interface {
	Push(ctx context.Context, channel string, payload []byte) (string, error)
	Pull(ctx context.Context, channel string) (queue.Message, bool, error)
	Stats(ctx context.Context, channel string) (ChannelStats, error)
}

// ChannelStats describes the current state of a channel.
type ChannelStats struct {
	Channel string `json:"channel"`
	Depth   int    `json:"depth"`
	Pushed  int64  `json:"pushed"`
	Pulled  int64  `json:"pulled"`
}

// RelayServiceConfig contains the dependencies of a RelayService.
type RelayServiceConfig struct {
	Queue  queue.Queue
	KeyVal keyvalue.KeyValue
	Log    log.Logger
}

// NewRelayService returns a RelayService.
func NewRelayService(conf RelayServiceConfig) RelayService {
	return newRelayService(conf)
}

func newRelayService(conf RelayServiceConfig) *relayService {
	return &relayService{
		q:   conf.Queue,
		kv:  conf.KeyVal,
		log: conf.Log,
	}
}

type relayService struct {
	q   queue.Queue
	kv  keyvalue.KeyValue
	log log.Logger
}

func pushedKey(channel string) string { return "relay:pushed:" + channel }
func pulledKey(channel string) string { return "relay:pulled:" + channel }

// count bumps a statistics counter. Failures are logged and otherwise
// ignored since the message has already been relayed.
func (r *relayService) count(ctx context.Context, key string) {
	if err := r.kv.IncrementCounter(ctx, key); err != nil {
		_ = r.log.Log("LEVEL", "WARN", "MESSAGE", err.Error())
	}
}

// Push admits payload to channel and returns the new message ID.
//
// The payload itself is never logged.
func (r *relayService) Push(ctx context.Context, channel string, payload []byte) (string, error) {
	id, err := r.q.Push(ctx, channel, payload)
	if err != nil {
		switch errors.Cause(err) {
		case queue.ErrEmptyBody, queue.ErrTooLarge, queue.ErrQueueFull:
			_ = r.log.Log("LEVEL", "DEBUG", "MESSAGE", "push rejected", "channel", channel, "bytes", len(payload), "reason", err.Error())
			return "", err
		}
		return "", errors.Wrapf(err, "unable to push to channel %q", channel)
	}
	_ = r.log.Log("LEVEL", "INFO", "MESSAGE", "push", "channel", channel, "id", id, "bytes", len(payload))
	r.count(ctx, pushedKey(channel))
	return id, nil
}

// Pull removes the oldest message from channel. ok is false if there was
// none.
func (r *relayService) Pull(ctx context.Context, channel string) (queue.Message, bool, error) {
	msg, ok, err := r.q.Pull(ctx, channel)
	if err != nil {
		return queue.Message{}, false, errors.Wrapf(err, "unable to pull from channel %q", channel)
	}
	if !ok {
		return queue.Message{}, false, nil
	}
	_ = r.log.Log("LEVEL", "INFO", "MESSAGE", "pull", "channel", channel, "id", msg.ID, "bytes", len(msg.Payload))
	r.count(ctx, pulledKey(channel))
	return msg, true, nil
}

// Stats reports the depth and lifetime counters for channel.
func (r *relayService) Stats(ctx context.Context, channel string) (ChannelStats, error) {
	stats := ChannelStats{Channel: channel}

	depth, err := r.q.Len(ctx, channel)
	if err != nil {
		return stats, errors.Wrapf(err, "unable to get depth of channel %q", channel)
	}
	stats.Depth = depth

	if stats.Pushed, err = r.kv.GetCounter(ctx, pushedKey(channel)); err != nil {
		return stats, errors.WithStack(err)
	}
	if stats.Pulled, err = r.kv.GetCounter(ctx, pulledKey(channel)); err != nil {
		return stats, errors.WithStack(err)
	}
	return stats, nil
}
