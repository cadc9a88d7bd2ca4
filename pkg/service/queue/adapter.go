package queue

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Ensure RedisAdapter implements Queue.
var _ Queue = (*RedisAdapter)(nil)

const redisKeyPrefix = "relay:queue:"

// pushScript appends ARGV[1] to the list in KEYS[1] unless it already holds
// ARGV[2] or more entries. Returns 1 when appended and 0 when full.
var pushScript = redis.NewScript(`
if redis.call("LLEN", KEYS[1]) >= tonumber(ARGV[2]) then
	return 0
end
redis.call("RPUSH", KEYS[1], ARGV[1])
return 1
`)

// NewRedisAdapter creates a new RedisAdapter.
func NewRedisAdapter(c *redis.Client, limits Limits) *RedisAdapter {
	if c == nil {
		panic("nil queue client")
	}
	return &RedisAdapter{
		c:      c,
		limits: limits,
	}
}

// RedisAdapter stores channels as Redis lists so several relay processes can
// share them.
//
// Each channel lives under its own key. The depth check and the append run in
// a single script, so they are atomic on the server.
//
// This type is thread-safe.
type RedisAdapter struct {
	c      *redis.Client
	limits Limits
}

// redisEntry is the list element format. Payload is base64 encoded by
// encoding/json.
type redisEntry struct {
	ID      string `json:"id"`
	Payload []byte `json:"payload"`
}

func redisKey(channel string) string {
	return redisKeyPrefix + channel
}

// Push appends payload to the Redis list for channel.
func (r *RedisAdapter) Push(ctx context.Context, channel string, payload []byte) (string, error) {
	if err := r.limits.admit(payload); err != nil {
		return "", err
	}

	id := uuid.New().String()
	entry, err := json.Marshal(redisEntry{ID: id, Payload: payload})
	if err != nil {
		return "", errors.WithStack(err)
	}

	client := r.c.WithContext(ctx)
	res, err := pushScript.Run(client, []string{redisKey(channel)},
		string(entry), strconv.Itoa(r.limits.MaxQueueDepth)).Result()
	if err != nil {
		return "", errors.Wrapf(err, "error pushing to Redis list %q", channel)
	}
	if n, ok := res.(int64); !ok || n == 0 {
		return "", ErrQueueFull
	}
	return id, nil
}

// Pull pops the head of the Redis list for channel.
func (r *RedisAdapter) Pull(ctx context.Context, channel string) (Message, bool, error) {
	client := r.c.WithContext(ctx)
	v, err := client.LPop(redisKey(channel)).Result()
	if err == redis.Nil {
		return Message{}, false, nil
	}
	if err != nil {
		return Message{}, false, errors.Wrapf(err, "error reading from Redis list %q", channel)
	}

	// The entry has already been removed, so a decode failure loses it.
	var entry redisEntry
	if err := json.Unmarshal([]byte(v), &entry); err != nil {
		return Message{}, false, errors.Wrapf(err, "unable to decode entry from Redis list %q", channel)
	}
	return Message{ID: entry.ID, Payload: entry.Payload}, true, nil
}

// Len returns the length of the Redis list for channel.
func (r *RedisAdapter) Len(ctx context.Context, channel string) (int, error) {
	client := r.c.WithContext(ctx)
	n, err := client.LLen(redisKey(channel)).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "error reading length of Redis list %q", channel)
	}
	return int(n), nil
}
