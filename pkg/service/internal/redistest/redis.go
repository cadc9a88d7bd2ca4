// Package redistest implements support code for testing the relay against a
// live Redis server.
package redistest

import (
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis"
)

// Options holds the settings for connecting to the test Redis server.
type Options struct {
	Address  string
	Password string
}

// GetOptions reads the test Redis settings from the same environment
// variables the relay uses.
func GetOptions() (o Options, ok bool) {
	a := os.Getenv("REDIS_ADDRESS")
	p := os.Getenv("REDIS_PASSWORD")
	if len(a) > 0 {
		return Options{
			Address:  a,
			Password: p,
		}, true
	}
	return Options{}, false
}

// Connect connects to Redis and returns the Client object. The test is
// skipped if no server is configured, and the client is closed when the test
// finishes.
func Connect(t *testing.T) *redis.Client {
	opts, ok := GetOptions()
	if !ok {
		t.Skip("Missing REDIS_ADDRESS")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           0,
		MaxRetries:   3,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}
