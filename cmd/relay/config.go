package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rwool/msgrelay/pkg/service/queue"
)

const defaultPort = 8080

// Config contains all of the configuration for running the relay.
type Config struct {
	Port          int
	Limits        queue.Limits
	RedisAddress  string
	RedisPassword string
}

// envInt reads a positive integer from the environment, falling back to def
// when it is unset or invalid.
func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return def
	}
	return i
}

// configFromEnv builds the defaults that command line flags override.
func configFromEnv() Config {
	port := envInt("PORT", defaultPort)
	if port > 65535 {
		port = defaultPort
	}
	return Config{
		Port: port,
		Limits: queue.Limits{
			MaxBodyBytes:  envInt("MAX_BODY_BYTES", queue.DefaultMaxBodyBytes),
			MaxQueueDepth: envInt("MAX_QUEUE_DEPTH", queue.DefaultMaxQueueDepth),
		},
		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}
}

func newRootCommand() *cobra.Command {
	conf := configFromEnv()
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "In-memory HTTP message relay",
		Long: `relay accepts opaque payloads on POST /v1/push/{channel} and hands them
back in FIFO order on GET /v1/pull/{channel}. Pulled messages are removed
immediately; there is no acknowledgement or redelivery.

Flags default to the PORT, MAX_BODY_BYTES, MAX_QUEUE_DEPTH, REDIS_ADDRESS and
REDIS_PASSWORD environment variables.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf.Limits = conf.Limits.Clamp()
			return Run(cmd.Context(), conf)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&conf.Port, "port", "p", conf.Port, "TCP port to listen on")
	f.IntVar(&conf.Limits.MaxBodyBytes, "max-body-bytes", conf.Limits.MaxBodyBytes, "largest accepted payload in bytes")
	f.IntVar(&conf.Limits.MaxQueueDepth, "max-queue-depth", conf.Limits.MaxQueueDepth, "most messages held per channel")
	f.StringVar(&conf.RedisAddress, "redis-address", conf.RedisAddress, "Redis server for shared channels (in-memory if empty)")
	f.StringVar(&conf.RedisPassword, "redis-password", conf.RedisPassword, "Redis password")
	return cmd
}
