package main

import (
	"context"
	"fmt"
	"net"
	gohttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/rwool/msgrelay/pkg/endpoint"
	"github.com/rwool/msgrelay/pkg/http"
	"github.com/rwool/msgrelay/pkg/service"
	"github.com/rwool/msgrelay/pkg/service/keyvalue"
	"github.com/rwool/msgrelay/pkg/service/queue"
)

const shutdownTimeout = 10 * time.Second

func getRedisClient(conf Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         conf.RedisAddress,
		Password:     conf.RedisPassword,
		DB:           0,
		MaxRetries:   10,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, errors.WithStack(err)
	}
	return client, nil
}

// newBackends picks the queue and counter backends. Without a Redis address
// everything is kept in memory.
func newBackends(conf Config) (queue.Queue, keyvalue.KeyValue, func(), error) {
	if conf.RedisAddress == "" {
		return queue.NewMemoryStore(conf.Limits), keyvalue.NewMemoryAdapter(), func() {}, nil
	}
	rc, err := getRedisClient(conf)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "unable to connect to Redis")
	}
	return queue.NewRedisAdapter(rc, conf.Limits), keyvalue.NewRedisAdapter(rc), func() { _ = rc.Close() }, nil
}

// newHandler wires the service, endpoints and HTTP transport together.
func newHandler(q queue.Queue, kv keyvalue.KeyValue, conf Config, l log.Logger) gohttp.Handler {
	// Business logic.
	relay := service.NewRelayService(service.RelayServiceConfig{
		Queue:  q,
		KeyVal: kv,
		Log:    l,
	})

	// Endpoints.
	eps := endpoint.MakeEndpoints(relay)

	// Transports.
	return http.NewRelayHTTPHandler(eps, http.Config{
		MaxBodyBytes: conf.Limits.MaxBodyBytes,
		Log:          l,
	})
}

// Run runs the relay until ctx is cancelled or the process receives SIGINT or
// SIGTERM.
func Run(ctx context.Context, conf Config) error {
	l := log.NewJSONLogger(os.Stderr)
	l = log.With(l, "ts", log.DefaultTimestampUTC)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	q, kv, closeBackends, err := newBackends(conf)
	if err != nil {
		_ = l.Log("LEVEL", "ERROR", "MESSAGE", err)
		return err
	}
	defer closeBackends()

	// Separate listening and serving to capture listen errors.
	lis, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", conf.Port))
	if err != nil {
		err = errors.Wrap(err, "unable to create TCP listener")
		_ = l.Log("LEVEL", "ERROR", "MESSAGE", err)
		return err
	}
	_ = l.Log("LEVEL", "INFO", "MESSAGE", "relay listening",
		"addr", lis.Addr().String(),
		"max_body_bytes", conf.Limits.MaxBodyBytes,
		"max_queue_depth", conf.Limits.MaxQueueDepth,
		"redis", conf.RedisAddress != "")

	return serve(ctx, lis, newHandler(q, kv, conf, l), l)
}

// serve serves h on lis until ctx is done, then shuts the server down.
func serve(ctx context.Context, lis net.Listener, h gohttp.Handler, l log.Logger) error {
	srv := &gohttp.Server{Handler: h}
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		err := srv.Serve(lis)
		if err == gohttp.ErrServerClosed {
			return nil
		}
		return errors.Wrap(err, "HTTP server failed")
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = l.Log("LEVEL", "WARN", "MESSAGE", err)
		}
		return nil
	})

	err := group.Wait()
	if err != nil {
		_ = l.Log("LEVEL", "ERROR", "MESSAGE", err)
	}
	return err
}
