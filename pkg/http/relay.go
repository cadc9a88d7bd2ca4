// Package http makes the relay endpoints available over HTTP.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"strings"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"

	relayendpoint "github.com/rwool/msgrelay/pkg/endpoint"
	"github.com/rwool/msgrelay/pkg/service/queue"
)

// Route prefixes. The channel name is the remainder of the path.
const (
	PushPrefix  = "/v1/push/"
	PullPrefix  = "/v1/pull/"
	StatsPrefix = "/v1/stats/"
)

// MessageIDHeader carries the ID of a pulled message.
const MessageIDHeader = "X-Msg-Id"

// Response bodies for failed requests.
const (
	ErrBodyEmptyBody  = "ERR_EMPTY_BODY"
	ErrBodyTooLarge   = "ERR_TOO_LARGE"
	ErrBodyQueueFull  = "ERR_QUEUE_FULL"
	ErrBodyBadRequest = "ERR_BAD_REQUEST"
	ErrBodyInternal   = "ERR_INTERNAL"
)

// Config contains the configuration for the relay HTTP handler.
type Config struct {
	// MaxBodyBytes bounds how much of a push body is read. Anything longer is
	// truncated to MaxBodyBytes+1 bytes so the service still rejects it as
	// too large.
	MaxBodyBytes int
	Log          log.Logger
	// Options are extra server options keyed by "Push", "Pull" or "Stats".
	Options map[string][]http.ServerOption
}

// NewRelayHTTPHandler returns a handler that makes the relay endpoints
// available via HTTP.
func NewRelayHTTPHandler(eps relayendpoint.Endpoints, conf Config) gohttp.Handler {
	if conf.Options == nil {
		conf.Options = make(map[string][]http.ServerOption)
	}
	if conf.Log == nil {
		conf.Log = log.NewNopLogger()
	}
	if conf.MaxBodyBytes <= 0 {
		conf.MaxBodyBytes = queue.DefaultMaxBodyBytes
	}
	base := []http.ServerOption{
		http.ServerErrorEncoder(encodeError),
		http.ServerErrorLogger(conf.Log),
	}
	opts := func(name string) []http.ServerOption {
		return append(append([]http.ServerOption{}, base...), conf.Options[name]...)
	}

	m := gohttp.NewServeMux()
	makeHandler(m, gohttp.MethodPost, PushPrefix, eps.Push,
		makeDecodePushRequest(conf.MaxBodyBytes), encodePushResponse, opts("Push")...)
	makeHandler(m, gohttp.MethodGet, PullPrefix, eps.Pull,
		decodePullRequest, encodePullResponse, opts("Pull")...)
	makeHandler(m, gohttp.MethodGet, StatsPrefix, eps.Stats,
		decodeStatsRequest, encodeStatsResponse, opts("Stats")...)
	return m
}

// badRequestError marks failures to read the request itself.
type badRequestError struct {
	err error
}

func (b badRequestError) Error() string {
	return b.err.Error()
}

// errorStatus maps an error to its status code and response body.
func errorStatus(err error) (int, string) {
	if _, ok := err.(badRequestError); ok {
		return gohttp.StatusBadRequest, ErrBodyBadRequest
	}
	switch errors.Cause(err) {
	case queue.ErrEmptyBody:
		return gohttp.StatusBadRequest, ErrBodyEmptyBody
	case queue.ErrTooLarge:
		return gohttp.StatusRequestEntityTooLarge, ErrBodyTooLarge
	case queue.ErrQueueFull:
		return gohttp.StatusTooManyRequests, ErrBodyQueueFull
	}
	return gohttp.StatusInternalServerError, ErrBodyInternal
}

func writeError(w gohttp.ResponseWriter, err error) {
	code, body := errorStatus(err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

func encodeError(_ context.Context, err error, w gohttp.ResponseWriter) {
	writeError(w, err)
}

// channelFromPath returns the channel named by path, or false if the path
// does not name exactly one channel.
func channelFromPath(prefix, path string) (string, bool) {
	channel := strings.TrimPrefix(path, prefix)
	if channel == "" || strings.Contains(channel, "/") {
		return "", false
	}
	return channel, true
}

func makeDecodePushRequest(maxBodyBytes int) http.DecodeRequestFunc {
	return func(_ context.Context, req *gohttp.Request) (interface{}, error) {
		defer func() { _ = req.Body.Close() }()
		channel, _ := channelFromPath(PushPrefix, req.URL.Path)
		// Read one byte past the limit so oversize bodies are detectable
		// without buffering them in full.
		data, err := io.ReadAll(io.LimitReader(req.Body, int64(maxBodyBytes)+1))
		if err != nil {
			return nil, badRequestError{errors.Wrap(err, "unable to read request body")}
		}
		return relayendpoint.PushRequest{Channel: channel, Payload: data}, nil
	}
}

func encodePushResponse(_ context.Context, w gohttp.ResponseWriter, r interface{}) error {
	if v, ok := r.(endpoint.Failer); ok && v.Failed() != nil {
		writeError(w, v.Failed())
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(r)
	return errors.WithStack(err)
}

func decodePullRequest(_ context.Context, req *gohttp.Request) (interface{}, error) {
	channel, _ := channelFromPath(PullPrefix, req.URL.Path)
	return relayendpoint.PullRequest{Channel: channel}, nil
}

func encodePullResponse(_ context.Context, w gohttp.ResponseWriter, r interface{}) error {
	resp := r.(relayendpoint.PullResponse)
	if resp.Failed() != nil {
		writeError(w, resp.Failed())
		return nil
	}
	if !resp.Found {
		w.WriteHeader(gohttp.StatusNoContent)
		return nil
	}
	w.Header().Set(MessageIDHeader, resp.ID)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(gohttp.StatusOK)
	_, err := w.Write(resp.Payload)
	return errors.WithStack(err)
}

func decodeStatsRequest(_ context.Context, req *gohttp.Request) (interface{}, error) {
	channel, _ := channelFromPath(StatsPrefix, req.URL.Path)
	return relayendpoint.StatsRequest{Channel: channel}, nil
}

func encodeStatsResponse(_ context.Context, w gohttp.ResponseWriter, r interface{}) error {
	resp := r.(relayendpoint.StatsResponse)
	if resp.Failed() != nil {
		writeError(w, resp.Failed())
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(resp.ChannelStats)
	return errors.WithStack(err)
}

func makeHandler(m *gohttp.ServeMux, method, prefix string, e endpoint.Endpoint,
	dec http.DecodeRequestFunc, enc http.EncodeResponseFunc, options ...http.ServerOption) {
	handler := http.NewServer(e, dec, enc, options...)
	hf := func(w gohttp.ResponseWriter, r *gohttp.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			w.WriteHeader(gohttp.StatusMethodNotAllowed)
			_, _ = fmt.Fprintf(w, "Invalid request method %s", r.Method)
			return
		}
		if _, ok := channelFromPath(prefix, r.URL.Path); !ok {
			gohttp.NotFound(w, r)
			return
		}
		handler.ServeHTTP(w, r)
	}
	m.Handle(prefix, gohttp.HandlerFunc(hf))
}
