// Package endpoint exposes the relay service as Go kit endpoints.
package endpoint

import (
	"context"

	"github.com/go-kit/kit/endpoint"

	"github.com/rwool/msgrelay/pkg/service"
	"github.com/rwool/msgrelay/pkg/service/queue"
)

// PushRequest carries a payload to push to a channel.
type PushRequest struct {
	Channel string
	Payload []byte
}

// PushResponse contains the ID of a pushed message and an error to indicate
// a failure in the business logic.
type PushResponse struct {
	ID string `json:"id"`
	e  error
}

// Failed indicates if there was a business logic failure.
func (p PushResponse) Failed() error {
	return p.e
}

// PullRequest names the channel to pull from.
type PullRequest struct {
	Channel string
}

// PullResponse contains the pulled message, if there was one.
type PullResponse struct {
	queue.Message
	Found bool
	e     error
}

// Failed indicates if there was a business logic failure.
func (p PullResponse) Failed() error {
	return p.e
}

// StatsRequest names the channel to describe.
type StatsRequest struct {
	Channel string
}

// StatsResponse contains the statistics for a channel.
type StatsResponse struct {
	service.ChannelStats
	e error
}

// Failed indicates if there was a business logic failure.
func (s StatsResponse) Failed() error {
	return s.e
}

var (
	_ endpoint.Failer = PushResponse{}
	_ endpoint.Failer = PullResponse{}
	_ endpoint.Failer = StatsResponse{}
)

// MakePushEndpoint creates an endpoint for pushing messages.
func MakePushEndpoint(r service.RelayService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(PushRequest)
		id, err := r.Push(ctx, req.Channel, req.Payload)
		return PushResponse{ID: id, e: err}, nil
	}
}

// MakePullEndpoint creates an endpoint for pulling messages.
func MakePullEndpoint(r service.RelayService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(PullRequest)
		msg, ok, err := r.Pull(ctx, req.Channel)
		return PullResponse{Message: msg, Found: ok, e: err}, nil
	}
}

// MakeStatsEndpoint creates an endpoint for reading channel statistics.
func MakeStatsEndpoint(r service.RelayService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(StatsRequest)
		stats, err := r.Stats(ctx, req.Channel)
		return StatsResponse{ChannelStats: stats, e: err}, nil
	}
}

// Endpoints collects the relay endpoints.
type Endpoints struct {
	Push  endpoint.Endpoint
	Pull  endpoint.Endpoint
	Stats endpoint.Endpoint
}

// MakeEndpoints creates all of the relay endpoints for r.
func MakeEndpoints(r service.RelayService) Endpoints {
	return Endpoints{
		Push:  MakePushEndpoint(r),
		Pull:  MakePullEndpoint(r),
		Stats: MakeStatsEndpoint(r),
	}
}
