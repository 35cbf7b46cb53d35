package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitengine/pkg/api"
)

// SplitServiceHandler computes allocations without persisting anything.
type SplitServiceHandler interface {
	ComputeSplit(context.Context, *connect.Request[api.ComputeSplitRequest]) (*connect.Response[api.ComputeSplitResponse], error)
}

// NewSplitServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewSplitServiceHandler(svc SplitServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return route(SplitServiceName, map[string]http.Handler{
		SplitServiceComputeSplitProcedure: connect.NewUnaryHandler(SplitServiceComputeSplitProcedure, svc.ComputeSplit, opts...),
	})
}

// SplitServiceClient is a client for the splitengine.v1.SplitService service.
type SplitServiceClient interface {
	ComputeSplit(context.Context, *connect.Request[api.ComputeSplitRequest]) (*connect.Response[api.ComputeSplitResponse], error)
}

// NewSplitServiceClient constructs a client for the SplitService. The
// baseURL should include the scheme and host, for example
// http://localhost:8080.
func NewSplitServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SplitServiceClient {
	baseURL = trimBaseURL(baseURL)
	opts = clientOptions(opts)
	return &splitServiceClient{
		computeSplit: connect.NewClient[api.ComputeSplitRequest, api.ComputeSplitResponse](
			httpClient, baseURL+SplitServiceComputeSplitProcedure, opts...),
	}
}

type splitServiceClient struct {
	computeSplit *connect.Client[api.ComputeSplitRequest, api.ComputeSplitResponse]
}

func (c *splitServiceClient) ComputeSplit(ctx context.Context, req *connect.Request[api.ComputeSplitRequest]) (*connect.Response[api.ComputeSplitResponse], error) {
	return c.computeSplit.CallUnary(ctx, req)
}
