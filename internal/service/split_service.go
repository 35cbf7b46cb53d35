package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitengine/internal/calculator"
	"github.com/mmynk/splitengine/internal/middleware"
	"github.com/mmynk/splitengine/pkg/api"
)

// SplitService implements the Connect SplitService. It computes allocations
// without touching storage.
type SplitService struct {
	metrics *middleware.Metrics
}

// NewSplitService creates a new SplitService. metrics may be nil.
func NewSplitService(metrics *middleware.Metrics) *SplitService {
	return &SplitService{metrics: metrics}
}

// ComputeSplit previews how a total would be allocated.
func (s *SplitService) ComputeSplit(ctx context.Context, req *connect.Request[api.ComputeSplitRequest]) (*connect.Response[api.ComputeSplitResponse], error) {
	spec := req.Msg.SplitSpec
	slog.Debug("ComputeSplit request received",
		"method", spec.Method,
		"total_amount", calculator.Describe(spec.TotalAmount),
		"user_id", middleware.GetUserID(ctx),
	)

	allocation, err := allocate(s.metrics, spec)
	if err != nil {
		slog.Warn("ComputeSplit rejected", "method", spec.Method, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.ComputeSplitResponse{
		Method:      spec.Method,
		TotalAmount: calculator.FormatAmount(allocation.Sum()),
		Shares:      toAPIShares(allocation),
	}), nil
}

// allocate runs the allocator for spec and records the outcome.
func allocate(metrics *middleware.Metrics, spec api.SplitSpec) (calculator.Allocation, error) {
	allocation, err := computeAllocation(spec)
	metrics.ObserveSplit(methodLabel(spec.Method), err)
	return allocation, err
}

func computeAllocation(spec api.SplitSpec) (calculator.Allocation, error) {
	participants, err := splitParticipants(spec)
	if err != nil {
		return nil, err
	}
	return calculator.ComputeSplit(spec.TotalAmount, participants)
}
