package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with its procedure, user ID, duration and, on failure, the error code.
// Caller mistakes log at WARN; everything else that fails logs at ERROR.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure
			userID := GetUserID(ctx) // empty if pre-auth

			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", procedure,
				"user_id", userID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err == nil {
				logger.Info("RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			var connectErr *connect.Error
			if errors.As(err, &connectErr) {
				attrs = append(attrs, "code", code, "error", connectErr.Message())
			} else {
				attrs = append(attrs, "code", code, "error", err)
			}
			if isClientError(code) {
				logger.Warn("RPC error", attrs...)
			} else {
				logger.Error("RPC error", attrs...)
			}
			return resp, err
		}
	}
}

func isClientError(code connect.Code) bool {
	switch code {
	case connect.CodeInvalidArgument, connect.CodeNotFound, connect.CodeAlreadyExists,
		connect.CodePermissionDenied, connect.CodeUnauthenticated, connect.CodeFailedPrecondition:
		return true
	default:
		return false
	}
}
