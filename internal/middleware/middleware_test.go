package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/splitengine/internal/auth"
	"github.com/mmynk/splitengine/internal/models"
	"github.com/mmynk/splitengine/pkg/api"
)

const echoProcedure = "/splitengine.test.EchoService/Echo"

type echoRequest struct {
	Fail bool `json:"fail"`
}

type echoResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// newEchoClient serves a single procedure that echoes the caller identity
// and returns a client for it.
func newEchoClient(t *testing.T, interceptors ...connect.Interceptor) *connect.Client[echoRequest, echoResponse] {
	t.Helper()

	handler := connect.NewUnaryHandler(echoProcedure,
		func(ctx context.Context, req *connect.Request[echoRequest]) (*connect.Response[echoResponse], error) {
			if req.Msg.Fail {
				return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("bad input"))
			}
			return connect.NewResponse(&echoResponse{UserID: GetUserID(ctx), Email: GetEmail(ctx)}), nil
		},
		connect.WithCodec(api.JSONCodec{}),
		connect.WithInterceptors(interceptors...),
	)

	mux := http.NewServeMux()
	mux.Handle(echoProcedure, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return connect.NewClient[echoRequest, echoResponse](
		http.DefaultClient, server.URL+echoProcedure, connect.WithCodec(api.JSONCodec{}))
}

func echoRequestWith(authorization string) *connect.Request[echoRequest] {
	req := connect.NewRequest(&echoRequest{})
	if authorization != "" {
		req.Header().Set("Authorization", authorization)
	}
	return req
}

func TestAuthInterceptors(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "user-1", Email: "alice@example.com"}
	token, err := jwtManager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	required := newEchoClient(t, RequireAuth(jwtManager))
	optional := newEchoClient(t, OptionalAuth(jwtManager))

	tests := []struct {
		name          string
		authorization string
		wantUser      string
		requiredCode  connect.Code
	}{
		{"valid token", "Bearer " + token, "user-1", 0},
		{"no header", "", "", connect.CodeUnauthenticated},
		{"wrong scheme", "Basic " + token, "", connect.CodeUnauthenticated},
		{"garbage token", "Bearer not-a-jwt", "", connect.CodeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := required.CallUnary(context.Background(), echoRequestWith(tt.authorization))
			if tt.requiredCode != 0 {
				if connect.CodeOf(err) != tt.requiredCode {
					t.Errorf("RequireAuth: expected %v, got %v", tt.requiredCode, err)
				}
			} else if err != nil {
				t.Errorf("RequireAuth: unexpected error: %v", err)
			} else if resp.Msg.UserID != tt.wantUser || resp.Msg.Email != user.Email {
				t.Errorf("RequireAuth: unexpected identity %+v", resp.Msg)
			}

			resp, err = optional.CallUnary(context.Background(), echoRequestWith(tt.authorization))
			if err != nil {
				t.Fatalf("OptionalAuth: unexpected error: %v", err)
			}
			if resp.Msg.UserID != tt.wantUser {
				t.Errorf("OptionalAuth: expected user %q, got %q", tt.wantUser, resp.Msg.UserID)
			}
		})
	}
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	client := newEchoClient(t, LoggingInterceptor(logger))

	if _, err := client.CallUnary(context.Background(), connect.NewRequest(&echoRequest{})); err != nil {
		t.Fatalf("CallUnary failed: %v", err)
	}
	_, err := client.CallUnary(context.Background(), connect.NewRequest(&echoRequest{Fail: true}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("expected invalid_argument, got %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "level=INFO") || !strings.Contains(lines[0], "procedure="+echoProcedure) {
		t.Errorf("unexpected success line: %s", lines[0])
	}
	if !strings.Contains(lines[1], "level=WARN") || !strings.Contains(lines[1], "code=invalid_argument") {
		t.Errorf("unexpected failure line: %s", lines[1])
	}
}

func TestMetricsInterceptor(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	client := newEchoClient(t, metrics.Interceptor())

	client.CallUnary(context.Background(), connect.NewRequest(&echoRequest{}))
	client.CallUnary(context.Background(), connect.NewRequest(&echoRequest{}))
	client.CallUnary(context.Background(), connect.NewRequest(&echoRequest{Fail: true}))

	expected := `
# HELP splitengine_rpc_requests_total RPC requests by procedure and result code.
# TYPE splitengine_rpc_requests_total counter
splitengine_rpc_requests_total{code="invalid_argument",procedure="` + echoProcedure + `"} 1
splitengine_rpc_requests_total{code="ok",procedure="` + echoProcedure + `"} 2
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "splitengine_rpc_requests_total"); err != nil {
		t.Error(err)
	}

	metrics.ObserveSplit("exact", nil)
	metrics.ObserveSplit("exact", errors.New("mismatch"))
	if got, err := testutil.GatherAndCount(registry, "splitengine_splits_total"); err != nil || got != 2 {
		t.Errorf("expected 2 split series, got %d (%v)", got, err)
	}
}

func TestNilMetrics(t *testing.T) {
	var metrics *Metrics
	client := newEchoClient(t, metrics.Interceptor())

	if _, err := client.CallUnary(context.Background(), connect.NewRequest(&echoRequest{})); err != nil {
		t.Fatalf("CallUnary through nil metrics failed: %v", err)
	}
	metrics.ObserveSplit("equal", nil)
}
