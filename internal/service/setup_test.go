package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitengine/internal/auth"
	"github.com/mmynk/splitengine/internal/middleware"
	"github.com/mmynk/splitengine/internal/storage/sqlite"
	"github.com/mmynk/splitengine/pkg/api"
	"github.com/mmynk/splitengine/pkg/api/apiconnect"
)

// testEnv is a full server over a temp-file database with a client per service.
type testEnv struct {
	store    *sqlite.SQLiteStore
	registry *prometheus.Registry
	auth     apiconnect.AuthServiceClient
	split    apiconnect.SplitServiceClient
	expenses apiconnect.ExpenseServiceClient
	groups   apiconnect.GroupServiceClient
}

// testUser is a registered user and its session token.
type testUser struct {
	ID    string
	Token string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitengine-service-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(registry)
	jwtManager := auth.NewJWTManager("test-secret-key", time.Hour)

	required := connect.WithInterceptors(
		metrics.Interceptor(),
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(logger),
	)
	optional := connect.WithInterceptors(
		metrics.Interceptor(),
		middleware.OptionalAuth(jwtManager),
		middleware.LoggingInterceptor(logger),
	)

	authSvc := NewAuthService(auth.NewPasswordAuthenticator(store), store, jwtManager, logger)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(authSvc, optional))
	mux.Handle(apiconnect.NewSplitServiceHandler(NewSplitService(metrics), optional))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(store, metrics, "USD", time.Hour), required))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(store, "USD", time.Hour), required))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		store:    store,
		registry: registry,
		auth:     apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		split:    apiconnect.NewSplitServiceClient(http.DefaultClient, server.URL),
		expenses: apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL),
		groups:   apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
	}
}

// register creates an account named name and returns it with its token.
func (e *testEnv) register(t *testing.T, name string) testUser {
	t.Helper()

	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    "correct-horse",
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", name, err)
	}
	return testUser{ID: resp.Msg.User.ID, Token: resp.Msg.Token}
}

// createGroup creates a group owned by owner and adds the other users to it.
func (e *testEnv) createGroup(t *testing.T, owner testUser, members ...testUser) *api.Group {
	t.Helper()

	resp, err := e.groups.CreateGroup(context.Background(), authed(owner, &api.CreateGroupRequest{Name: "Trip"}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	group := resp.Msg.Group
	for _, m := range members {
		added, err := e.groups.AddGroupMember(context.Background(), authed(owner, &api.AddGroupMemberRequest{
			GroupID: group.ID,
			UserID:  m.ID,
		}))
		if err != nil {
			t.Fatalf("AddGroupMember(%s) failed: %v", m.ID, err)
		}
		group = added.Msg.Group
	}
	return group
}

// authed wraps msg in a request carrying u's bearer token.
func authed[T any](u testUser, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+u.Token)
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect.Error, got %T", err)
	}
	if connectErr.Code() != want {
		t.Errorf("expected %v, got %v (%v)", want, connectErr.Code(), err)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func shareAmounts(shares []api.Share) map[string]string {
	out := make(map[string]string, len(shares))
	for _, s := range shares {
		out[s.UserID] = s.Amount
	}
	return out
}
