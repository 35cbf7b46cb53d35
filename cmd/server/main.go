package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitengine/internal/auth"
	"github.com/mmynk/splitengine/internal/config"
	"github.com/mmynk/splitengine/internal/middleware"
	"github.com/mmynk/splitengine/internal/service"
	"github.com/mmynk/splitengine/internal/storage/sqlite"
	"github.com/mmynk/splitengine/pkg/api/apiconnect"
	"github.com/mmynk/splitengine/pkg/logging"
)

const (
	shutdownTimeout          = 10 * time.Second
	idempotencyPruneInterval = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Auth runs before the rate limiter so signed-in callers get their own
	// bucket, and before logging so log lines carry the caller's user ID.
	requireAuth := connect.WithInterceptors(
		metrics.Interceptor(),
		middleware.RequireAuth(jwtManager),
		limiter.Interceptor(),
		middleware.LoggingInterceptor(logger),
	)
	optionalAuth := connect.WithInterceptors(
		metrics.Interceptor(),
		middleware.OptionalAuth(jwtManager),
		limiter.Interceptor(),
		middleware.LoggingInterceptor(logger),
	)

	mux := http.NewServeMux()

	// Register Connect services
	mux.Handle(apiconnect.NewAuthServiceHandler(
		service.NewAuthService(authenticator, store, jwtManager, logger), optionalAuth))
	mux.Handle(apiconnect.NewSplitServiceHandler(
		service.NewSplitService(metrics), optionalAuth))
	mux.Handle(apiconnect.NewExpenseServiceHandler(
		service.NewExpenseService(store, metrics, cfg.DefaultCurrency, cfg.IdempotencyTTL), requireAuth))
	mux.Handle(apiconnect.NewGroupServiceHandler(
		service.NewGroupService(store, cfg.DefaultCurrency, cfg.IdempotencyTTL), requireAuth))

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Add logging and CORS middleware, then wrap with h2c for HTTP/2 without TLS
	handler := h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go pruneIdempotencyKeys(ctx, store, idempotencyPruneInterval)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// keyPruner is the slice of the store pruneIdempotencyKeys needs.
type keyPruner interface {
	DeleteExpiredIdempotencyKeys(ctx context.Context, now int64) (int64, error)
}

// pruneIdempotencyKeys deletes expired idempotency keys every interval until
// ctx is done.
func pruneIdempotencyKeys(ctx context.Context, store keyPruner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := store.DeleteExpiredIdempotencyKeys(ctx, now.Unix())
			if err != nil {
				slog.Warn("Pruning idempotency keys failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Debug("Pruned idempotency keys", "removed", removed)
			}
		}
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms, "+apiconnect.IdempotencyKeyHeader)
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, "+apiconnect.IdempotentReplayedHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
