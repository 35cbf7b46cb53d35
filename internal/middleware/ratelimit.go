package middleware

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a caller has used up its request budget.
var ErrRateLimited = errors.New("rate limit exceeded")

const (
	// limiterIdleTTL is how long a caller's bucket is kept after its last request.
	limiterIdleTTL = 10 * time.Minute
	// limiterSweepSize is the number of tracked callers that triggers a sweep.
	limiterSweepSize = 10000
)

type callerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller. Authenticated callers are
// keyed by user ID and anonymous callers by remote IP. A nil *RateLimiter
// allows everything.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	callers map[string]*callerLimiter
}

// NewRateLimiter refills each bucket at perSecond tokens per second and lets
// it hold up to burst tokens. It returns nil when perSecond is not positive,
// which disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
		callers: make(map[string]*callerLimiter),
	}
}

// Allow consumes one token from key's bucket and reports whether one was available.
func (l *RateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.callers[key]
	if !ok {
		if len(l.callers) >= limiterSweepSize {
			l.sweep(now)
		}
		c = &callerLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.callers[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// sweep drops buckets that have been idle longer than limiterIdleTTL.
// Callers must hold l.mu.
func (l *RateLimiter) sweep(now time.Time) {
	for key, c := range l.callers {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(l.callers, key)
		}
	}
}

// Interceptor returns a Connect interceptor that rejects requests over the
// caller's budget with CodeResourceExhausted. It must run after the auth
// interceptor so that signed-in callers are keyed by user ID.
func (l *RateLimiter) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if l == nil {
				return next(ctx, req)
			}
			if !l.Allow(callerKey(ctx, req)) {
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}

func callerKey(ctx context.Context, req connect.AnyRequest) string {
	if userID := GetUserID(ctx); userID != "" {
		return "user:" + userID
	}
	addr := req.Peer().Addr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return "ip:" + addr
}
