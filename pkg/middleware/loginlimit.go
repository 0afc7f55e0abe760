package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/truckwise/fleet-server/pkg/httputil"
	"github.com/truckwise/fleet-server/pkg/observability"
)

// MsgTooManyLogins is returned when the login rate limit trips
const MsgTooManyLogins = "Too many login attempts. Please try again later."

// LoginLimiter throttles login attempts per client IP using a Redis counter
// with a fixed window. Redis errors fail open so an unavailable limiter
// never locks users out.
type LoginLimiter struct {
	redis   *redis.Client
	limit   int
	window  time.Duration
	metrics *observability.Metrics
}

// NewLoginLimiter creates a login rate limiter. Metrics may be nil.
func NewLoginLimiter(redisClient *redis.Client, limit int, window time.Duration, metrics *observability.Metrics) *LoginLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LoginLimiter{
		redis:   redisClient,
		limit:   limit,
		window:  window,
		metrics: metrics,
	}
}

// Handler wraps the login endpoint with per-IP throttling. A nil Redis
// client disables limiting entirely.
func (l *LoginLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := fmt.Sprintf("login_attempts:%s", clientIP(r))

		pipe := l.redis.Pipeline()
		incr := pipe.Incr(r.Context(), key)
		pipe.Expire(r.Context(), key, l.window)
		if _, err := pipe.Exec(r.Context()); err != nil {
			observability.FromContext(r.Context()).WithError(err).Warn("login rate limiter unavailable, failing open")
			next.ServeHTTP(w, r)
			return
		}

		if incr.Val() > int64(l.limit) {
			if l.metrics != nil {
				l.metrics.LoginRateLimited.Inc()
			}
			httputil.WriteTooManyRequests(w, MsgTooManyLogins)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if i := strings.IndexByte(forwarded, ','); i >= 0 {
			forwarded = forwarded[:i]
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
