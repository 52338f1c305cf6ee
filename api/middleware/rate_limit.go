package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/luisarreguin/delifast-backend/api/responses"
	pkgerrors "github.com/luisarreguin/delifast-backend/pkg/errors"
	"github.com/luisarreguin/delifast-backend/pkg/logger"
)

// RateLimitPolicy caps how many requests a single client IP may issue
// within a fixed window. A zero window or limit disables the policy.
type RateLimitPolicy struct {
	name    string
	window  time.Duration
	ipLimit int64
}

func NewRateLimitPolicy(name string, window time.Duration, ipLimit int64) RateLimitPolicy {
	return RateLimitPolicy{name: name, window: window, ipLimit: ipLimit}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.ipLimit > 0
}

type fixedWindowStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit rejects requests over the per-IP budget with a 429. When the
// policy is disabled or no store is configured, requests pass through.
// Store errors fail open so a Redis outage does not take down intake.
func RateLimit(store fixedWindowStore, policy RateLimitPolicy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || !policy.enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			scope := fmt.Sprintf("%s:ip:%s", policy.name, ip)

			allowed, attempts, err := store.FixedWindowAllow(r.Context(), scope, policy.ipLimit, policy.window)
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "rate_limit.store_error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{
						"policy":         policy.name,
						"client_ip":      ip,
						"attempts":       attempts,
						"limit":          policy.ipLimit,
						"window_seconds": int64(policy.window.Seconds()),
					})
					logg.Warn(ctx, "rate_limit.blocked")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
