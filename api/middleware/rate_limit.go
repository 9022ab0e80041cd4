package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nmartinez-dev/expensio-backend/api/responses"
	"github.com/nmartinez-dev/expensio-backend/pkg/config"
	pkgerrors "github.com/nmartinez-dev/expensio-backend/pkg/errors"
	"github.com/nmartinez-dev/expensio-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	WindowTTL(context.Context, string) (time.Duration, error)
}

// RateLimitPolicy defines the anonymous-traffic throttling parameters.
type RateLimitPolicy struct {
	window            time.Duration
	ipLimit           int
	retryAfterDefault time.Duration
}

// NewRateLimitPolicy builds a policy from the loaded configuration.
func NewRateLimitPolicy(cfg config.RateLimitConfig) RateLimitPolicy {
	retryAfter := cfg.RetryAfterDefault
	if retryAfter <= 0 {
		retryAfter = 10 * time.Second
	}
	return RateLimitPolicy{
		window:            cfg.Window,
		ipLimit:           cfg.IPLimit,
		retryAfterDefault: retryAfter,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.ipLimit > 0
}

func ipKey(ip string) string {
	return fmt.Sprintf("rl:ip:%s", ip)
}

// RateLimit bounds anonymous request volume per source IP. Requests carrying
// any identity signal bypass the limiter entirely, and a failing counter
// store fails OPEN: availability of the API is worth more than strictness of
// the throttle when the auxiliary store is down.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if HasIdentitySignal(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := ipKey(clientIP(r))

			count, err := store.IncrWithTTL(ctx, key, policy.window)
			if err != nil {
				if logg != nil {
					warnCtx := logg.WithField(ctx, "error", err.Error())
					logg.Warn(warnCtx, "rate_limit.store_unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(policy.ipLimit) {
				retryAfter := policy.retryAfterDefault
				if ttl, ttlErr := store.WindowTTL(ctx, key); ttlErr == nil && ttl > 0 {
					retryAfter = ttl
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))

				if logg != nil {
					blockedCtx := logg.WithFields(ctx, map[string]any{
						"attempts":       count,
						"limit":          policy.ipLimit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(blockedCtx, "rate_limit.blocked")
				}

				responses.WriteError(ctx, nil, w,
					pkgerrors.New(pkgerrors.CodeRateLimit, "Too many requests, please try again later."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
