// Package middleware provides the HTTP middleware of the API: access gate,
// request logging, panic recovery, CORS, body limits and rate limiting.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/fashioncraft/pkg/apperr"
	"github.com/shashiranjanraj/fashioncraft/pkg/logger"
	"github.com/shashiranjanraj/fashioncraft/pkg/metrics"
	"github.com/shashiranjanraj/fashioncraft/pkg/ratelimit"
	"github.com/shashiranjanraj/fashioncraft/pkg/response"
)

// RateLimit limits each client IP through limiter. The IP comes from
// proxies.ClientIP, so forwarded headers only count behind a trusted proxy.
// Limiter failures let the request through, so a Redis outage does not
// lock users out.
//
//	auth.Post("/login", "auth.login", h, middleware.RateLimit(limiter, proxies))
func RateLimit(limiter ratelimit.Limiter, proxies TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), proxies.ClientIP(r))
			if err != nil {
				logger.WithCtx(r.Context()).Warn("rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				metrics.RateLimited.Inc()
				secs := int(res.RetryAfter.Seconds())
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				response.Error(w, apperr.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
