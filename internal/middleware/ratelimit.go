package middleware

import (
	"net"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ascendtravel/concierge/pkg/httpext"
	"github.com/ascendtravel/concierge/pkg/ratelimit"
)

// RateLimit rejects requests over the limiter's per-client budget with
// 429. Clients are keyed by IP so one noisy widget cannot starve others.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				key = r.RemoteAddr
			}

			if !limiter.Allow(key) {
				log.Warn().Str("client_ip", key).Msg("Rate limit exceeded")
				httpext.JsonError(w, "Too many requests. Please slow down.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
