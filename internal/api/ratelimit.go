package api

import (
	"net/http"

	"golang.org/x/time/rate"
)

// submitBurst allows short submission spikes above the sustained rate.
const submitBurst = 10

// submitLimiter returns middleware that rate-limits job submissions with a
// shared token bucket. A non-positive rate disables limiting entirely.
func submitLimiter(perSecond float64) func(http.Handler) http.Handler {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := rate.NewLimiter(rate.Limit(perSecond), submitBurst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"submission rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
