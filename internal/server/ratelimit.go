package server

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/hjkwon-github/docmost-codex/internal/codec"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
)

// RateLimitMiddleware sheds load above rps with a token bucket shared by all
// callers. Rejected requests get a rate_limited error body and Retry-After.
func RateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	retryAfter := strconv.Itoa(int(math.Ceil(1 / rps)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", retryAfter)
				codec.WriteError(w, domain.ErrRateLimited("too many requests to the gateway"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
