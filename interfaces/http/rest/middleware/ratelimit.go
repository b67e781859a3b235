package middleware

import (
	"net"
	"net/http"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/errors"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/ratelimit"
)

// RateLimit rejects requests once a client exhausts its token bucket.
// Clients are keyed by remote IP, so this should run after RealIP.
func RateLimit(limiter ratelimit.Limiter, perMinute int, errorHandler *errors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientKey(r))
			if err != nil {
				errorHandler.Handle(w, r, errors.NewInternalError("rate limiter failure").WithCause(err))
				return
			}
			if !allowed {
				errorHandler.Handle(w, r, errors.NewRateLimitError(perMinute, "minute"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
