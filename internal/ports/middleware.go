package ports

import (
	"net/http"
	"strconv"

	"github.com/Amund211/quotelight/internal/ratelimiting"
)

// Seconds a rate limited client is asked to back off
const retryAfterSeconds = 1

type Middleware = func(http.HandlerFunc) http.HandlerFunc

func NewRateLimitMiddleware(rateLimiter ratelimiting.RequestRateLimiter, onLimitExceeded http.HandlerFunc) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Consume(r) {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
				onLimitExceeded(w, r)
				return
			}

			next(w, r)
		}
	}
}

// ComposeMiddlewares chains middlewares so that the first one is the outermost
func ComposeMiddlewares(middlewares ...Middleware) Middleware {
	return func(h http.HandlerFunc) http.HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			h = middlewares[i](h)
		}
		return h
	}
}
