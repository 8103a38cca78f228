package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/logging"
	"github.com/Amund211/quotelight/internal/ratelimiting"
	"github.com/Amund211/quotelight/internal/reporting"
)

// Upper bound on the time spent serving one request, including waiting for upstream capacity
const requestTimeout = 20 * time.Second

type errorResponse struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
}

// serveFunc handles a request, returning the value to marshal as the response body
type serveFunc func(ctx context.Context, r *http.Request) (any, error)

// statusForError maps an error from the app layer to a status code and a cause safe to show to the caller
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrTemporarilyUnavailable):
		return http.StatusServiceUnavailable, "temporarily unavailable"
	case errors.Is(err, domain.ErrUpstreamFailure),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrAcquisitionFailure):
		return http.StatusBadGateway, "upstream failure"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timed out"
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"cause":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(data); err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to write response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, statusCode int, cause string) {
	writeJSON(ctx, w, statusCode, errorResponse{Success: false, Cause: cause})
}

func onLimitExceeded(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logging.FromContext(ctx).InfoContext(ctx, "Rate limit exceeded", "statusCode", http.StatusTooManyRequests)
	writeError(ctx, w, http.StatusTooManyRequests, "rate limit exceeded")
}

// makeHandler wraps serve in the middleware shared by every endpoint and writes its result as JSON
func makeHandler(
	name string,
	limits func() limiterClass,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
	serve serveFunc,
) http.HandlerFunc {
	limiters := limits()

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware(name),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware(name),
		BuildCORSMiddleware(allowedOrigins),
		NewRateLimitMiddleware(limiters.ip, onLimitExceeded),
		NewRateLimitMiddleware(limiters.userID, onLimitExceeded),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		userID := r.Header.Get("X-User-Id")
		ctx = reporting.SetUserIDInContext(ctx, userID)
		if userID == "" {
			userID = "<missing>"
		}
		ctx = logging.AddMetaToContext(ctx, slog.String("userId", userID))

		response, err := serve(ctx, r)
		if err != nil {
			statusCode, cause := statusForError(err)
			logger := logging.FromContext(ctx)
			if statusCode >= http.StatusInternalServerError {
				logger.ErrorContext(ctx, "Failed to serve request", "statusCode", statusCode, "error", err)
			} else {
				logger.InfoContext(ctx, "Rejected request", "statusCode", statusCode, "error", err)
			}
			if statusCode == http.StatusInternalServerError {
				// NOTE: Adapters report their own errors. Only report what fell through.
				reporting.Report(ctx, fmt.Errorf("unhandled error in %s: %w", name, err))
			}
			writeError(ctx, w, statusCode, cause)
			return
		}

		writeJSON(ctx, w, http.StatusOK, response)
	}

	return middleware(handler)
}

// limiterClass holds the inbound limiters shared by every endpoint of one class.
// Requests are charged by SymbolCost, so a client has one budget across those endpoints.
type limiterClass struct {
	ip     ratelimiting.RequestRateLimiter
	userID ratelimiting.RequestRateLimiter
}

func newLimiterClass(
	ipRefill ratelimiting.RefillPerSecond,
	ipBurst ratelimiting.BurstSize,
	userIDRefill ratelimiting.RefillPerSecond,
	userIDBurst ratelimiting.BurstSize,
) limiterClass {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(ipRefill, ipBurst, time.Now)
	userIDLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(userIDRefill, userIDBurst, time.Now)

	return limiterClass{
		ip: ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc, ratelimiting.SymbolCost),
		// NOTE: Rate limiting based on user controlled value
		userID: ratelimiting.NewRequestBasedRateLimiter(userIDLimiter, ratelimiting.UserIDKeyFunc, ratelimiting.SymbolCost),
	}
}

// Generous limits for cheap, cacheable lookups
var defaultLimits = sync.OnceValue(func() limiterClass {
	return newLimiterClass(8, 480, 4, 240)
})

// Tight limits for endpoints that mostly miss the cache
var expensiveLimits = sync.OnceValue(func() limiterClass {
	return newLimiterClass(2, 60, 1, 30)
})
