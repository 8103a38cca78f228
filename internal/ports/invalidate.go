package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/logging"
)

const maxInvalidateBodySize = 64 * 1024

// Invalidator drops cached market data so the next lookup goes upstream
type Invalidator interface {
	InvalidateQuotes(symbols []string) error
	InvalidateAllQuotes()
	InvalidateCharts(symbols []string, chartRange string, interval string) error
	InvalidateAllCharts()
	InvalidateOptions(symbols []string, expiry int64) error
	InvalidateAllOptions()
	InvalidateStatistics(symbols []string) error
	InvalidateAllStatistics()
	InvalidateNews(symbols []string) error
	InvalidateAllNews()
	InvalidateSearch(query string) error
	InvalidateAllSearches()
	InvalidateRecommendations(symbol string) error
	InvalidateAllRecommendations()
	InvalidateScreener(screenerID string) error
	InvalidateAllScreeners()
	InvalidateAll()
}

type invalidateRequest struct {
	Kind string `json:"kind"`
	// Symbols, queries or screener ids depending on kind. Empty invalidates the whole kind.
	Keys []string `json:"keys"`

	Range    string `json:"range"`
	Interval string `json:"interval"`
	Expiry   int64  `json:"expiry"`
}

type invalidateResponse struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
}

func eachKey(keys []string, invalidate func(key string) error) error {
	for _, key := range keys {
		if err := invalidate(key); err != nil {
			return err
		}
	}
	return nil
}

func invalidate(invalidator Invalidator, request invalidateRequest) error {
	all := len(request.Keys) == 0

	switch request.Kind {
	case "all":
		invalidator.InvalidateAll()
		return nil
	case "quotes":
		if all {
			invalidator.InvalidateAllQuotes()
			return nil
		}
		return invalidator.InvalidateQuotes(request.Keys)
	case "charts":
		if all {
			invalidator.InvalidateAllCharts()
			return nil
		}
		return invalidator.InvalidateCharts(request.Keys, request.Range, request.Interval)
	case "options":
		if all {
			invalidator.InvalidateAllOptions()
			return nil
		}
		return invalidator.InvalidateOptions(request.Keys, request.Expiry)
	case "statistics":
		if all {
			invalidator.InvalidateAllStatistics()
			return nil
		}
		return invalidator.InvalidateStatistics(request.Keys)
	case "news":
		if all {
			invalidator.InvalidateAllNews()
			return nil
		}
		return invalidator.InvalidateNews(request.Keys)
	case "search":
		if all {
			invalidator.InvalidateAllSearches()
			return nil
		}
		return eachKey(request.Keys, invalidator.InvalidateSearch)
	case "recommendations":
		if all {
			invalidator.InvalidateAllRecommendations()
			return nil
		}
		return eachKey(request.Keys, invalidator.InvalidateRecommendations)
	case "screener":
		if all {
			invalidator.InvalidateAllScreeners()
			return nil
		}
		return eachKey(request.Keys, invalidator.InvalidateScreener)
	}

	return fmt.Errorf("%w: unknown kind '%s'", domain.ErrInvalidArgument, request.Kind)
}

func MakeInvalidateHandler(
	invalidator Invalidator,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
) http.HandlerFunc {
	return makeHandler("invalidate", defaultLimits, allowedOrigins, rootLogger, sentryMiddleware,
		func(ctx context.Context, r *http.Request) (any, error) {
			var request invalidateRequest
			decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxInvalidateBodySize))
			decoder.DisallowUnknownFields()
			if err := decoder.Decode(&request); err != nil {
				return nil, fmt.Errorf("%w: invalid request body: %w", domain.ErrInvalidArgument, err)
			}

			ctx = logging.AddMetaToContext(ctx,
				slog.String("kind", request.Kind),
				slog.Int("keyCount", len(request.Keys)),
			)

			if err := invalidate(invalidator, request); err != nil {
				return nil, err
			}

			logging.FromContext(ctx).InfoContext(ctx, "Invalidated cache")

			return invalidateResponse{Success: true, Kind: request.Kind}, nil
		},
	)
}
