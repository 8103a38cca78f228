package ports

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Amund211/quotelight/internal/app"
	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/logging"
	"github.com/Amund211/quotelight/internal/reporting"
	"github.com/Amund211/quotelight/internal/strutils"
)

const (
	defaultChartRange    = "1mo"
	defaultChartInterval = "1d"
)

// symbolsFromQuery reads the comma separated symbols parameter and adds it to the request metadata
func symbolsFromQuery(ctx context.Context, r *http.Request) (context.Context, []string) {
	symbols := strutils.SplitSymbols(r.URL.Query().Get("symbols"))
	ctx = reporting.AddSymbolsToContext(ctx, symbols)
	return ctx, symbols
}

type quotesResponseObject struct {
	Success bool            `json:"success"`
	Quotes  []quoteResponse `json:"quotes"`
}

func MakeGetQuotesHandler(
	getQuotes app.GetQuotes,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
) http.HandlerFunc {
	return makeHandler("quotes", defaultLimits, allowedOrigins, rootLogger, sentryMiddleware,
		func(ctx context.Context, r *http.Request) (any, error) {
			ctx, symbols := symbolsFromQuery(ctx, r)

			quotes, err := getQuotes(ctx, symbols)
			if err != nil {
				return nil, err
			}

			return quotesResponseObject{Success: true, Quotes: quotesToResponse(quotes)}, nil
		},
	)
}

type chartsResponseObject struct {
	Success bool            `json:"success"`
	Charts  []chartResponse `json:"charts"`
}

func MakeGetChartsHandler(
	getCharts app.GetCharts,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
) http.HandlerFunc {
	return makeHandler("charts", defaultLimits, allowedOrigins, rootLogger, sentryMiddleware,
		func(ctx context.Context, r *http.Request) (any, error) {
			ctx, symbols := symbolsFromQuery(ctx, r)

			chartRange := r.URL.Query().Get("range")
			if chartRange == "" {
				chartRange = defaultChartRange
			}
			interval := r.URL.Query().Get("interval")
			if interval == "" {
				interval = defaultChartInterval
			}
			ctx = logging.AddMetaToContext(ctx,
				slog.String("range", chartRange),
				slog.String("interval", interval),
			)

			charts, err := getCharts(ctx, symbols, chartRange, interval)
			if err != nil {
				return nil, err
			}

			return chartsResponseObject{Success: true, Charts: chartsToResponse(charts)}, nil
		},
	)
}

type optionsResponseObject struct {
	Success bool                  `json:"success"`
	Options []optionChainResponse `json:"options"`
}

func MakeGetOptionsHandler(
	getOptions app.GetOptions,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
) http.HandlerFunc {
	return makeHandler("options", defaultLimits, allowedOrigins, rootLogger, sentryMiddleware,
		func(ctx context.Context, r *http.Request) (any, error) {
			ctx, symbols := symbolsFromQuery(ctx, r)

			var expiry int64
			if rawExpiry := r.URL.Query().Get("expiry"); rawExpiry != "" {
				parsed, err := strconv.ParseInt(rawExpiry, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: invalid expiry '%s'", domain.ErrInvalidArgument, rawExpiry)
				}
				expiry = parsed
			}

			chains, err := getOptions(ctx, symbols, expiry)
			if err != nil {
				return nil, err
			}

			return optionsResponseObject{Success: true, Options: optionChainsToResponse(chains)}, nil
		},
	)
}

type statisticsResponseObject struct {
	Success    bool                 `json:"success"`
	Statistics []statisticsResponse `json:"statistics"`
}

func MakeGetStatisticsHandler(
	getStatistics app.GetStatistics,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
) http.HandlerFunc {
	return makeHandler("statistics", defaultLimits, allowedOrigins, rootLogger, sentryMiddleware,
		func(ctx context.Context, r *http.Request) (any, error) {
			ctx, symbols := symbolsFromQuery(ctx, r)

			statistics, err := getStatistics(ctx, symbols)
			if err != nil {
				return nil, err
			}

			return statisticsResponseObject{Success: true, Statistics: statisticsToResponse(statistics)}, nil
		},
	)
}

type newsResponseObject struct {
	Success bool               `json:"success"`
	News    []newsFeedResponse `json:"news"`
}

func MakeGetNewsHandler(
	getNews app.GetNews,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
) http.HandlerFunc {
	return makeHandler("news", defaultLimits, allowedOrigins, rootLogger, sentryMiddleware,
		func(ctx context.Context, r *http.Request) (any, error) {
			ctx, symbols := symbolsFromQuery(ctx, r)

			feeds, err := getNews(ctx, symbols)
			if err != nil {
				return nil, err
			}

			return newsResponseObject{Success: true, News: newsFeedsToResponse(feeds)}, nil
		},
	)
}

type searchResponseObject struct {
	Success bool                 `json:"success"`
	Result  searchResultResponse `json:"result"`
}

func MakeSearchHandler(
	search app.Search,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
) http.HandlerFunc {
	// Typeahead queries rarely repeat
	return makeHandler("search", expensiveLimits, allowedOrigins, rootLogger, sentryMiddleware,
		func(ctx context.Context, r *http.Request) (any, error) {
			query := r.URL.Query().Get("q")
			ctx = logging.AddMetaToContext(ctx, slog.String("query", query))
			ctx = reporting.AddExtrasToContext(ctx, map[string]string{"query": query})

			result, err := search(ctx, query)
			if err != nil {
				return nil, err
			}

			return searchResponseObject{Success: true, Result: searchResultToResponse(result)}, nil
		},
	)
}

type recommendationsResponseObject struct {
	Success         bool                    `json:"success"`
	Recommendations recommendationsResponse `json:"recommendations"`
}

func MakeGetRecommendationsHandler(
	getRecommendations app.GetRecommendations,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
) http.HandlerFunc {
	return makeHandler("recommendations", defaultLimits, allowedOrigins, rootLogger, sentryMiddleware,
		func(ctx context.Context, r *http.Request) (any, error) {
			symbol := r.PathValue("symbol")
			ctx = logging.AddMetaToContext(ctx, slog.String("symbol", symbol))
			ctx = reporting.AddExtrasToContext(ctx, map[string]string{"symbol": symbol})

			recommendations, err := getRecommendations(ctx, symbol)
			if err != nil {
				return nil, err
			}

			return recommendationsResponseObject{Success: true, Recommendations: recommendationsToResponse(recommendations)}, nil
		},
	)
}

type screenerResponseObject struct {
	Success  bool                   `json:"success"`
	Screener screenerResultResponse `json:"screener"`
}

func MakeGetScreenerHandler(
	getScreener app.GetScreener,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware Middleware,
) http.HandlerFunc {
	return makeHandler("screener", defaultLimits, allowedOrigins, rootLogger, sentryMiddleware,
		func(ctx context.Context, r *http.Request) (any, error) {
			screenerID := r.PathValue("screenerID")
			ctx = logging.AddMetaToContext(ctx, slog.String("screenerID", screenerID))
			ctx = reporting.AddExtrasToContext(ctx, map[string]string{"screenerID": screenerID})

			result, err := getScreener(ctx, screenerID)
			if err != nil {
				return nil, err
			}

			return screenerResponseObject{Success: true, Screener: screenerResultToResponse(result)}, nil
		},
	)
}
