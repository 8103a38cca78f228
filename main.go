package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Amund211/quotelight/internal/adapters/auth"
	"github.com/Amund211/quotelight/internal/adapters/yahoo"
	"github.com/Amund211/quotelight/internal/app"
	"github.com/Amund211/quotelight/internal/config"
	"github.com/Amund211/quotelight/internal/logging"
	"github.com/Amund211/quotelight/internal/ports"
	"github.com/Amund211/quotelight/internal/ratelimiting"
	"github.com/Amund211/quotelight/internal/reporting"
	"github.com/Amund211/quotelight/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	// Root certificates for minimal container images
	_ "golang.org/x/crypto/x509roots/fallback"
)

const serviceName = "quotelight"

// Yahoo starts answering 429 somewhere above this
const (
	yahooRequestLimit  = 60
	yahooRequestWindow = 1 * time.Minute
)

func main() {
	instanceID := uuid.New().String()

	config, err := config.ConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load config", "error", err.Error())
		os.Exit(1)
	}

	logger := slog.New(
		logging.NewTraceLogHandler(slog.NewJSONHandler(os.Stdout, nil), config.GCPProject()),
	).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	logger.Info("Loaded config", "config", config.NonSensitiveString())

	if config.OTelEnabled() {
		shutdown, err := telemetry.SetupOTelSDK(context.Background(), serviceName, instanceID)
		if err != nil {
			fail("Failed to set up OpenTelemetry", "error", err.Error())
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   10 * time.Second,
	}

	yahooLimiter := ratelimiting.NewWindowLimiter(yahooRequestLimit, yahooRequestWindow, time.Now, time.After)

	source, err := yahoo.NewSourceOrMock(config, httpClient, yahooLimiter, time.Now)
	if err != nil {
		fail("Failed to initialize Yahoo source", "error", err.Error())
	}
	logger.Info("Initialized Yahoo source")

	authStore := auth.NewStore(source, time.Now)

	orchestrator := app.NewOrchestrator(source, authStore, config.CacheCapacity())

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	allowedOrigins, err := ports.NewDomainSuffixes(config.AllowedOrigins()...)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	mux := http.NewServeMux()

	register := func(method string, pattern string, handler http.HandlerFunc) {
		mux.HandleFunc(fmt.Sprintf("OPTIONS %s", pattern), ports.BuildCORSHandler(allowedOrigins))
		mux.HandleFunc(fmt.Sprintf("%s %s", method, pattern), handler)
	}

	register("GET", "/v1/quotes", ports.MakeGetQuotesHandler(
		orchestrator.GetQuotes,
		allowedOrigins,
		logger.With("port", "quotes"),
		sentryMiddleware,
	))
	register("GET", "/v1/charts", ports.MakeGetChartsHandler(
		orchestrator.GetCharts,
		allowedOrigins,
		logger.With("port", "charts"),
		sentryMiddleware,
	))
	register("GET", "/v1/options", ports.MakeGetOptionsHandler(
		orchestrator.GetOptions,
		allowedOrigins,
		logger.With("port", "options"),
		sentryMiddleware,
	))
	register("GET", "/v1/statistics", ports.MakeGetStatisticsHandler(
		orchestrator.GetStatistics,
		allowedOrigins,
		logger.With("port", "statistics"),
		sentryMiddleware,
	))
	register("GET", "/v1/news", ports.MakeGetNewsHandler(
		orchestrator.GetNews,
		allowedOrigins,
		logger.With("port", "news"),
		sentryMiddleware,
	))
	register("GET", "/v1/search", ports.MakeSearchHandler(
		orchestrator.Search,
		allowedOrigins,
		logger.With("port", "search"),
		sentryMiddleware,
	))
	register("GET", "/v1/recommendations/{symbol}", ports.MakeGetRecommendationsHandler(
		orchestrator.GetRecommendations,
		allowedOrigins,
		logger.With("port", "recommendations"),
		sentryMiddleware,
	))
	register("GET", "/v1/screener/{screenerID}", ports.MakeGetScreenerHandler(
		orchestrator.GetScreener,
		allowedOrigins,
		logger.With("port", "screener"),
		sentryMiddleware,
	))
	register("POST", "/v1/invalidate", ports.MakeInvalidateHandler(
		orchestrator,
		allowedOrigins,
		logger.With("port", "invalidate"),
		sentryMiddleware,
	))

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", config.Port()), otelhttp.NewHandler(mux, serviceName))
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
