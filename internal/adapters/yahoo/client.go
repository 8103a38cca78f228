package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Amund211/quotelight/internal/adapters/auth"
	"github.com/Amund211/quotelight/internal/constants"
	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/logging"
	"github.com/Amund211/quotelight/internal/ratelimiting"
	"github.com/Amund211/quotelight/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL   = "https://query2.finance.yahoo.com"
	defaultCookieURL = "https://fc.yahoo.com"
)

// Upper bound for a single request, used to decide if we have time to wait for the limiter
const maxOperationTime = 10 * time.Second

const maxBodySize = 8 << 20

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type yahooMetrics struct {
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
}

func setupYahooMetrics(meter metric.Meter) (yahooMetrics, error) {
	requests, err := meter.Int64Counter(
		"yahoo/requests",
		metric.WithDescription("Requests sent to Yahoo Finance, by endpoint and status"),
	)
	if err != nil {
		return yahooMetrics{}, fmt.Errorf("failed to create requests metric: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		"yahoo/request_duration_seconds",
		metric.WithDescription("Duration of requests sent to Yahoo Finance"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return yahooMetrics{}, fmt.Errorf("failed to create request duration metric: %w", err)
	}

	return yahooMetrics{
		requests:        requests,
		requestDuration: requestDuration,
	}, nil
}

type Client struct {
	httpClient HttpClient
	limiter    ratelimiting.RequestLimiter
	nowFunc    func() time.Time

	baseURL   string
	cookieURL string

	metrics yahooMetrics
	tracer  trace.Tracer
}

func NewClient(httpClient HttpClient, limiter ratelimiting.RequestLimiter, nowFunc func() time.Time) (*Client, error) {
	metrics, err := setupYahooMetrics(otel.Meter("quotelight/yahoo"))
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
		nowFunc:    nowFunc,
		baseURL:    defaultBaseURL,
		cookieURL:  defaultCookieURL,
		metrics:    metrics,
		tracer:     otel.Tracer("quotelight/yahoo"),
	}, nil
}

type response struct {
	statusCode int
	header     http.Header
	body       []byte
	queriedAt  time.Time
}

// Classify a status code from Yahoo. nil for 2xx.
func errorForStatus(statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: yahoo returned status code %d", domain.ErrUnauthorized, statusCode)
	case statusCode == http.StatusTooManyRequests,
		statusCode == http.StatusBadGateway,
		statusCode == http.StatusServiceUnavailable,
		statusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: yahoo returned status code %d", domain.ErrTemporarilyUnavailable, statusCode)
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: yahoo returned status code %d", domain.ErrNotFound, statusCode)
	}
	return fmt.Errorf("%w: yahoo returned status code %d", domain.ErrUpstreamFailure, statusCode)
}

// send performs one GET through the outbound limiter. The status code is not checked.
func (c *Client) send(ctx context.Context, endpoint string, url string, cookie string) (response, error) {
	ctx, span := c.tracer.Start(ctx, "Yahoo."+endpoint, trace.WithAttributes(attribute.String("endpoint", endpoint)))
	defer span.End()

	logger := logging.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err := fmt.Errorf("%w: failed to create request: %w", domain.ErrUpstreamFailure, err)
		reporting.Report(ctx, err, map[string]string{"endpoint": endpoint})
		return response{}, err
	}

	req.Header.Set("User-Agent", constants.BROWSER_USER_AGENT)
	req.Header.Set("Accept", "application/json,text/plain,*/*")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	var resp *http.Response
	start := time.Now()
	err = c.limiter.Do(ctx, maxOperationTime, func(ctx context.Context) error {
		var err error
		resp, err = c.httpClient.Do(req)
		return err
	})
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		span.RecordError(err)
		if errors.Is(err, ratelimiting.ErrRateLimited) {
			logger.WarnContext(ctx, "Outbound request limit reached", "endpoint", endpoint)
			return response{}, err
		}
		if ctx.Err() != nil {
			return response{}, fmt.Errorf("request to yahoo abandoned: %w", err)
		}
		err := fmt.Errorf("%w: failed to send request: %w", domain.ErrUpstreamFailure, err)
		reporting.Report(ctx, err, map[string]string{"endpoint": endpoint})
		return response{}, err
	}
	defer resp.Body.Close()

	queriedAt := c.nowFunc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		err := fmt.Errorf("%w: failed to read response body: %w", domain.ErrUpstreamFailure, err)
		reporting.Report(ctx, err, map[string]string{"endpoint": endpoint})
		return response{}, err
	}

	duration := time.Since(start)
	attributes := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Int("status", resp.StatusCode),
	)
	c.metrics.requests.Add(ctx, 1, attributes)
	c.metrics.requestDuration.Record(ctx, duration.Seconds(), attributes)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	logger.InfoContext(ctx, "yahoo request completed", "endpoint", endpoint, "status", resp.StatusCode, "duration", duration.String())

	return response{
		statusCode: resp.StatusCode,
		header:     resp.Header,
		body:       body,
		queriedAt:  queriedAt,
	}, nil
}

// getJSON performs an authenticated GET and decodes the body into target
func (c *Client) getJSON(ctx context.Context, endpoint string, url string, credential *auth.Credential, target any) (time.Time, error) {
	resp, err := c.send(ctx, endpoint, url, credential.Cookie)
	if err != nil {
		return time.Time{}, err
	}

	if err := errorForStatus(resp.statusCode); err != nil {
		if errors.Is(err, domain.ErrUpstreamFailure) {
			reporting.Report(ctx, err, map[string]string{
				"endpoint": endpoint,
				"data":     truncate(string(resp.body), 1000),
				"status":   strconv.Itoa(resp.statusCode),
			})
		}
		return time.Time{}, err
	}

	if err := json.Unmarshal(resp.body, target); err != nil {
		err := fmt.Errorf("%w: failed to parse %s response: %w", domain.ErrUpstreamFailure, endpoint, err)
		reporting.Report(ctx, err, map[string]string{
			"endpoint": endpoint,
			"data":     truncate(string(resp.body), 1000),
			"status":   strconv.Itoa(resp.statusCode),
		})
		return time.Time{}, err
	}

	return resp.queriedAt, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
