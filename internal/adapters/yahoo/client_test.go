package yahoo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Amund211/quotelight/internal/adapters/auth"
	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/ratelimiting"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/embedded"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// mockMeter is a test meter that tracks counter recordings
type mockMeter struct {
	noop.Meter
	counters map[string]*mockCounter
}

func newMockMeter() *mockMeter {
	return &mockMeter{
		counters: make(map[string]*mockCounter),
	}
}

func (m *mockMeter) Int64Counter(name string, options ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	counter := &mockCounter{name: name}
	m.counters[name] = counter
	return counter, nil
}

// mockCounter tracks Int64Counter recordings
type mockCounter struct {
	embedded.Int64Counter
	lock       sync.Mutex
	name       string
	total      int64
	attributes []attribute.KeyValue
}

func (c *mockCounter) Add(ctx context.Context, value int64, options ...metric.AddOption) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.total += value

	cfg := metric.NewAddConfig(options)
	attrs := cfg.Attributes()
	iter := attrs.Iter()
	c.attributes = nil
	for iter.Next() {
		c.attributes = append(c.attributes, iter.Attribute())
	}
}

func (c *mockCounter) Enabled(ctx context.Context) bool {
	return true
}

type passthroughLimiter struct{}

func (l passthroughLimiter) Do(ctx context.Context, maxOperationTime time.Duration, operation func(ctx context.Context) error) error {
	return operation(ctx)
}

type refusingLimiter struct{}

func (l refusingLimiter) Do(ctx context.Context, maxOperationTime time.Duration, operation func(ctx context.Context) error) error {
	return ratelimiting.ErrRateLimited
}

type mockedResponse struct {
	status int
	header http.Header
	body   string
}

type mockedHttpClient struct {
	t         *testing.T
	lock      sync.Mutex
	responses map[string]mockedResponse
	requests  []*http.Request
	err       error
}

func (c *mockedHttpClient) Do(req *http.Request) (*http.Response, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}

	resp, ok := c.responses[req.URL.String()]
	if !ok {
		c.t.Errorf("unexpected request to %s", req.URL.String())
		return &http.Response{StatusCode: 500, Body: io.NopCloser(strings.NewReader(""))}, nil
	}

	header := resp.header
	if header == nil {
		header = http.Header{}
	}

	return &http.Response{
		StatusCode: resp.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(resp.body)),
	}, nil
}

var queriedAt = time.Date(2025, time.April, 1, 15, 30, 0, 0, time.UTC)

var credential = &auth.Credential{Cookie: "A3=d=AQABBK", Crumb: "Xq1.crumb", AcquiredAt: queriedAt}

func newTestClient(t *testing.T, httpClient HttpClient) (*Client, *mockMeter) {
	t.Helper()

	meter := newMockMeter()
	metrics, err := setupYahooMetrics(meter)
	require.NoError(t, err)

	return &Client{
		httpClient: httpClient,
		limiter:    passthroughLimiter{},
		nowFunc: func() time.Time {
			return queriedAt
		},
		baseURL:   defaultBaseURL,
		cookieURL: defaultCookieURL,
		metrics:   metrics,
		tracer:    tracenoop.NewTracerProvider().Tracer("test"),
	}, meter
}

func newSingleResponseClient(t *testing.T, url string, status int, body string) (*Client, *mockedHttpClient, *mockMeter) {
	t.Helper()

	httpClient := &mockedHttpClient{
		t: t,
		responses: map[string]mockedResponse{
			url: {status: status, body: body},
		},
	}
	client, meter := newTestClient(t, httpClient)
	return client, httpClient, meter
}

func TestErrorForStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		err    error
	}{
		{status: 200, err: nil},
		{status: 204, err: nil},
		{status: 401, err: domain.ErrUnauthorized},
		{status: 403, err: domain.ErrUnauthorized},
		{status: 404, err: domain.ErrNotFound},
		{status: 429, err: domain.ErrTemporarilyUnavailable},
		{status: 502, err: domain.ErrTemporarilyUnavailable},
		{status: 503, err: domain.ErrTemporarilyUnavailable},
		{status: 504, err: domain.ErrTemporarilyUnavailable},
		{status: 400, err: domain.ErrUpstreamFailure},
		{status: 500, err: domain.ErrUpstreamFailure},
		{status: 302, err: domain.ErrUpstreamFailure},
	}

	for _, c := range cases {
		t.Run(http.StatusText(c.status), func(t *testing.T) {
			t.Parallel()

			err := errorForStatus(c.status)
			if c.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, c.err)
		})
	}
}

func TestSessionCookie(t *testing.T) {
	t.Parallel()

	makeHeader := func(setCookies ...string) http.Header {
		header := http.Header{}
		for _, setCookie := range setCookies {
			header.Add("Set-Cookie", setCookie)
		}
		return header
	}

	cases := []struct {
		name     string
		header   http.Header
		expected string
	}{
		{
			name:     "A3 is preferred",
			header:   makeHeader("B=abc; Path=/", "A1=d=first; Domain=.yahoo.com", "A3=d=second; Domain=.yahoo.com; Secure; HttpOnly"),
			expected: "A3=d=second",
		},
		{
			name:     "A1 without A3",
			header:   makeHeader("B=abc; Path=/", "A1=d=first; Domain=.yahoo.com"),
			expected: "A1=d=first",
		},
		{
			name:     "first cookie as fallback",
			header:   makeHeader("B=abc; Path=/", "C=def"),
			expected: "B=abc",
		},
		{
			name:     "no cookies",
			header:   http.Header{},
			expected: "",
		},
		{
			name:     "empty value",
			header:   makeHeader("B=; Path=/"),
			expected: "",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, c.expected, sessionCookie(c.header))
		})
	}
}

func TestFetchCookie(t *testing.T) {
	t.Parallel()

	t.Run("cookie from a 404 page", func(t *testing.T) {
		t.Parallel()

		header := http.Header{}
		header.Add("Set-Cookie", "A3=d=AQABBK&S=AQAAAk; Expires=Wed, 1 Apr 2026 15:30:00 GMT; Max-Age=31557600; Domain=.yahoo.com; Path=/; SameSite=None; Secure; HttpOnly")
		httpClient := &mockedHttpClient{
			t: t,
			responses: map[string]mockedResponse{
				"https://fc.yahoo.com": {status: 404, header: header, body: "<html>not found</html>"},
			},
		}
		client, _ := newTestClient(t, httpClient)

		cookie, err := client.FetchCookie(t.Context())
		require.NoError(t, err)
		require.Equal(t, "A3=d=AQABBK&S=AQAAAk", cookie)

		require.Len(t, httpClient.requests, 1)
		require.Empty(t, httpClient.requests[0].Header.Get("Cookie"))
		require.NotEmpty(t, httpClient.requests[0].Header.Get("User-Agent"))
	})

	t.Run("no cookie", func(t *testing.T) {
		t.Parallel()

		client, _, _ := newSingleResponseClient(t, "https://fc.yahoo.com", 404, "")

		_, err := client.FetchCookie(t.Context())
		require.ErrorContains(t, err, "no session cookie")
	})

	t.Run("network error", func(t *testing.T) {
		t.Parallel()

		httpClient := &mockedHttpClient{t: t, err: errors.New("connection reset by peer")}
		client, _ := newTestClient(t, httpClient)

		_, err := client.FetchCookie(t.Context())
		require.ErrorIs(t, err, domain.ErrUpstreamFailure)
	})
}

func TestFetchCrumb(t *testing.T) {
	t.Parallel()

	const crumbURL = "https://query2.finance.yahoo.com/v1/test/getcrumb"

	t.Run("valid crumb", func(t *testing.T) {
		t.Parallel()

		client, httpClient, _ := newSingleResponseClient(t, crumbURL, 200, "Xq1.cr/umb\n")

		crumb, err := client.FetchCrumb(t.Context(), "A3=d=AQABBK")
		require.NoError(t, err)
		require.Equal(t, "Xq1.cr/umb", crumb)

		require.Len(t, httpClient.requests, 1)
		require.Equal(t, "A3=d=AQABBK", httpClient.requests[0].Header.Get("Cookie"))
	})

	for name, body := range map[string]string{
		"empty": "",
		"html":  "<html><body>Oops</body></html>",
		"json":  `{"finance":{"result":null,"error":{"code":"Unauthorized"}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			client, _, _ := newSingleResponseClient(t, crumbURL, 200, body)

			_, err := client.FetchCrumb(t.Context(), "A3=d=AQABBK")
			require.ErrorContains(t, err, "invalid crumb")
		})
	}

	t.Run("unauthorized", func(t *testing.T) {
		t.Parallel()

		client, _, _ := newSingleResponseClient(t, crumbURL, 401, `{"finance":{"result":null,"error":{"code":"Unauthorized","description":"Invalid Cookie"}}}`)

		_, err := client.FetchCrumb(t.Context(), "A3=expired")
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestSend(t *testing.T) {
	t.Parallel()

	const quoteURL = "https://query2.finance.yahoo.com/v7/finance/quote?crumb=Xq1.crumb&symbols=AAPL"

	t.Run("records metrics", func(t *testing.T) {
		t.Parallel()

		client, _, meter := newSingleResponseClient(t, quoteURL, 200, `{"quoteResponse":{"result":[],"error":null}}`)

		_, err := client.GetQuotes(t.Context(), credential, []string{"AAPL"})
		require.NoError(t, err)

		counter := meter.counters["yahoo/requests"]
		require.NotNil(t, counter)
		require.Equal(t, int64(1), counter.total)
		require.Contains(t, counter.attributes, attribute.String("endpoint", "quote"))
		require.Contains(t, counter.attributes, attribute.Int("status", 200))
	})

	t.Run("limited", func(t *testing.T) {
		t.Parallel()

		client, httpClient, _ := newSingleResponseClient(t, quoteURL, 200, `{}`)
		client.limiter = refusingLimiter{}

		_, err := client.GetQuotes(t.Context(), credential, []string{"AAPL"})
		require.ErrorIs(t, err, ratelimiting.ErrRateLimited)
		require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)
		require.Empty(t, httpClient.requests)
	})

	t.Run("status mapping", func(t *testing.T) {
		t.Parallel()

		cases := map[int]error{
			401: domain.ErrUnauthorized,
			403: domain.ErrUnauthorized,
			429: domain.ErrTemporarilyUnavailable,
			503: domain.ErrTemporarilyUnavailable,
			500: domain.ErrUpstreamFailure,
		}
		for status, expected := range cases {
			t.Run(http.StatusText(status), func(t *testing.T) {
				t.Parallel()

				client, _, _ := newSingleResponseClient(t, quoteURL, status, `{}`)

				_, err := client.GetQuotes(t.Context(), credential, []string{"AAPL"})
				require.ErrorIs(t, err, expected)
			})
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()

		client, _, _ := newSingleResponseClient(t, quoteURL, 200, `{"quoteResponse":`)

		_, err := client.GetQuotes(t.Context(), credential, []string{"AAPL"})
		require.ErrorIs(t, err, domain.ErrUpstreamFailure)
	})

	t.Run("network error", func(t *testing.T) {
		t.Parallel()

		httpClient := &mockedHttpClient{t: t, err: errors.New("i/o timeout")}
		client, _ := newTestClient(t, httpClient)

		_, err := client.GetQuotes(t.Context(), credential, []string{"AAPL"})
		require.ErrorIs(t, err, domain.ErrUpstreamFailure)
		require.ErrorContains(t, err, "i/o timeout")
	})

	t.Run("sends cookie", func(t *testing.T) {
		t.Parallel()

		client, httpClient, _ := newSingleResponseClient(t, quoteURL, 200, `{"quoteResponse":{"result":[],"error":null}}`)

		_, err := client.GetQuotes(t.Context(), credential, []string{"AAPL"})
		require.NoError(t, err)
		require.Len(t, httpClient.requests, 1)
		require.Equal(t, credential.Cookie, httpClient.requests[0].Header.Get("Cookie"))
	})
}
