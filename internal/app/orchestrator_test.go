package app_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Amund211/quotelight/internal/adapters/auth"
	"github.com/Amund211/quotelight/internal/app"
	"github.com/Amund211/quotelight/internal/domain"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.April, 1, 15, 30, 0, 0, time.UTC)

func nowFunc() time.Time {
	return now
}

type mockProvider struct {
	t *testing.T

	lock sync.Mutex

	cookies    int
	quoteCalls [][]string
	calls      map[string]int

	// Symbols known upstream
	known map[string]bool
	// Symbols without a quote, while still having other data
	noQuote map[string]bool

	// Returned (and cleared) by the next call of the given kind
	nextErr map[string]error
	// Credentials issued before this many cookies are rejected as unauthorized
	rejectBefore int
	// Added to every quoted price
	priceOffset float64

	// Run before fetching, if set. Set before the provider is used.
	beforeQuotes     func(ctx context.Context) error
	beforeStatistics func(ctx context.Context) error
}

func newMockProvider(t *testing.T, symbols ...string) *mockProvider {
	known := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		known[symbol] = true
	}
	return &mockProvider{
		t:       t,
		calls:   make(map[string]int),
		known:   known,
		noQuote: make(map[string]bool),
		nextErr: make(map[string]error),
	}
}

func (p *mockProvider) FetchCookie(ctx context.Context) (string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.cookies++
	return fmt.Sprintf("%d", p.cookies), nil
}

func (p *mockProvider) FetchCrumb(ctx context.Context, cookie string) (string, error) {
	return "crumb-" + cookie, nil
}

// record registers a call of kind and returns the error it should fail with, if any
func (p *mockProvider) record(kind string, credential *auth.Credential) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.calls[kind]++

	var issued int
	_, err := fmt.Sscanf(credential.Cookie, "%d", &issued)
	require.NoError(p.t, err)
	if issued < p.rejectBefore {
		return fmt.Errorf("%w: stale credential", domain.ErrUnauthorized)
	}

	if err, ok := p.nextErr[kind]; ok {
		delete(p.nextErr, kind)
		return err
	}
	return nil
}

func (p *mockProvider) callCount(kind string) int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.calls[kind]
}

func (p *mockProvider) failNext(kind string, err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.nextErr[kind] = err
}

func (p *mockProvider) setPriceOffset(offset float64) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.priceOffset = offset
}

func (p *mockProvider) lookup(symbol string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.known[symbol] {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, symbol)
	}
	return nil
}

func price(symbol string) float64 {
	return float64(len(symbol)) * 100
}

func (p *mockProvider) GetQuotes(ctx context.Context, credential *auth.Credential, symbols []string) ([]domain.Quote, error) {
	if err := p.record("quotes", credential); err != nil {
		return nil, err
	}
	if p.beforeQuotes != nil {
		if err := p.beforeQuotes(ctx); err != nil {
			return nil, err
		}
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	p.quoteCalls = append(p.quoteCalls, slices.Clone(symbols))

	quotes := []domain.Quote{}
	for _, symbol := range symbols {
		if !p.known[symbol] || p.noQuote[symbol] {
			continue
		}
		quotes = append(quotes, domain.Quote{Symbol: symbol, Price: price(symbol) + p.priceOffset, QueriedAt: now})
	}
	return quotes, nil
}

func (p *mockProvider) GetChart(ctx context.Context, credential *auth.Credential, key domain.ChartKey) (domain.Chart, error) {
	if err := p.record("charts", credential); err != nil {
		return domain.Chart{}, err
	}
	if err := p.lookup(key.Symbol); err != nil {
		return domain.Chart{}, err
	}
	return domain.Chart{Key: key, RegularMarketPrice: price(key.Symbol), QueriedAt: now}, nil
}

func (p *mockProvider) GetOptions(ctx context.Context, credential *auth.Credential, key domain.OptionsKey) (domain.OptionChain, error) {
	if err := p.record("options", credential); err != nil {
		return domain.OptionChain{}, err
	}
	if err := p.lookup(key.Symbol); err != nil {
		return domain.OptionChain{}, err
	}
	return domain.OptionChain{Key: key, Strikes: []float64{price(key.Symbol)}, QueriedAt: now}, nil
}

func (p *mockProvider) GetStatistics(ctx context.Context, credential *auth.Credential, symbol string) (domain.Statistics, error) {
	if err := p.record("statistics", credential); err != nil {
		return domain.Statistics{}, err
	}
	if p.beforeStatistics != nil {
		if err := p.beforeStatistics(ctx); err != nil {
			return domain.Statistics{}, err
		}
	}
	if err := p.lookup(symbol); err != nil {
		return domain.Statistics{}, err
	}
	return domain.Statistics{Symbol: symbol, TrailingPE: 25, QueriedAt: now}, nil
}

func (p *mockProvider) GetNews(ctx context.Context, credential *auth.Credential, symbol string) (domain.NewsFeed, error) {
	if err := p.record("news", credential); err != nil {
		return domain.NewsFeed{}, err
	}
	if err := p.lookup(symbol); err != nil {
		return domain.NewsFeed{}, err
	}
	return domain.NewsFeed{
		Symbol:    symbol,
		Articles:  []domain.NewsArticle{{UUID: symbol + "-1", Title: symbol + " news"}},
		QueriedAt: now,
	}, nil
}

func (p *mockProvider) Search(ctx context.Context, credential *auth.Credential, query string) (domain.SearchResult, error) {
	if err := p.record("search", credential); err != nil {
		return domain.SearchResult{}, err
	}
	return domain.SearchResult{
		Query:     query,
		Hits:      []domain.SearchHit{{Symbol: "AAPL", ShortName: "Apple Inc."}},
		QueriedAt: now,
	}, nil
}

func (p *mockProvider) GetRecommendations(ctx context.Context, credential *auth.Credential, symbol string) (domain.Recommendations, error) {
	if err := p.record("recommendations", credential); err != nil {
		return domain.Recommendations{}, err
	}
	if err := p.lookup(symbol); err != nil {
		return domain.Recommendations{}, err
	}
	return domain.Recommendations{
		Symbol:      symbol,
		Recommended: []domain.RecommendedSymbol{{Symbol: "MSFT", Score: 0.3}},
		QueriedAt:   now,
	}, nil
}

func (p *mockProvider) GetScreener(ctx context.Context, credential *auth.Credential, screenerID string) (domain.ScreenerResult, error) {
	if err := p.record("screener", credential); err != nil {
		return domain.ScreenerResult{}, err
	}
	return domain.ScreenerResult{
		ScreenerID: screenerID,
		Total:      1,
		Quotes:     []domain.Quote{{Symbol: "AAPL", Price: price("AAPL")}},
		QueriedAt:  now,
	}, nil
}

func newOrchestrator(t *testing.T, symbols ...string) (*app.Orchestrator, *mockProvider, *auth.Store) {
	t.Helper()

	provider := newMockProvider(t, symbols...)
	store := auth.NewStore(provider, nowFunc)
	return app.NewOrchestrator(provider, store, 0), provider, store
}

func symbolsOf(quotes []domain.Quote) []string {
	symbols := make([]string, 0, len(quotes))
	for _, quote := range quotes {
		symbols = append(symbols, quote.Symbol)
	}
	return symbols
}

func TestGetQuotes(t *testing.T) {
	t.Parallel()

	t.Run("second lookup is served from the cache", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL", "MSFT")

		quotes, err := orchestrator.GetQuotes(t.Context(), []string{"AAPL", "MSFT"})
		require.NoError(t, err)
		require.Equal(t, []string{"AAPL", "MSFT"}, symbolsOf(quotes))
		require.InDelta(t, price("AAPL"), quotes[0].Price, 1e-9)

		quotes, err = orchestrator.GetQuotes(t.Context(), []string{"AAPL"})
		require.NoError(t, err)
		require.Equal(t, []string{"AAPL"}, symbolsOf(quotes))

		require.Equal(t, [][]string{{"AAPL", "MSFT"}}, provider.quoteCalls)
	})

	t.Run("partial hits only fetch the misses", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL", "MSFT", "NVDA")

		_, err := orchestrator.GetQuotes(t.Context(), []string{"AAPL"})
		require.NoError(t, err)

		quotes, err := orchestrator.GetQuotes(t.Context(), []string{"msft", " aapl ", "NVDA"})
		require.NoError(t, err)
		require.Equal(t, []string{"MSFT", "AAPL", "NVDA"}, symbolsOf(quotes))

		require.Equal(t, [][]string{{"AAPL"}, {"MSFT", "NVDA"}}, provider.quoteCalls)
	})

	t.Run("duplicates are fetched once", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL", "MSFT")

		quotes, err := orchestrator.GetQuotes(t.Context(), []string{"AAPL", "aapl", "MSFT"})
		require.NoError(t, err)
		require.Equal(t, []string{"AAPL", "AAPL", "MSFT"}, symbolsOf(quotes))

		require.Equal(t, [][]string{{"AAPL", "MSFT"}}, provider.quoteCalls)
	})

	t.Run("unknown symbols are left out and not cached", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL")

		quotes, err := orchestrator.GetQuotes(t.Context(), []string{"AAPL", "NOPE"})
		require.NoError(t, err)
		require.Equal(t, []string{"AAPL"}, symbolsOf(quotes))

		quotes, err = orchestrator.GetQuotes(t.Context(), []string{"NOPE"})
		require.NoError(t, err)
		require.Empty(t, quotes)

		require.Equal(t, [][]string{{"AAPL", "NOPE"}, {"NOPE"}}, provider.quoteCalls)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL")
		provider.failNext("quotes", fmt.Errorf("%w: connection reset", domain.ErrUpstreamFailure))

		_, err := orchestrator.GetQuotes(t.Context(), []string{"AAPL"})
		require.ErrorIs(t, err, domain.ErrUpstreamFailure)

		quotes, err := orchestrator.GetQuotes(t.Context(), []string{"AAPL"})
		require.NoError(t, err)
		require.Equal(t, []string{"AAPL"}, symbolsOf(quotes))
		require.Equal(t, 2, provider.callCount("quotes"))
	})

	t.Run("rejected credential is replaced once", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, store := newOrchestrator(t, "AAPL")

		_, err := orchestrator.GetQuotes(t.Context(), []string{"AAPL"})
		require.NoError(t, err)
		first := store.Credential()

		// Every credential issued so far is now rejected
		provider.lock.Lock()
		provider.rejectBefore = provider.cookies + 1
		provider.lock.Unlock()

		require.NoError(t, orchestrator.InvalidateQuotes([]string{"AAPL"}))
		quotes, err := orchestrator.GetQuotes(t.Context(), []string{"AAPL"})
		require.NoError(t, err)
		require.Equal(t, []string{"AAPL"}, symbolsOf(quotes))

		require.NotSame(t, first, store.Credential())
		require.Equal(t, 2, provider.cookies)
		require.Equal(t, 3, provider.callCount("quotes"))
	})

	t.Run("invalid symbols are rejected before fetching", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL")

		_, err := orchestrator.GetQuotes(t.Context(), []string{"AAPL", "not a symbol"})
		require.ErrorIs(t, err, domain.ErrInvalidSymbol)

		_, err = orchestrator.GetQuotes(t.Context(), nil)
		require.ErrorIs(t, err, domain.ErrInvalidSymbol)

		require.Equal(t, 0, provider.callCount("quotes"))
		require.Equal(t, 0, provider.cookies)
	})
}

func TestInvalidation(t *testing.T) {
	t.Parallel()

	t.Run("quotes", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL", "MSFT")

		_, err := orchestrator.GetQuotes(t.Context(), []string{"AAPL", "MSFT"})
		require.NoError(t, err)

		require.NoError(t, orchestrator.InvalidateQuotes([]string{"aapl"}))

		_, err = orchestrator.GetQuotes(t.Context(), []string{"AAPL", "MSFT"})
		require.NoError(t, err)

		orchestrator.InvalidateAllQuotes()

		_, err = orchestrator.GetQuotes(t.Context(), []string{"AAPL", "MSFT"})
		require.NoError(t, err)

		require.Equal(t, [][]string{{"AAPL", "MSFT"}, {"AAPL"}, {"AAPL", "MSFT"}}, provider.quoteCalls)
	})

	t.Run("invalid keys", func(t *testing.T) {
		t.Parallel()

		orchestrator, _, _ := newOrchestrator(t)

		require.ErrorIs(t, orchestrator.InvalidateQuotes([]string{"!"}), domain.ErrInvalidSymbol)
		require.ErrorIs(t, orchestrator.InvalidateCharts([]string{"AAPL"}, "forever", "1d"), domain.ErrInvalidArgument)
		require.ErrorIs(t, orchestrator.InvalidateOptions([]string{"AAPL"}, -1), domain.ErrInvalidArgument)
		require.ErrorIs(t, orchestrator.InvalidateSearch(" "), domain.ErrInvalidArgument)
		require.ErrorIs(t, orchestrator.InvalidateScreener("a b"), domain.ErrInvalidArgument)
	})

	t.Run("all", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL")
		ctx := t.Context()

		fetchEverything := func() {
			_, err := orchestrator.GetQuotes(ctx, []string{"AAPL"})
			require.NoError(t, err)
			_, err = orchestrator.GetCharts(ctx, []string{"AAPL"}, "1mo", "1d")
			require.NoError(t, err)
			_, err = orchestrator.GetOptions(ctx, []string{"AAPL"}, 0)
			require.NoError(t, err)
			_, err = orchestrator.GetStatistics(ctx, []string{"AAPL"})
			require.NoError(t, err)
			_, err = orchestrator.GetNews(ctx, []string{"AAPL"})
			require.NoError(t, err)
			_, err = orchestrator.Search(ctx, "apple")
			require.NoError(t, err)
			_, err = orchestrator.GetRecommendations(ctx, "AAPL")
			require.NoError(t, err)
			_, err = orchestrator.GetScreener(ctx, "day_gainers")
			require.NoError(t, err)
		}

		kinds := []string{"quotes", "charts", "options", "statistics", "news", "search", "recommendations", "screener"}

		fetchEverything()
		fetchEverything()
		for _, kind := range kinds {
			require.Equal(t, 1, provider.callCount(kind), kind)
		}

		orchestrator.InvalidateAll()

		fetchEverything()
		for _, kind := range kinds {
			require.Equal(t, 2, provider.callCount(kind), kind)
		}
	})
}

func TestGetCharts(t *testing.T) {
	t.Parallel()

	t.Run("fans out per key and skips unknown symbols", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL", "MSFT")

		charts, err := orchestrator.GetCharts(t.Context(), []string{"MSFT", "NOPE", "AAPL"}, "5d", "1d")
		require.NoError(t, err)
		require.Len(t, charts, 2)
		require.Equal(t, domain.ChartKey{Symbol: "MSFT", Range: "5d", Interval: "1d"}, charts[0].Key)
		require.Equal(t, domain.ChartKey{Symbol: "AAPL", Range: "5d", Interval: "1d"}, charts[1].Key)
		require.Equal(t, 3, provider.callCount("charts"))

		// Cached per range and interval. The unknown symbol is retried.
		_, err = orchestrator.GetCharts(t.Context(), []string{"AAPL", "MSFT", "NOPE"}, "5d", "1d")
		require.NoError(t, err)
		require.Equal(t, 4, provider.callCount("charts"))

		charts, err = orchestrator.GetCharts(t.Context(), []string{"AAPL"}, "1y", "1wk")
		require.NoError(t, err)
		require.Len(t, charts, 1)
		require.Equal(t, domain.ChartKey{Symbol: "AAPL", Range: "1y", Interval: "1wk"}, charts[0].Key)
		require.Equal(t, 5, provider.callCount("charts"))

		require.NoError(t, orchestrator.InvalidateCharts([]string{"AAPL"}, "5d", "1d"))
		_, err = orchestrator.GetCharts(t.Context(), []string{"AAPL", "MSFT"}, "5d", "1d")
		require.NoError(t, err)
		require.Equal(t, 6, provider.callCount("charts"))
	})

	t.Run("one failing key fails the batch", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL", "MSFT")
		provider.failNext("charts", fmt.Errorf("%w: too many requests", domain.ErrTemporarilyUnavailable))

		_, err := orchestrator.GetCharts(t.Context(), []string{"AAPL", "MSFT"}, "5d", "1d")
		require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)

		charts, err := orchestrator.GetCharts(t.Context(), []string{"AAPL", "MSFT"}, "5d", "1d")
		require.NoError(t, err)
		require.Len(t, charts, 2)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL")

		_, err := orchestrator.GetCharts(t.Context(), []string{"AAPL"}, "3d", "1d")
		require.ErrorIs(t, err, domain.ErrInvalidArgument)

		_, err = orchestrator.GetCharts(t.Context(), []string{"AAPL"}, "5d", "7m")
		require.ErrorIs(t, err, domain.ErrInvalidArgument)

		_, err = orchestrator.GetCharts(t.Context(), []string{""}, "5d", "1d")
		require.ErrorIs(t, err, domain.ErrInvalidSymbol)

		require.Equal(t, 0, provider.callCount("charts"))
	})
}

func TestGetOptions(t *testing.T) {
	t.Parallel()

	orchestrator, provider, _ := newOrchestrator(t, "AAPL")

	chains, err := orchestrator.GetOptions(t.Context(), []string{"AAPL"}, 1744329600)
	require.NoError(t, err)
	require.Len(t, chains, 1)
	require.Equal(t, domain.OptionsKey{Symbol: "AAPL", Expiry: 1744329600}, chains[0].Key)

	chains, err = orchestrator.GetOptions(t.Context(), []string{"AAPL"}, 0)
	require.NoError(t, err)
	require.Equal(t, domain.OptionsKey{Symbol: "AAPL"}, chains[0].Key)
	require.Equal(t, 2, provider.callCount("options"))

	require.NoError(t, orchestrator.InvalidateOptions([]string{"AAPL"}, 0))
	_, err = orchestrator.GetOptions(t.Context(), []string{"AAPL"}, 1744329600)
	require.NoError(t, err)
	require.Equal(t, 2, provider.callCount("options"))

	_, err = orchestrator.GetOptions(t.Context(), []string{"AAPL"}, -5)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestGetStatistics(t *testing.T) {
	t.Parallel()

	t.Run("enriched with quotes", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL", "MSFT", "SPY")
		provider.noQuote["SPY"] = true

		statistics, err := orchestrator.GetStatistics(t.Context(), []string{"AAPL", "SPY", "NOPE", "MSFT"})
		require.NoError(t, err)
		require.Len(t, statistics, 3)

		require.Equal(t, "AAPL", statistics[0].Symbol)
		require.NotNil(t, statistics[0].Quote)
		require.Equal(t, "AAPL", statistics[0].Quote.Symbol)
		require.InDelta(t, price("AAPL"), statistics[0].Quote.Price, 1e-9)

		require.Equal(t, "SPY", statistics[1].Symbol)
		require.Nil(t, statistics[1].Quote)

		require.Equal(t, "MSFT", statistics[2].Symbol)
		require.NotNil(t, statistics[2].Quote)
		require.Equal(t, "MSFT", statistics[2].Quote.Symbol)

		// Both kinds are now cached
		_, err = orchestrator.GetQuotes(t.Context(), []string{"AAPL", "MSFT"})
		require.NoError(t, err)
		_, err = orchestrator.GetStatistics(t.Context(), []string{"AAPL", "MSFT"})
		require.NoError(t, err)
		require.Equal(t, 1, provider.callCount("quotes"))
		require.Equal(t, 4, provider.callCount("statistics"))
	})

	t.Run("quote changes are reflected", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL")

		statistics, err := orchestrator.GetStatistics(t.Context(), []string{"AAPL"})
		require.NoError(t, err)
		require.NotNil(t, statistics[0].Quote)
		require.InDelta(t, price("AAPL"), statistics[0].Quote.Price, 1e-9)

		provider.setPriceOffset(1)

		// Still served from the cache
		statistics, err = orchestrator.GetStatistics(t.Context(), []string{"AAPL"})
		require.NoError(t, err)
		require.InDelta(t, price("AAPL"), statistics[0].Quote.Price, 1e-9)

		// Only the quotes are invalidated, the cached statistics pick up the new quote
		orchestrator.InvalidateAllQuotes()

		statistics, err = orchestrator.GetStatistics(t.Context(), []string{"AAPL"})
		require.NoError(t, err)
		require.NotNil(t, statistics[0].Quote)
		require.InDelta(t, price("AAPL")+1, statistics[0].Quote.Price, 1e-9)
		require.Equal(t, 1, provider.callCount("statistics"))
		require.Equal(t, 2, provider.callCount("quotes"))
	})

	t.Run("statistics and quotes are fetched concurrently", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL")

		// Each fetch waits for the other one to start
		quotesStarted := make(chan struct{})
		statisticsStarted := make(chan struct{})
		barrier := func(started chan struct{}, other <-chan struct{}) func(ctx context.Context) error {
			var once sync.Once
			return func(ctx context.Context) error {
				once.Do(func() { close(started) })
				select {
				case <-other:
					return nil
				case <-time.After(5 * time.Second):
					return fmt.Errorf("%w: fetches ran sequentially", domain.ErrUpstreamFailure)
				}
			}
		}
		provider.beforeQuotes = barrier(quotesStarted, statisticsStarted)
		provider.beforeStatistics = barrier(statisticsStarted, quotesStarted)

		statistics, err := orchestrator.GetStatistics(t.Context(), []string{"AAPL"})
		require.NoError(t, err)
		require.Len(t, statistics, 1)
		require.NotNil(t, statistics[0].Quote)
	})

	t.Run("a failing quote lookup fails the call", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL")
		provider.failNext("quotes", fmt.Errorf("%w: bad gateway", domain.ErrTemporarilyUnavailable))

		_, err := orchestrator.GetStatistics(t.Context(), []string{"AAPL"})
		require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)
	})

	t.Run("a failing statistics lookup fails the call", func(t *testing.T) {
		t.Parallel()

		orchestrator, provider, _ := newOrchestrator(t, "AAPL")
		provider.failNext("statistics", fmt.Errorf("%w: bad response", domain.ErrUpstreamFailure))

		_, err := orchestrator.GetStatistics(t.Context(), []string{"AAPL"})
		require.ErrorIs(t, err, domain.ErrUpstreamFailure)
	})
}

func TestGetNews(t *testing.T) {
	t.Parallel()

	orchestrator, provider, _ := newOrchestrator(t, "AAPL", "MSFT")

	feeds, err := orchestrator.GetNews(t.Context(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	require.Equal(t, "AAPL", feeds[0].Symbol)
	require.Equal(t, "AAPL news", feeds[0].Articles[0].Title)
	require.Equal(t, "MSFT", feeds[1].Symbol)

	require.NoError(t, orchestrator.InvalidateNews([]string{"MSFT"}))
	_, err = orchestrator.GetNews(t.Context(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Equal(t, 3, provider.callCount("news"))

	orchestrator.InvalidateAllNews()
	_, err = orchestrator.GetNews(t.Context(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Equal(t, 5, provider.callCount("news"))
}

func TestSearch(t *testing.T) {
	t.Parallel()

	orchestrator, provider, _ := newOrchestrator(t)

	result, err := orchestrator.Search(t.Context(), "  Apple  Inc")
	require.NoError(t, err)
	require.Equal(t, "apple inc", result.Query)

	_, err = orchestrator.Search(t.Context(), "apple inc")
	require.NoError(t, err)
	require.Equal(t, 1, provider.callCount("search"))

	require.NoError(t, orchestrator.InvalidateSearch("APPLE INC"))
	_, err = orchestrator.Search(t.Context(), "apple inc")
	require.NoError(t, err)
	require.Equal(t, 2, provider.callCount("search"))

	orchestrator.InvalidateAllSearches()
	_, err = orchestrator.Search(t.Context(), "apple inc")
	require.NoError(t, err)
	require.Equal(t, 3, provider.callCount("search"))

	_, err = orchestrator.Search(t.Context(), "")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSearchConcurrent(t *testing.T) {
	t.Parallel()

	orchestrator, provider, _ := newOrchestrator(t)

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			result, err := orchestrator.Search(t.Context(), "apple")
			if err != nil {
				t.Error(err)
				return
			}
			if result.Query != "apple" {
				t.Errorf("unexpected query %s", result.Query)
			}
		})
	}
	wg.Wait()

	// Concurrent callers share the computation, later callers hit the cache
	require.Equal(t, 1, provider.callCount("search"))
	require.Equal(t, 1, provider.cookies)
}

func TestGetRecommendations(t *testing.T) {
	t.Parallel()

	orchestrator, provider, _ := newOrchestrator(t, "AAPL")

	recommendations, err := orchestrator.GetRecommendations(t.Context(), "aapl")
	require.NoError(t, err)
	require.Equal(t, "AAPL", recommendations.Symbol)
	require.Equal(t, []domain.RecommendedSymbol{{Symbol: "MSFT", Score: 0.3}}, recommendations.Recommended)

	_, err = orchestrator.GetRecommendations(t.Context(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, 1, provider.callCount("recommendations"))

	_, err = orchestrator.GetRecommendations(t.Context(), "NOPE")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = orchestrator.GetRecommendations(t.Context(), "NOPE")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Equal(t, 3, provider.callCount("recommendations"))

	require.NoError(t, orchestrator.InvalidateRecommendations("AAPL"))
	_, err = orchestrator.GetRecommendations(t.Context(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, 4, provider.callCount("recommendations"))

	orchestrator.InvalidateAllRecommendations()
	_, err = orchestrator.GetRecommendations(t.Context(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, 5, provider.callCount("recommendations"))

	_, err = orchestrator.GetRecommendations(t.Context(), "")
	require.ErrorIs(t, err, domain.ErrInvalidSymbol)
}

func TestGetScreener(t *testing.T) {
	t.Parallel()

	orchestrator, provider, _ := newOrchestrator(t)

	result, err := orchestrator.GetScreener(t.Context(), "Day_Gainers")
	require.NoError(t, err)
	require.Equal(t, "day_gainers", result.ScreenerID)
	require.Len(t, result.Quotes, 1)

	_, err = orchestrator.GetScreener(t.Context(), "day_gainers")
	require.NoError(t, err)
	require.Equal(t, 1, provider.callCount("screener"))

	require.NoError(t, orchestrator.InvalidateScreener("day_gainers"))
	_, err = orchestrator.GetScreener(t.Context(), "day_gainers")
	require.NoError(t, err)
	require.Equal(t, 2, provider.callCount("screener"))

	orchestrator.InvalidateAllScreeners()
	_, err = orchestrator.GetScreener(t.Context(), "day_gainers")
	require.NoError(t, err)
	require.Equal(t, 3, provider.callCount("screener"))

	_, err = orchestrator.GetScreener(t.Context(), "day gainers")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}
