package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Amund211/quotelight/internal/adapters/auth"
	"github.com/Amund211/quotelight/internal/adapters/cache"
	"github.com/Amund211/quotelight/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Upper bound on concurrent upstream calls issued by one fan-out resolver
const maxConcurrentFetches = 8

type marketDataProvider interface {
	GetQuotes(ctx context.Context, credential *auth.Credential, symbols []string) ([]domain.Quote, error)
	GetChart(ctx context.Context, credential *auth.Credential, key domain.ChartKey) (domain.Chart, error)
	GetOptions(ctx context.Context, credential *auth.Credential, key domain.OptionsKey) (domain.OptionChain, error)
	GetStatistics(ctx context.Context, credential *auth.Credential, symbol string) (domain.Statistics, error)
	GetNews(ctx context.Context, credential *auth.Credential, symbol string) (domain.NewsFeed, error)
	Search(ctx context.Context, credential *auth.Credential, query string) (domain.SearchResult, error)
	GetRecommendations(ctx context.Context, credential *auth.Credential, symbol string) (domain.Recommendations, error)
	GetScreener(ctx context.Context, credential *auth.Credential, screenerID string) (domain.ScreenerResult, error)
}

// Orchestrator is the entry point for market data.
// It owns one cache per kind of data, and every upstream call goes through the auth store.
type Orchestrator struct {
	provider  marketDataProvider
	authStore *auth.Store

	quotes     *cache.BatchCache[string, domain.Quote]
	charts     *cache.BatchCache[domain.ChartKey, domain.Chart]
	options    *cache.BatchCache[domain.OptionsKey, domain.OptionChain]
	statistics *cache.BatchCache[string, domain.Statistics]
	news       *cache.BatchCache[string, domain.NewsFeed]

	search          *cache.SingleFlightCache[string, domain.SearchResult]
	recommendations *cache.SingleFlightCache[string, domain.Recommendations]
	screeners       *cache.SingleFlightCache[string, domain.ScreenerResult]
}

// NewOrchestrator creates an orchestrator with empty caches.
// A cacheCapacity of 0 leaves the caches unbounded.
func NewOrchestrator(provider marketDataProvider, authStore *auth.Store, cacheCapacity uint64) *Orchestrator {
	return &Orchestrator{
		provider:  provider,
		authStore: authStore,

		quotes: cache.NewBatchCache(
			"quotes",
			cache.NewTTLStorage[string, domain.Quote](cacheCapacity),
			func(quote domain.Quote) string { return quote.Symbol },
		),
		charts: cache.NewBatchCache(
			"charts",
			cache.NewTTLStorage[domain.ChartKey, domain.Chart](cacheCapacity),
			func(chart domain.Chart) domain.ChartKey { return chart.Key },
		),
		options: cache.NewBatchCache(
			"options",
			cache.NewTTLStorage[domain.OptionsKey, domain.OptionChain](cacheCapacity),
			func(chain domain.OptionChain) domain.OptionsKey { return chain.Key },
		),
		statistics: cache.NewBatchCache(
			"statistics",
			cache.NewTTLStorage[string, domain.Statistics](cacheCapacity),
			func(statistics domain.Statistics) string { return statistics.Symbol },
		),
		news: cache.NewBatchCache(
			"news",
			cache.NewTTLStorage[string, domain.NewsFeed](cacheCapacity),
			func(feed domain.NewsFeed) string { return feed.Symbol },
		),

		search: cache.NewSingleFlightCache(
			"search",
			cache.NewTTLStorage[string, domain.SearchResult](cacheCapacity),
		),
		recommendations: cache.NewSingleFlightCache(
			"recommendations",
			cache.NewTTLStorage[string, domain.Recommendations](cacheCapacity),
		),
		screeners: cache.NewSingleFlightCache(
			"screeners",
			cache.NewTTLStorage[string, domain.ScreenerResult](cacheCapacity),
		),
	}
}

// InvalidateAll drops every cached value of every kind
func (o *Orchestrator) InvalidateAll() {
	o.InvalidateAllQuotes()
	o.InvalidateAllCharts()
	o.InvalidateAllOptions()
	o.InvalidateAllStatistics()
	o.InvalidateAllNews()
	o.InvalidateAllSearches()
	o.InvalidateAllRecommendations()
	o.InvalidateAllScreeners()
}

// fanOut resolves every key with its own authenticated upstream call, at most
// maxConcurrentFetches at a time. Keys the upstream has no data for are left out.
func fanOut[K comparable, V any](
	ctx context.Context,
	authStore *auth.Store,
	keys []K,
	fetch func(ctx context.Context, credential *auth.Credential, key K) (V, error),
) ([]V, error) {
	values := make([]V, len(keys))
	found := make([]bool, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, key := range keys {
		g.Go(func() error {
			value, err := auth.WithAuth(gctx, authStore, func(ctx context.Context, credential *auth.Credential) (V, error) {
				return fetch(ctx, credential, key)
			})
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			} else if err != nil {
				return fmt.Errorf("failed to fetch %v: %w", key, err)
			}
			values[i] = value
			found[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]V, 0, len(keys))
	for i, value := range values {
		if found[i] {
			result = append(result, value)
		}
	}
	return result, nil
}
