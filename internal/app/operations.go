package app

import (
	"context"

	"github.com/Amund211/quotelight/internal/domain"
)

type GetQuotes func(ctx context.Context, symbols []string) ([]domain.Quote, error)

type GetCharts func(ctx context.Context, symbols []string, chartRange string, interval string) ([]domain.Chart, error)

type GetOptions func(ctx context.Context, symbols []string, expiry int64) ([]domain.OptionChain, error)

type GetStatistics func(ctx context.Context, symbols []string) ([]domain.Statistics, error)

type GetNews func(ctx context.Context, symbols []string) ([]domain.NewsFeed, error)

type Search func(ctx context.Context, query string) (domain.SearchResult, error)

type GetRecommendations func(ctx context.Context, symbol string) (domain.Recommendations, error)

type GetScreener func(ctx context.Context, screenerID string) (domain.ScreenerResult, error)
