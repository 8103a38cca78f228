package app

import (
	"context"

	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/strutils"
)

func (o *Orchestrator) GetNews(ctx context.Context, symbols []string) ([]domain.NewsFeed, error) {
	normalized, err := strutils.NormalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}

	return o.news.GetOrdered(ctx, normalized, func(ctx context.Context, symbols []string) ([]domain.NewsFeed, error) {
		return fanOut(ctx, o.authStore, symbols, o.provider.GetNews)
	})
}

func (o *Orchestrator) InvalidateNews(symbols []string) error {
	normalized, err := strutils.NormalizeSymbols(symbols)
	if err != nil {
		return err
	}

	for _, symbol := range normalized {
		o.news.Remove(symbol)
	}
	return nil
}

func (o *Orchestrator) InvalidateAllNews() {
	o.news.RemoveAll()
}
