package app

import (
	"context"

	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/logging"
	"github.com/Amund211/quotelight/internal/strutils"
	"golang.org/x/sync/errgroup"
)

// GetStatistics returns the statistics for symbols, each with its quote attached.
//
// Statistics and quotes are fetched concurrently. A symbol with statistics but
// no quote gets a nil Quote.
func (o *Orchestrator) GetStatistics(ctx context.Context, symbols []string) ([]domain.Statistics, error) {
	normalized, err := strutils.NormalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}

	var statistics []domain.Statistics
	var quotes map[string]domain.Quote

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		statistics, err = o.statistics.GetOrdered(gctx, normalized, func(ctx context.Context, symbols []string) ([]domain.Statistics, error) {
			return fanOut(ctx, o.authStore, symbols, o.provider.GetStatistics)
		})
		return err
	})
	g.Go(func() error {
		var err error
		quotes, err = o.quotes.GetBatch(gctx, normalized, o.resolveQuotes)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	enriched := make([]domain.Statistics, 0, len(statistics))
	missingQuotes := 0
	for _, s := range statistics {
		// s is a copy, the cached statistics are left untouched
		if quote, ok := quotes[s.Symbol]; ok {
			s.Quote = &quote
		} else {
			s.Quote = nil
			missingQuotes++
		}
		enriched = append(enriched, s)
	}

	if missingQuotes > 0 {
		logging.FromContext(ctx).InfoContext(ctx, "Statistics partially enriched", "missingQuotes", missingQuotes)
	}

	return enriched, nil
}

func (o *Orchestrator) InvalidateStatistics(symbols []string) error {
	normalized, err := strutils.NormalizeSymbols(symbols)
	if err != nil {
		return err
	}

	for _, symbol := range normalized {
		o.statistics.Remove(symbol)
	}
	return nil
}

func (o *Orchestrator) InvalidateAllStatistics() {
	o.statistics.RemoveAll()
}
