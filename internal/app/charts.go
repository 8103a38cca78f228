package app

import (
	"context"
	"fmt"

	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/strutils"
)

func chartKeys(symbols []string, chartRange string, interval string) ([]domain.ChartKey, error) {
	normalized, err := strutils.NormalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}
	if !domain.ValidChartRange(chartRange) {
		return nil, fmt.Errorf("%w: unknown chart range '%s'", domain.ErrInvalidArgument, chartRange)
	}
	if !domain.ValidChartInterval(interval) {
		return nil, fmt.Errorf("%w: unknown chart interval '%s'", domain.ErrInvalidArgument, interval)
	}

	keys := make([]domain.ChartKey, 0, len(normalized))
	for _, symbol := range normalized {
		keys = append(keys, domain.ChartKey{Symbol: symbol, Range: chartRange, Interval: interval})
	}
	return keys, nil
}

// GetCharts returns one chart per symbol over chartRange sampled at interval, in input order
func (o *Orchestrator) GetCharts(ctx context.Context, symbols []string, chartRange string, interval string) ([]domain.Chart, error) {
	keys, err := chartKeys(symbols, chartRange, interval)
	if err != nil {
		return nil, err
	}

	return o.charts.GetOrdered(ctx, keys, func(ctx context.Context, keys []domain.ChartKey) ([]domain.Chart, error) {
		return fanOut(ctx, o.authStore, keys, o.provider.GetChart)
	})
}

func (o *Orchestrator) InvalidateCharts(symbols []string, chartRange string, interval string) error {
	keys, err := chartKeys(symbols, chartRange, interval)
	if err != nil {
		return err
	}

	for _, key := range keys {
		o.charts.Remove(key)
	}
	return nil
}

func (o *Orchestrator) InvalidateAllCharts() {
	o.charts.RemoveAll()
}
