package app

import (
	"context"
	"fmt"

	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/strutils"
)

func optionsKeys(symbols []string, expiry int64) ([]domain.OptionsKey, error) {
	normalized, err := strutils.NormalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}
	if expiry < 0 {
		return nil, fmt.Errorf("%w: negative expiry %d", domain.ErrInvalidArgument, expiry)
	}

	keys := make([]domain.OptionsKey, 0, len(normalized))
	for _, symbol := range normalized {
		keys = append(keys, domain.OptionsKey{Symbol: symbol, Expiry: expiry})
	}
	return keys, nil
}

// GetOptions returns the option chain expiring at expiry (unix seconds) for each symbol.
// An expiry of 0 selects the nearest expiration.
func (o *Orchestrator) GetOptions(ctx context.Context, symbols []string, expiry int64) ([]domain.OptionChain, error) {
	keys, err := optionsKeys(symbols, expiry)
	if err != nil {
		return nil, err
	}

	return o.options.GetOrdered(ctx, keys, func(ctx context.Context, keys []domain.OptionsKey) ([]domain.OptionChain, error) {
		return fanOut(ctx, o.authStore, keys, o.provider.GetOptions)
	})
}

func (o *Orchestrator) InvalidateOptions(symbols []string, expiry int64) error {
	keys, err := optionsKeys(symbols, expiry)
	if err != nil {
		return err
	}

	for _, key := range keys {
		o.options.Remove(key)
	}
	return nil
}

func (o *Orchestrator) InvalidateAllOptions() {
	o.options.RemoveAll()
}
