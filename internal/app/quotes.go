package app

import (
	"context"
	"errors"

	"github.com/Amund211/quotelight/internal/adapters/auth"
	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/strutils"
)

// GetQuotes returns the quotes for symbols in input order.
// Symbols without a quote upstream are left out.
func (o *Orchestrator) GetQuotes(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	normalized, err := strutils.NormalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}

	return o.quotes.GetOrdered(ctx, normalized, o.resolveQuotes)
}

// One upstream call for every missing symbol
func (o *Orchestrator) resolveQuotes(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	quotes, err := auth.WithAuth(ctx, o.authStore, func(ctx context.Context, credential *auth.Credential) ([]domain.Quote, error) {
		return o.provider.GetQuotes(ctx, credential, symbols)
	})
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Quote{}, nil
	}
	return quotes, err
}

func (o *Orchestrator) InvalidateQuotes(symbols []string) error {
	normalized, err := strutils.NormalizeSymbols(symbols)
	if err != nil {
		return err
	}

	for _, symbol := range normalized {
		o.quotes.Remove(symbol)
	}
	return nil
}

func (o *Orchestrator) InvalidateAllQuotes() {
	o.quotes.RemoveAll()
}
