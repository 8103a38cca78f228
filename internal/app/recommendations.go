package app

import (
	"context"

	"github.com/Amund211/quotelight/internal/adapters/auth"
	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/strutils"
)

// GetRecommendations returns the symbols similar to symbol.
// Returns domain.ErrNotFound if the upstream has no recommendations for it.
func (o *Orchestrator) GetRecommendations(ctx context.Context, symbol string) (domain.Recommendations, error) {
	normalized, err := strutils.NormalizeSymbol(symbol)
	if err != nil {
		return domain.Recommendations{}, err
	}

	return o.recommendations.Get(ctx, normalized, func(ctx context.Context, symbol string) (domain.Recommendations, error) {
		return auth.WithAuth(ctx, o.authStore, func(ctx context.Context, credential *auth.Credential) (domain.Recommendations, error) {
			return o.provider.GetRecommendations(ctx, credential, symbol)
		})
	})
}

func (o *Orchestrator) InvalidateRecommendations(symbol string) error {
	normalized, err := strutils.NormalizeSymbol(symbol)
	if err != nil {
		return err
	}

	o.recommendations.Invalidate(normalized)
	return nil
}

func (o *Orchestrator) InvalidateAllRecommendations() {
	o.recommendations.Clear()
}
