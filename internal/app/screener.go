package app

import (
	"context"

	"github.com/Amund211/quotelight/internal/adapters/auth"
	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/strutils"
)

// GetScreener returns the quotes matched by a predefined screener, e.g. day_gainers
func (o *Orchestrator) GetScreener(ctx context.Context, screenerID string) (domain.ScreenerResult, error) {
	normalized, err := strutils.NormalizeScreenerID(screenerID)
	if err != nil {
		return domain.ScreenerResult{}, err
	}

	return o.screeners.Get(ctx, normalized, func(ctx context.Context, screenerID string) (domain.ScreenerResult, error) {
		return auth.WithAuth(ctx, o.authStore, func(ctx context.Context, credential *auth.Credential) (domain.ScreenerResult, error) {
			return o.provider.GetScreener(ctx, credential, screenerID)
		})
	})
}

func (o *Orchestrator) InvalidateScreener(screenerID string) error {
	normalized, err := strutils.NormalizeScreenerID(screenerID)
	if err != nil {
		return err
	}

	o.screeners.Invalidate(normalized)
	return nil
}

func (o *Orchestrator) InvalidateAllScreeners() {
	o.screeners.Clear()
}
