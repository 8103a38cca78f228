package app

import (
	"context"

	"github.com/Amund211/quotelight/internal/adapters/auth"
	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/strutils"
)

// Search looks up symbols and news matching query.
// Queries differing only in case and whitespace share a result.
func (o *Orchestrator) Search(ctx context.Context, query string) (domain.SearchResult, error) {
	normalized, err := strutils.NormalizeQuery(query)
	if err != nil {
		return domain.SearchResult{}, err
	}

	return o.search.Get(ctx, normalized, func(ctx context.Context, query string) (domain.SearchResult, error) {
		return auth.WithAuth(ctx, o.authStore, func(ctx context.Context, credential *auth.Credential) (domain.SearchResult, error) {
			return o.provider.Search(ctx, credential, query)
		})
	})
}

func (o *Orchestrator) InvalidateSearch(query string) error {
	normalized, err := strutils.NormalizeQuery(query)
	if err != nil {
		return err
	}

	o.search.Invalidate(normalized)
	return nil
}

func (o *Orchestrator) InvalidateAllSearches() {
	o.search.Clear()
}
