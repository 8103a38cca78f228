package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/quotelight/internal/adapters/auth"
	"github.com/Amund211/quotelight/internal/domain"
)

const statisticsModules = "defaultKeyStatistics,summaryDetail,financialData"

const (
	newsCount          = 10
	searchQuotesCount  = 10
	searchNewsCount    = 5
	screenerQuoteCount = 25
)

// Source is the upstream market data provider.
//
// Every method raises domain.ErrUnauthorized when the credential is rejected,
// domain.ErrTemporarilyUnavailable when the provider is believed to be intermittently unavailable
// and domain.ErrNotFound when there is no data for the given key.
// Implementations handle their own error reporting.
type Source interface {
	auth.Acquirer

	// Symbols missing upstream are left out of the result
	GetQuotes(ctx context.Context, credential *auth.Credential, symbols []string) ([]domain.Quote, error)
	GetChart(ctx context.Context, credential *auth.Credential, key domain.ChartKey) (domain.Chart, error)
	GetOptions(ctx context.Context, credential *auth.Credential, key domain.OptionsKey) (domain.OptionChain, error)
	GetStatistics(ctx context.Context, credential *auth.Credential, symbol string) (domain.Statistics, error)
	GetNews(ctx context.Context, credential *auth.Credential, symbol string) (domain.NewsFeed, error)
	Search(ctx context.Context, credential *auth.Credential, query string) (domain.SearchResult, error)
	GetRecommendations(ctx context.Context, credential *auth.Credential, symbol string) (domain.Recommendations, error)
	GetScreener(ctx context.Context, credential *auth.Credential, screenerID string) (domain.ScreenerResult, error)
}

func (c *Client) endpointURL(path string, credential *auth.Credential, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("crumb", credential.Crumb)
	return fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
}

func (c *Client) GetQuotes(ctx context.Context, credential *auth.Credential, symbols []string) ([]domain.Quote, error) {
	if len(symbols) == 0 {
		return []domain.Quote{}, nil
	}

	var resp quoteResponse
	queriedAt, err := c.getJSON(ctx, "quote", c.endpointURL("/v7/finance/quote", credential, url.Values{
		"symbols": {strings.Join(symbols, ",")},
	}), credential, &resp)
	if err != nil {
		return nil, err
	}
	if err := resp.QuoteResponse.Error.asError(); err != nil {
		return nil, err
	}

	return quotesToDomain(resp.QuoteResponse.Result, queriedAt), nil
}

func (c *Client) GetChart(ctx context.Context, credential *auth.Credential, key domain.ChartKey) (domain.Chart, error) {
	var resp chartResponse
	queriedAt, err := c.getJSON(ctx, "chart", c.endpointURL("/v8/finance/chart/"+url.PathEscape(key.Symbol), credential, url.Values{
		"range":    {key.Range},
		"interval": {key.Interval},
	}), credential, &resp)
	if err != nil {
		return domain.Chart{}, err
	}

	return resp.toDomain(key, queriedAt)
}

func (c *Client) GetOptions(ctx context.Context, credential *auth.Credential, key domain.OptionsKey) (domain.OptionChain, error) {
	params := url.Values{}
	if key.Expiry != 0 {
		params.Set("date", strconv.FormatInt(key.Expiry, 10))
	}

	var resp optionsResponse
	queriedAt, err := c.getJSON(ctx, "options", c.endpointURL("/v7/finance/options/"+url.PathEscape(key.Symbol), credential, params), credential, &resp)
	if err != nil {
		return domain.OptionChain{}, err
	}

	return resp.toDomain(key, queriedAt)
}

func (c *Client) GetStatistics(ctx context.Context, credential *auth.Credential, symbol string) (domain.Statistics, error) {
	var resp quoteSummaryResponse
	queriedAt, err := c.getJSON(ctx, "quote_summary", c.endpointURL("/v10/finance/quoteSummary/"+url.PathEscape(symbol), credential, url.Values{
		"modules": {statisticsModules},
	}), credential, &resp)
	if err != nil {
		return domain.Statistics{}, err
	}

	return resp.toDomain(symbol, queriedAt)
}

func (c *Client) search(ctx context.Context, credential *auth.Credential, query string, quotesCount int, newsCount int) (searchResponse, time.Time, error) {
	var resp searchResponse
	queriedAt, err := c.getJSON(ctx, "search", c.endpointURL("/v1/finance/search", credential, url.Values{
		"q":           {query},
		"quotesCount": {strconv.Itoa(quotesCount)},
		"newsCount":   {strconv.Itoa(newsCount)},
	}), credential, &resp)
	return resp, queriedAt, err
}

func (c *Client) GetNews(ctx context.Context, credential *auth.Credential, symbol string) (domain.NewsFeed, error) {
	resp, queriedAt, err := c.search(ctx, credential, symbol, 0, newsCount)
	if err != nil {
		return domain.NewsFeed{}, err
	}

	return domain.NewsFeed{
		Symbol:    symbol,
		Articles:  newsToDomain(resp.News),
		QueriedAt: queriedAt,
	}, nil
}

func (c *Client) Search(ctx context.Context, credential *auth.Credential, query string) (domain.SearchResult, error) {
	resp, queriedAt, err := c.search(ctx, credential, query, searchQuotesCount, searchNewsCount)
	if err != nil {
		return domain.SearchResult{}, err
	}

	return resp.toDomain(query, queriedAt), nil
}

func (c *Client) GetRecommendations(ctx context.Context, credential *auth.Credential, symbol string) (domain.Recommendations, error) {
	var resp recommendationsResponse
	queriedAt, err := c.getJSON(ctx, "recommendations", c.endpointURL("/v6/finance/recommendationsbysymbol/"+url.PathEscape(symbol), credential, nil), credential, &resp)
	if err != nil {
		return domain.Recommendations{}, err
	}

	return resp.toDomain(symbol, queriedAt)
}

func (c *Client) GetScreener(ctx context.Context, credential *auth.Credential, screenerID string) (domain.ScreenerResult, error) {
	var resp screenerResponse
	queriedAt, err := c.getJSON(ctx, "screener", c.endpointURL("/v1/finance/screener/predefined/saved", credential, url.Values{
		"scrIds": {screenerID},
		"count":  {strconv.Itoa(screenerQuoteCount)},
	}), credential, &resp)
	if err != nil {
		return domain.ScreenerResult{}, err
	}

	return resp.toDomain(screenerID, queriedAt)
}

var _ Source = (*Client)(nil)
