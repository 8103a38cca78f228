package yahoo

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/Amund211/quotelight/internal/adapters/auth"
	"github.com/Amund211/quotelight/internal/config"
	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/ratelimiting"
)

// mockedSource serves made up, deterministic data for local development
type mockedSource struct {
	nowFunc func() time.Time
}

func basePrice(symbol string) float64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return 10 + float64(h.Sum32()%50000)/100
}

func (m *mockedSource) FetchCookie(ctx context.Context) (string, error) {
	return "A3=mocked", nil
}

func (m *mockedSource) FetchCrumb(ctx context.Context, cookie string) (string, error) {
	return "mockedcrumb", nil
}

func (m *mockedSource) quote(symbol string) domain.Quote {
	price := basePrice(symbol)
	return domain.Quote{
		Symbol:           symbol,
		ShortName:        fmt.Sprintf("%s Inc.", symbol),
		LongName:         fmt.Sprintf("%s Incorporated", symbol),
		Exchange:         "NasdaqGS",
		QuoteType:        "EQUITY",
		Currency:         "USD",
		MarketState:      "REGULAR",
		Price:            price,
		Change:           price / 100,
		ChangePercent:    1,
		PreviousClose:    price * 0.99,
		Open:             price * 0.995,
		DayHigh:          price * 1.01,
		DayLow:           price * 0.98,
		Volume:           1_000_000,
		MarketCap:        int64(price * 1_000_000_000),
		FiftyTwoWeekHigh: price * 1.3,
		FiftyTwoWeekLow:  price * 0.7,
		QueriedAt:        m.nowFunc(),
	}
}

func (m *mockedSource) GetQuotes(ctx context.Context, credential *auth.Credential, symbols []string) ([]domain.Quote, error) {
	quotes := make([]domain.Quote, 0, len(symbols))
	for _, symbol := range symbols {
		quotes = append(quotes, m.quote(symbol))
	}
	return quotes, nil
}

func (m *mockedSource) GetChart(ctx context.Context, credential *auth.Credential, key domain.ChartKey) (domain.Chart, error) {
	now := m.nowFunc()
	price := basePrice(key.Symbol)

	candles := make([]domain.Candle, 0, 30)
	for i := range 30 {
		p := price * (1 + float64(i%7-3)/100)
		candles = append(candles, domain.Candle{
			Time:   now.Add(time.Duration(i-30) * 24 * time.Hour).Truncate(24 * time.Hour),
			Open:   p * 0.995,
			High:   p * 1.01,
			Low:    p * 0.99,
			Close:  p,
			Volume: 1_000_000,
		})
	}

	return domain.Chart{
		Key:                key,
		Currency:           "USD",
		RegularMarketPrice: price,
		PreviousClose:      price * 0.99,
		Candles:            candles,
		QueriedAt:          now,
	}, nil
}

func (m *mockedSource) GetOptions(ctx context.Context, credential *auth.Credential, key domain.OptionsKey) (domain.OptionChain, error) {
	now := m.nowFunc()
	price := basePrice(key.Symbol)
	expiration := now.Add(7 * 24 * time.Hour).Truncate(24 * time.Hour)
	if key.Expiry != 0 {
		expiration = time.Unix(key.Expiry, 0).UTC()
	}

	strikes := []float64{price * 0.9, price, price * 1.1}
	contracts := func(kind string) []domain.OptionContract {
		result := make([]domain.OptionContract, 0, len(strikes))
		for i, strike := range strikes {
			result = append(result, domain.OptionContract{
				ContractSymbol:    fmt.Sprintf("%s%s%s%d", key.Symbol, expiration.Format("060102"), kind, i),
				Strike:            strike,
				LastPrice:         price / 20,
				Bid:               price / 21,
				Ask:               price / 19,
				Volume:            100,
				OpenInterest:      1000,
				ImpliedVolatility: 0.3,
				InTheMoney:        (kind == "C") == (strike < price),
				Expiration:        expiration,
			})
		}
		return result
	}

	return domain.OptionChain{
		Key:             key,
		ExpirationDates: []time.Time{expiration},
		Strikes:         strikes,
		Calls:           contracts("C"),
		Puts:            contracts("P"),
		QueriedAt:       now,
	}, nil
}

func (m *mockedSource) GetStatistics(ctx context.Context, credential *auth.Credential, symbol string) (domain.Statistics, error) {
	price := basePrice(symbol)
	return domain.Statistics{
		Symbol:            symbol,
		MarketCap:         int64(price * 1_000_000_000),
		EnterpriseValue:   int64(price * 1_100_000_000),
		TrailingPE:        25,
		ForwardPE:         22,
		PriceToBook:       8,
		Beta:              1.1,
		TrailingEPS:       price / 25,
		ForwardEPS:        price / 22,
		DividendYield:     0.01,
		ProfitMargins:     0.2,
		SharesOutstanding: 1_000_000_000,
		FloatShares:       900_000_000,
		ShortRatio:        1.5,
		TargetMeanPrice:   price * 1.1,
		Recommendation:    "buy",
		QueriedAt:         m.nowFunc(),
	}, nil
}

func (m *mockedSource) GetNews(ctx context.Context, credential *auth.Credential, symbol string) (domain.NewsFeed, error) {
	now := m.nowFunc()
	return domain.NewsFeed{
		Symbol: symbol,
		Articles: []domain.NewsArticle{
			{
				UUID:           fmt.Sprintf("mocked-%s-1", symbol),
				Title:          fmt.Sprintf("%s shares move on nothing in particular", symbol),
				Publisher:      "Mocked News",
				Link:           "https://example.com/news/1",
				PublishedAt:    now.Add(-time.Hour),
				RelatedTickers: []string{symbol},
			},
		},
		QueriedAt: now,
	}, nil
}

func (m *mockedSource) Search(ctx context.Context, credential *auth.Credential, query string) (domain.SearchResult, error) {
	return domain.SearchResult{
		Query: query,
		Hits: []domain.SearchHit{
			{
				Symbol:    query,
				ShortName: fmt.Sprintf("%s Inc.", query),
				LongName:  fmt.Sprintf("%s Incorporated", query),
				Exchange:  "NasdaqGS",
				QuoteType: "EQUITY",
			},
		},
		News:      []domain.NewsArticle{},
		QueriedAt: m.nowFunc(),
	}, nil
}

func (m *mockedSource) GetRecommendations(ctx context.Context, credential *auth.Credential, symbol string) (domain.Recommendations, error) {
	return domain.Recommendations{
		Symbol: symbol,
		Recommended: []domain.RecommendedSymbol{
			{Symbol: "AAPL", Score: 0.3},
			{Symbol: "MSFT", Score: 0.25},
		},
		QueriedAt: m.nowFunc(),
	}, nil
}

func (m *mockedSource) GetScreener(ctx context.Context, credential *auth.Credential, screenerID string) (domain.ScreenerResult, error) {
	symbols := []string{"AAPL", "MSFT", "NVDA"}
	quotes := make([]domain.Quote, 0, len(symbols))
	for _, symbol := range symbols {
		quotes = append(quotes, m.quote(symbol))
	}
	return domain.ScreenerResult{
		ScreenerID:  screenerID,
		Title:       screenerID,
		Description: "Mocked screener",
		Total:       len(quotes),
		Quotes:      quotes,
		QueriedAt:   m.nowFunc(),
	}, nil
}

func NewSourceOrMock(config config.Config, httpClient HttpClient, limiter ratelimiting.RequestLimiter, nowFunc func() time.Time) (Source, error) {
	if config.UseMockYahoo() {
		if !config.IsDevelopment() {
			return nil, fmt.Errorf("mocked Yahoo source requested in non-development environment")
		}
		return &mockedSource{nowFunc: nowFunc}, nil
	}
	client, err := NewClient(httpClient, limiter, nowFunc)
	if err != nil {
		return nil, err
	}
	return client, nil
}
