package yahoo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/quotelight/internal/domain"
)

// number accepts plain numbers, quoted numbers, {"raw": x, "fmt": "..."} objects and null.
// Values that can't be represented (null, {}, "Infinity") decode as 0.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}

	switch trimmed[0] {
	case '{':
		var wrapped struct {
			Raw json.RawMessage `json:"raw"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return err
		}
		if len(wrapped.Raw) == 0 {
			return nil
		}
		return n.UnmarshalJSON(wrapped.Raw)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil
		}
		*n = number(f)
		return nil
	}

	f, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", string(trimmed), err)
	}
	*n = number(f)
	return nil
}

func (n number) float() float64 {
	return float64(n)
}

func (n number) int() int64 {
	return int64(math.Round(float64(n)))
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *yahooError) asError() error {
	if e == nil {
		return nil
	}
	switch strings.ToLower(e.Code) {
	case "not found":
		return fmt.Errorf("%w: %s", domain.ErrNotFound, e.Description)
	case "unauthorized":
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, e.Description)
	}
	return fmt.Errorf("%w: yahoo error %s: %s", domain.ErrUpstreamFailure, e.Code, e.Description)
}

type quoteJSON struct {
	Symbol           string `json:"symbol"`
	ShortName        string `json:"shortName"`
	LongName         string `json:"longName"`
	Exchange         string `json:"exchange"`
	FullExchangeName string `json:"fullExchangeName"`
	QuoteType        string `json:"quoteType"`
	Currency         string `json:"currency"`
	MarketState      string `json:"marketState"`

	RegularMarketPrice         number `json:"regularMarketPrice"`
	RegularMarketChange        number `json:"regularMarketChange"`
	RegularMarketChangePercent number `json:"regularMarketChangePercent"`
	RegularMarketPreviousClose number `json:"regularMarketPreviousClose"`
	RegularMarketOpen          number `json:"regularMarketOpen"`
	RegularMarketDayHigh       number `json:"regularMarketDayHigh"`
	RegularMarketDayLow        number `json:"regularMarketDayLow"`
	RegularMarketVolume        number `json:"regularMarketVolume"`
	MarketCap                  number `json:"marketCap"`
	FiftyTwoWeekHigh           number `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow            number `json:"fiftyTwoWeekLow"`
}

func (q quoteJSON) toDomain(queriedAt time.Time) domain.Quote {
	exchange := q.FullExchangeName
	if exchange == "" {
		exchange = q.Exchange
	}

	return domain.Quote{
		Symbol:    q.Symbol,
		ShortName: q.ShortName,
		LongName:  q.LongName,
		Exchange:  exchange,
		QuoteType: q.QuoteType,
		Currency:  q.Currency,

		MarketState: q.MarketState,

		Price:         q.RegularMarketPrice.float(),
		Change:        q.RegularMarketChange.float(),
		ChangePercent: q.RegularMarketChangePercent.float(),
		PreviousClose: q.RegularMarketPreviousClose.float(),
		Open:          q.RegularMarketOpen.float(),
		DayHigh:       q.RegularMarketDayHigh.float(),
		DayLow:        q.RegularMarketDayLow.float(),
		Volume:        q.RegularMarketVolume.int(),
		MarketCap:     q.MarketCap.int(),

		FiftyTwoWeekHigh: q.FiftyTwoWeekHigh.float(),
		FiftyTwoWeekLow:  q.FiftyTwoWeekLow.float(),

		QueriedAt: queriedAt,
	}
}

func quotesToDomain(quotes []quoteJSON, queriedAt time.Time) []domain.Quote {
	result := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Symbol == "" {
			continue
		}
		result = append(result, q.toDomain(queriedAt))
	}
	return result
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteJSON `json:"result"`
		Error  *yahooError `json:"error"`
	} `json:"quoteResponse"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string `json:"symbol"`
				Currency           string `json:"currency"`
				RegularMarketPrice number `json:"regularMarketPrice"`
				ChartPreviousClose number `json:"chartPreviousClose"`
				PreviousClose      number `json:"previousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

func valueAt(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

func (r chartResponse) toDomain(key domain.ChartKey, queriedAt time.Time) (domain.Chart, error) {
	if err := r.Chart.Error.asError(); err != nil {
		return domain.Chart{}, err
	}
	if len(r.Chart.Result) == 0 {
		return domain.Chart{}, fmt.Errorf("%w: empty chart result for %s", domain.ErrNotFound, key)
	}
	result := r.Chart.Result[0]

	previousClose := result.Meta.PreviousClose.float()
	if previousClose == 0 {
		previousClose = result.Meta.ChartPreviousClose.float()
	}

	candles := make([]domain.Candle, 0, len(result.Timestamp))
	if len(result.Indicators.Quote) > 0 {
		q := result.Indicators.Quote[0]
		for i, ts := range result.Timestamp {
			// Gaps in trading have null values
			if i >= len(q.Close) || q.Close[i] == nil {
				continue
			}
			candles = append(candles, domain.Candle{
				Time:   time.Unix(ts, 0).UTC(),
				Open:   valueAt(q.Open, i),
				High:   valueAt(q.High, i),
				Low:    valueAt(q.Low, i),
				Close:  *q.Close[i],
				Volume: int64(math.Round(valueAt(q.Volume, i))),
			})
		}
	}

	return domain.Chart{
		Key:                key,
		Currency:           result.Meta.Currency,
		RegularMarketPrice: result.Meta.RegularMarketPrice.float(),
		PreviousClose:      previousClose,
		Candles:            candles,
		QueriedAt:          queriedAt,
	}, nil
}

type contractJSON struct {
	ContractSymbol    string `json:"contractSymbol"`
	Strike            number `json:"strike"`
	LastPrice         number `json:"lastPrice"`
	Bid               number `json:"bid"`
	Ask               number `json:"ask"`
	Change            number `json:"change"`
	Volume            number `json:"volume"`
	OpenInterest      number `json:"openInterest"`
	ImpliedVolatility number `json:"impliedVolatility"`
	InTheMoney        bool   `json:"inTheMoney"`
	Expiration        int64  `json:"expiration"`
}

func contractsToDomain(contracts []contractJSON) []domain.OptionContract {
	result := make([]domain.OptionContract, 0, len(contracts))
	for _, c := range contracts {
		result = append(result, domain.OptionContract{
			ContractSymbol:    c.ContractSymbol,
			Strike:            c.Strike.float(),
			LastPrice:         c.LastPrice.float(),
			Bid:               c.Bid.float(),
			Ask:               c.Ask.float(),
			Change:            c.Change.float(),
			Volume:            c.Volume.int(),
			OpenInterest:      c.OpenInterest.int(),
			ImpliedVolatility: c.ImpliedVolatility.float(),
			InTheMoney:        c.InTheMoney,
			Expiration:        time.Unix(c.Expiration, 0).UTC(),
		})
	}
	return result
}

type optionsResponse struct {
	OptionChain struct {
		Result []struct {
			UnderlyingSymbol string   `json:"underlyingSymbol"`
			ExpirationDates  []int64  `json:"expirationDates"`
			Strikes          []number `json:"strikes"`
			Options          []struct {
				ExpirationDate int64          `json:"expirationDate"`
				Calls          []contractJSON `json:"calls"`
				Puts           []contractJSON `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"optionChain"`
}

func (r optionsResponse) toDomain(key domain.OptionsKey, queriedAt time.Time) (domain.OptionChain, error) {
	if err := r.OptionChain.Error.asError(); err != nil {
		return domain.OptionChain{}, err
	}
	if len(r.OptionChain.Result) == 0 {
		return domain.OptionChain{}, fmt.Errorf("%w: empty options result for %s", domain.ErrNotFound, key)
	}
	result := r.OptionChain.Result[0]

	expirationDates := make([]time.Time, 0, len(result.ExpirationDates))
	for _, expiration := range result.ExpirationDates {
		expirationDates = append(expirationDates, time.Unix(expiration, 0).UTC())
	}

	strikes := make([]float64, 0, len(result.Strikes))
	for _, strike := range result.Strikes {
		strikes = append(strikes, strike.float())
	}

	chain := domain.OptionChain{
		Key:             key,
		ExpirationDates: expirationDates,
		Strikes:         strikes,
		Calls:           []domain.OptionContract{},
		Puts:            []domain.OptionContract{},
		QueriedAt:       queriedAt,
	}
	if len(result.Options) > 0 {
		chain.Calls = contractsToDomain(result.Options[0].Calls)
		chain.Puts = contractsToDomain(result.Options[0].Puts)
	}
	return chain, nil
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				MarketCap     number `json:"marketCap"`
				TrailingPE    number `json:"trailingPE"`
				ForwardPE     number `json:"forwardPE"`
				Beta          number `json:"beta"`
				DividendYield number `json:"dividendYield"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				EnterpriseValue   number `json:"enterpriseValue"`
				PriceToBook       number `json:"priceToBook"`
				TrailingEps       number `json:"trailingEps"`
				ForwardEps        number `json:"forwardEps"`
				ProfitMargins     number `json:"profitMargins"`
				SharesOutstanding number `json:"sharesOutstanding"`
				FloatShares       number `json:"floatShares"`
				ShortRatio        number `json:"shortRatio"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				TargetMeanPrice   number `json:"targetMeanPrice"`
				RecommendationKey string `json:"recommendationKey"`
			} `json:"financialData"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

func (r quoteSummaryResponse) toDomain(symbol string, queriedAt time.Time) (domain.Statistics, error) {
	if err := r.QuoteSummary.Error.asError(); err != nil {
		return domain.Statistics{}, err
	}
	if len(r.QuoteSummary.Result) == 0 {
		return domain.Statistics{}, fmt.Errorf("%w: empty statistics result for %s", domain.ErrNotFound, symbol)
	}
	result := r.QuoteSummary.Result[0]

	return domain.Statistics{
		Symbol:            symbol,
		MarketCap:         result.SummaryDetail.MarketCap.int(),
		EnterpriseValue:   result.DefaultKeyStatistics.EnterpriseValue.int(),
		TrailingPE:        result.SummaryDetail.TrailingPE.float(),
		ForwardPE:         result.SummaryDetail.ForwardPE.float(),
		PriceToBook:       result.DefaultKeyStatistics.PriceToBook.float(),
		Beta:              result.SummaryDetail.Beta.float(),
		TrailingEPS:       result.DefaultKeyStatistics.TrailingEps.float(),
		ForwardEPS:        result.DefaultKeyStatistics.ForwardEps.float(),
		DividendYield:     result.SummaryDetail.DividendYield.float(),
		ProfitMargins:     result.DefaultKeyStatistics.ProfitMargins.float(),
		SharesOutstanding: result.DefaultKeyStatistics.SharesOutstanding.int(),
		FloatShares:       result.DefaultKeyStatistics.FloatShares.int(),
		ShortRatio:        result.DefaultKeyStatistics.ShortRatio.float(),
		TargetMeanPrice:   result.FinancialData.TargetMeanPrice.float(),
		Recommendation:    result.FinancialData.RecommendationKey,
		QueriedAt:         queriedAt,
	}, nil
}

type newsJSON struct {
	UUID                string   `json:"uuid"`
	Title               string   `json:"title"`
	Publisher           string   `json:"publisher"`
	Link                string   `json:"link"`
	ProviderPublishTime int64    `json:"providerPublishTime"`
	RelatedTickers      []string `json:"relatedTickers"`
}

func newsToDomain(news []newsJSON) []domain.NewsArticle {
	articles := make([]domain.NewsArticle, 0, len(news))
	for _, n := range news {
		relatedTickers := n.RelatedTickers
		if relatedTickers == nil {
			relatedTickers = []string{}
		}
		articles = append(articles, domain.NewsArticle{
			UUID:           n.UUID,
			Title:          n.Title,
			Publisher:      n.Publisher,
			Link:           n.Link,
			PublishedAt:    time.Unix(n.ProviderPublishTime, 0).UTC(),
			RelatedTickers: relatedTickers,
		})
	}
	return articles
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		ExchDisp  string `json:"exchDisp"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
	News []newsJSON `json:"news"`
}

func (r searchResponse) toDomain(query string, queriedAt time.Time) domain.SearchResult {
	hits := make([]domain.SearchHit, 0, len(r.Quotes))
	for _, q := range r.Quotes {
		if q.Symbol == "" {
			continue
		}
		exchange := q.ExchDisp
		if exchange == "" {
			exchange = q.Exchange
		}
		hits = append(hits, domain.SearchHit{
			Symbol:    q.Symbol,
			ShortName: q.ShortName,
			LongName:  q.LongName,
			Exchange:  exchange,
			QuoteType: q.QuoteType,
		})
	}

	return domain.SearchResult{
		Query:     query,
		Hits:      hits,
		News:      newsToDomain(r.News),
		QueriedAt: queriedAt,
	}
}

type recommendationsResponse struct {
	Finance struct {
		Result []struct {
			Symbol             string `json:"symbol"`
			RecommendedSymbols []struct {
				Symbol string `json:"symbol"`
				Score  number `json:"score"`
			} `json:"recommendedSymbols"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"finance"`
}

func (r recommendationsResponse) toDomain(symbol string, queriedAt time.Time) (domain.Recommendations, error) {
	if err := r.Finance.Error.asError(); err != nil {
		return domain.Recommendations{}, err
	}
	if len(r.Finance.Result) == 0 {
		return domain.Recommendations{}, fmt.Errorf("%w: empty recommendations result for %s", domain.ErrNotFound, symbol)
	}

	recommended := make([]domain.RecommendedSymbol, 0, len(r.Finance.Result[0].RecommendedSymbols))
	for _, s := range r.Finance.Result[0].RecommendedSymbols {
		recommended = append(recommended, domain.RecommendedSymbol{
			Symbol: s.Symbol,
			Score:  s.Score.float(),
		})
	}

	return domain.Recommendations{
		Symbol:      symbol,
		Recommended: recommended,
		QueriedAt:   queriedAt,
	}, nil
}

type screenerResponse struct {
	Finance struct {
		Result []struct {
			ID          string      `json:"id"`
			Title       string      `json:"title"`
			Description string      `json:"description"`
			Total       int         `json:"total"`
			Quotes      []quoteJSON `json:"quotes"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"finance"`
}

func (r screenerResponse) toDomain(screenerID string, queriedAt time.Time) (domain.ScreenerResult, error) {
	if err := r.Finance.Error.asError(); err != nil {
		return domain.ScreenerResult{}, err
	}
	if len(r.Finance.Result) == 0 {
		return domain.ScreenerResult{}, fmt.Errorf("%w: empty screener result for %s", domain.ErrNotFound, screenerID)
	}
	result := r.Finance.Result[0]

	return domain.ScreenerResult{
		ScreenerID:  screenerID,
		Title:       result.Title,
		Description: result.Description,
		Total:       result.Total,
		Quotes:      quotesToDomain(result.Quotes, queriedAt),
		QueriedAt:   queriedAt,
	}, nil
}
