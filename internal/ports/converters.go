package ports

import (
	"time"

	"github.com/Amund211/quotelight/internal/domain"
)

type quoteResponse struct {
	Symbol           string    `json:"symbol"`
	ShortName        string    `json:"shortName,omitempty"`
	LongName         string    `json:"longName,omitempty"`
	Exchange         string    `json:"exchange,omitempty"`
	QuoteType        string    `json:"quoteType,omitempty"`
	Currency         string    `json:"currency,omitempty"`
	MarketState      string    `json:"marketState,omitempty"`
	Price            float64   `json:"price"`
	Change           float64   `json:"change"`
	ChangePercent    float64   `json:"changePercent"`
	PreviousClose    float64   `json:"previousClose"`
	Open             float64   `json:"open"`
	DayHigh          float64   `json:"dayHigh"`
	DayLow           float64   `json:"dayLow"`
	Volume           int64     `json:"volume"`
	MarketCap        int64     `json:"marketCap"`
	FiftyTwoWeekHigh float64   `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  float64   `json:"fiftyTwoWeekLow"`
	QueriedAt        time.Time `json:"queriedAt"`
}

func quoteToResponse(quote domain.Quote) quoteResponse {
	return quoteResponse{
		Symbol:           quote.Symbol,
		ShortName:        quote.ShortName,
		LongName:         quote.LongName,
		Exchange:         quote.Exchange,
		QuoteType:        quote.QuoteType,
		Currency:         quote.Currency,
		MarketState:      quote.MarketState,
		Price:            quote.Price,
		Change:           quote.Change,
		ChangePercent:    quote.ChangePercent,
		PreviousClose:    quote.PreviousClose,
		Open:             quote.Open,
		DayHigh:          quote.DayHigh,
		DayLow:           quote.DayLow,
		Volume:           quote.Volume,
		MarketCap:        quote.MarketCap,
		FiftyTwoWeekHigh: quote.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  quote.FiftyTwoWeekLow,
		QueriedAt:        quote.QueriedAt,
	}
}

func quotesToResponse(quotes []domain.Quote) []quoteResponse {
	result := make([]quoteResponse, 0, len(quotes))
	for _, quote := range quotes {
		result = append(result, quoteToResponse(quote))
	}
	return result
}

type candleResponse struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type chartResponse struct {
	Symbol             string           `json:"symbol"`
	Range              string           `json:"range"`
	Interval           string           `json:"interval"`
	Currency           string           `json:"currency,omitempty"`
	RegularMarketPrice float64          `json:"regularMarketPrice"`
	PreviousClose      float64          `json:"previousClose"`
	Candles            []candleResponse `json:"candles"`
	QueriedAt          time.Time        `json:"queriedAt"`
}

func chartsToResponse(charts []domain.Chart) []chartResponse {
	result := make([]chartResponse, 0, len(charts))
	for _, chart := range charts {
		candles := make([]candleResponse, 0, len(chart.Candles))
		for _, candle := range chart.Candles {
			candles = append(candles, candleResponse{
				Time:   candle.Time.Unix(),
				Open:   candle.Open,
				High:   candle.High,
				Low:    candle.Low,
				Close:  candle.Close,
				Volume: candle.Volume,
			})
		}
		result = append(result, chartResponse{
			Symbol:             chart.Key.Symbol,
			Range:              chart.Key.Range,
			Interval:           chart.Key.Interval,
			Currency:           chart.Currency,
			RegularMarketPrice: chart.RegularMarketPrice,
			PreviousClose:      chart.PreviousClose,
			Candles:            candles,
			QueriedAt:          chart.QueriedAt,
		})
	}
	return result
}

type optionContractResponse struct {
	ContractSymbol    string  `json:"contractSymbol"`
	Strike            float64 `json:"strike"`
	LastPrice         float64 `json:"lastPrice"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	Change            float64 `json:"change"`
	Volume            int64   `json:"volume"`
	OpenInterest      int64   `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
	InTheMoney        bool    `json:"inTheMoney"`
	Expiration        int64   `json:"expiration"`
}

type optionChainResponse struct {
	Symbol          string                   `json:"symbol"`
	Expiry          int64                    `json:"expiry"`
	ExpirationDates []int64                  `json:"expirationDates"`
	Strikes         []float64                `json:"strikes"`
	Calls           []optionContractResponse `json:"calls"`
	Puts            []optionContractResponse `json:"puts"`
	QueriedAt       time.Time                `json:"queriedAt"`
}

func contractsToResponse(contracts []domain.OptionContract) []optionContractResponse {
	result := make([]optionContractResponse, 0, len(contracts))
	for _, c := range contracts {
		result = append(result, optionContractResponse{
			ContractSymbol:    c.ContractSymbol,
			Strike:            c.Strike,
			LastPrice:         c.LastPrice,
			Bid:               c.Bid,
			Ask:               c.Ask,
			Change:            c.Change,
			Volume:            c.Volume,
			OpenInterest:      c.OpenInterest,
			ImpliedVolatility: c.ImpliedVolatility,
			InTheMoney:        c.InTheMoney,
			Expiration:        c.Expiration.Unix(),
		})
	}
	return result
}

func optionChainsToResponse(chains []domain.OptionChain) []optionChainResponse {
	result := make([]optionChainResponse, 0, len(chains))
	for _, chain := range chains {
		expirationDates := make([]int64, 0, len(chain.ExpirationDates))
		for _, expiration := range chain.ExpirationDates {
			expirationDates = append(expirationDates, expiration.Unix())
		}
		strikes := chain.Strikes
		if strikes == nil {
			strikes = []float64{}
		}
		result = append(result, optionChainResponse{
			Symbol:          chain.Key.Symbol,
			Expiry:          chain.Key.Expiry,
			ExpirationDates: expirationDates,
			Strikes:         strikes,
			Calls:           contractsToResponse(chain.Calls),
			Puts:            contractsToResponse(chain.Puts),
			QueriedAt:       chain.QueriedAt,
		})
	}
	return result
}

type statisticsResponse struct {
	Symbol            string         `json:"symbol"`
	MarketCap         int64          `json:"marketCap"`
	EnterpriseValue   int64          `json:"enterpriseValue"`
	TrailingPE        float64        `json:"trailingPE"`
	ForwardPE         float64        `json:"forwardPE"`
	PriceToBook       float64        `json:"priceToBook"`
	Beta              float64        `json:"beta"`
	TrailingEPS       float64        `json:"trailingEPS"`
	ForwardEPS        float64        `json:"forwardEPS"`
	DividendYield     float64        `json:"dividendYield"`
	ProfitMargins     float64        `json:"profitMargins"`
	SharesOutstanding int64          `json:"sharesOutstanding"`
	FloatShares       int64          `json:"floatShares"`
	ShortRatio        float64        `json:"shortRatio"`
	TargetMeanPrice   float64        `json:"targetMeanPrice"`
	Recommendation    string         `json:"recommendation,omitempty"`
	Quote             *quoteResponse `json:"quote"`
	QueriedAt         time.Time      `json:"queriedAt"`
}

func statisticsToResponse(statistics []domain.Statistics) []statisticsResponse {
	result := make([]statisticsResponse, 0, len(statistics))
	for _, s := range statistics {
		var quote *quoteResponse
		if s.Quote != nil {
			q := quoteToResponse(*s.Quote)
			quote = &q
		}
		result = append(result, statisticsResponse{
			Symbol:            s.Symbol,
			MarketCap:         s.MarketCap,
			EnterpriseValue:   s.EnterpriseValue,
			TrailingPE:        s.TrailingPE,
			ForwardPE:         s.ForwardPE,
			PriceToBook:       s.PriceToBook,
			Beta:              s.Beta,
			TrailingEPS:       s.TrailingEPS,
			ForwardEPS:        s.ForwardEPS,
			DividendYield:     s.DividendYield,
			ProfitMargins:     s.ProfitMargins,
			SharesOutstanding: s.SharesOutstanding,
			FloatShares:       s.FloatShares,
			ShortRatio:        s.ShortRatio,
			TargetMeanPrice:   s.TargetMeanPrice,
			Recommendation:    s.Recommendation,
			Quote:             quote,
			QueriedAt:         s.QueriedAt,
		})
	}
	return result
}

type newsArticleResponse struct {
	UUID           string   `json:"uuid"`
	Title          string   `json:"title"`
	Publisher      string   `json:"publisher"`
	Link           string   `json:"link"`
	PublishedAt    int64    `json:"publishedAt"`
	RelatedTickers []string `json:"relatedTickers"`
}

func articlesToResponse(articles []domain.NewsArticle) []newsArticleResponse {
	result := make([]newsArticleResponse, 0, len(articles))
	for _, article := range articles {
		relatedTickers := article.RelatedTickers
		if relatedTickers == nil {
			relatedTickers = []string{}
		}
		result = append(result, newsArticleResponse{
			UUID:           article.UUID,
			Title:          article.Title,
			Publisher:      article.Publisher,
			Link:           article.Link,
			PublishedAt:    article.PublishedAt.Unix(),
			RelatedTickers: relatedTickers,
		})
	}
	return result
}

type newsFeedResponse struct {
	Symbol    string                `json:"symbol"`
	Articles  []newsArticleResponse `json:"articles"`
	QueriedAt time.Time             `json:"queriedAt"`
}

func newsFeedsToResponse(feeds []domain.NewsFeed) []newsFeedResponse {
	result := make([]newsFeedResponse, 0, len(feeds))
	for _, feed := range feeds {
		result = append(result, newsFeedResponse{
			Symbol:    feed.Symbol,
			Articles:  articlesToResponse(feed.Articles),
			QueriedAt: feed.QueriedAt,
		})
	}
	return result
}

type searchHitResponse struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortName,omitempty"`
	LongName  string `json:"longName,omitempty"`
	Exchange  string `json:"exchange,omitempty"`
	QuoteType string `json:"quoteType,omitempty"`
}

type searchResultResponse struct {
	Query     string                `json:"query"`
	Hits      []searchHitResponse   `json:"hits"`
	News      []newsArticleResponse `json:"news"`
	QueriedAt time.Time             `json:"queriedAt"`
}

func searchResultToResponse(result domain.SearchResult) searchResultResponse {
	hits := make([]searchHitResponse, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, searchHitResponse(hit))
	}
	return searchResultResponse{
		Query:     result.Query,
		Hits:      hits,
		News:      articlesToResponse(result.News),
		QueriedAt: result.QueriedAt,
	}
}

type recommendedSymbolResponse struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

type recommendationsResponse struct {
	Symbol      string                      `json:"symbol"`
	Recommended []recommendedSymbolResponse `json:"recommended"`
	QueriedAt   time.Time                   `json:"queriedAt"`
}

func recommendationsToResponse(recommendations domain.Recommendations) recommendationsResponse {
	recommended := make([]recommendedSymbolResponse, 0, len(recommendations.Recommended))
	for _, r := range recommendations.Recommended {
		recommended = append(recommended, recommendedSymbolResponse(r))
	}
	return recommendationsResponse{
		Symbol:      recommendations.Symbol,
		Recommended: recommended,
		QueriedAt:   recommendations.QueriedAt,
	}
}

type screenerResultResponse struct {
	ScreenerID  string          `json:"screenerId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Total       int             `json:"total"`
	Quotes      []quoteResponse `json:"quotes"`
	QueriedAt   time.Time       `json:"queriedAt"`
}

func screenerResultToResponse(result domain.ScreenerResult) screenerResultResponse {
	return screenerResultResponse{
		ScreenerID:  result.ScreenerID,
		Title:       result.Title,
		Description: result.Description,
		Total:       result.Total,
		Quotes:      quotesToResponse(result.Quotes),
		QueriedAt:   result.QueriedAt,
	}
}
