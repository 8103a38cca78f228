package domain

import "time"

type Statistics struct {
	Symbol string

	MarketCap         int64
	EnterpriseValue   int64
	TrailingPE        float64
	ForwardPE         float64
	PriceToBook       float64
	Beta              float64
	TrailingEPS       float64
	ForwardEPS        float64
	DividendYield     float64
	ProfitMargins     float64
	SharesOutstanding int64
	FloatShares       int64
	ShortRatio        float64
	TargetMeanPrice   float64
	Recommendation    string

	// Attached by the orchestrator. nil when no quote could be resolved for the symbol.
	Quote *Quote

	QueriedAt time.Time
}
