package domain

import (
	"fmt"
	"slices"
	"time"
)

var ChartRanges = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}
var ChartIntervals = []string{"1m", "2m", "5m", "15m", "30m", "60m", "90m", "1h", "1d", "5d", "1wk", "1mo", "3mo"}

// ChartKey identifies one cached chart: a symbol over a range sampled at an interval
type ChartKey struct {
	Symbol   string
	Range    string
	Interval string
}

func (k ChartKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Symbol, k.Range, k.Interval)
}

func ValidChartRange(r string) bool {
	return slices.Contains(ChartRanges, r)
}

func ValidChartInterval(i string) bool {
	return slices.Contains(ChartIntervals, i)
}

type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

type Chart struct {
	Key ChartKey

	Currency           string
	RegularMarketPrice float64
	PreviousClose      float64

	Candles []Candle

	QueriedAt time.Time
}
