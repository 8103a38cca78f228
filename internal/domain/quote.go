package domain

import "time"

type Quote struct {
	Symbol    string
	ShortName string
	LongName  string
	Exchange  string
	QuoteType string
	Currency  string

	MarketState string

	Price         float64
	Change        float64
	ChangePercent float64
	PreviousClose float64
	Open          float64
	DayHigh       float64
	DayLow        float64
	Volume        int64
	MarketCap     int64

	FiftyTwoWeekHigh float64
	FiftyTwoWeekLow  float64

	QueriedAt time.Time
}
