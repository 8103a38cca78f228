package domain

import "time"

type RecommendedSymbol struct {
	Symbol string
	Score  float64
}

type Recommendations struct {
	Symbol      string
	Recommended []RecommendedSymbol

	QueriedAt time.Time
}
