package domain

import "time"

type SearchHit struct {
	Symbol    string
	ShortName string
	LongName  string
	Exchange  string
	QuoteType string
}

type SearchResult struct {
	Query string
	Hits  []SearchHit
	News  []NewsArticle

	QueriedAt time.Time
}
