package domain

import "time"

type ScreenerResult struct {
	ScreenerID  string
	Title       string
	Description string
	Total       int
	Quotes      []Quote

	QueriedAt time.Time
}
