package domain

import "time"

type NewsArticle struct {
	UUID           string
	Title          string
	Publisher      string
	Link           string
	PublishedAt    time.Time
	RelatedTickers []string
}

type NewsFeed struct {
	Symbol   string
	Articles []NewsArticle

	QueriedAt time.Time
}
