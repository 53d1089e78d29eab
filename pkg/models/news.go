package models

import "time"

// NewsArticle is one lending/finance news item fetched from an RSS feed.
type NewsArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitempty"`
}
