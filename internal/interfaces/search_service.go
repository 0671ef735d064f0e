package interfaces

import "context"

// NewsResult is a single web search hit used for the news intent
type NewsResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// SearchService performs best-effort web searches for market news.
// Failures degrade the news section of an answer, never the request.
type SearchService interface {
	SearchNews(ctx context.Context, query string, limit int) ([]NewsResult, error)
}
