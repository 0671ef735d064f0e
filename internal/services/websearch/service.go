package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/interfaces"
)

const (
	// defaultEndpoint is the DuckDuckGo HTML search endpoint, which needs
	// no API key and returns plain server-rendered markup
	defaultEndpoint = "https://html.duckduckgo.com/html/"
	defaultTimeout  = 10 * time.Second

	searchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Service searches the web for market news headlines
type Service struct {
	endpoint   string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ServiceOption configures the search service
type ServiceOption func(*Service)

// WithEndpoint overrides the search endpoint (used in tests)
func WithEndpoint(endpoint string) ServiceOption {
	return func(s *Service) {
		s.endpoint = endpoint
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ServiceOption {
	return func(s *Service) {
		s.httpClient = client
	}
}

// NewService creates a web search service
func NewService(logger arbor.ILogger, opts ...ServiceOption) *Service {
	s := &Service{
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchNews runs a news search and returns up to limit results
func (s *Service) SearchNews(ctx context.Context, query string, limit int) ([]interfaces.NewsResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		limit = 5
	}

	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	results := make([]interfaces.NewsResult, 0, limit)
	doc.Find(".result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		link := sel.Find(".result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())

		if title == "" || href == "" {
			return true
		}

		results = append(results, interfaces.NewsResult{
			Title:   title,
			Snippet: snippet,
			URL:     resolveRedirect(href),
		})
		return len(results) < limit
	})

	s.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("News search completed")

	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the
// destination URL. Non-redirect links pass through untouched.
func resolveRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
	}
	return href
}
