package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"AutoPublisher/internal/ports"
)

// NewsSearch implements ports.FeedSource against a news search API returning
// JSON results for a topical query.
type NewsSearch struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ ports.FeedSource = (*NewsSearch)(nil)

// NewNewsSearch wires endpoint and credentials.
func NewNewsSearch(endpoint, apiKey string) *NewsSearch {
	return &NewsSearch{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 20 * time.Second},
	}
}

// Search queries the backend and maps results to feed items.
func (s *NewsSearch) Search(ctx context.Context, query, language string) ([]ports.FeedItem, error) {
	if s.endpoint == "" {
		return nil, fmt.Errorf("news search endpoint not configured")
	}

	endpoint, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	values := endpoint.Query()
	values.Set("q", query)
	if language != "" {
		values.Set("lang", language)
	}
	endpoint.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search backend returned %s", resp.Status)
	}

	var parsed struct {
		Results []struct {
			Title       string    `json:"title"`
			URL         string    `json:"url"`
			GUID        string    `json:"guid"`
			PublishedAt time.Time `json:"published_at"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]ports.FeedItem, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		published := result.PublishedAt
		if published.IsZero() {
			published = time.Now()
		}
		items = append(items, ports.FeedItem{
			Title:       result.Title,
			URL:         result.URL,
			GUID:        result.GUID,
			PublishedAt: published,
		})
	}
	return items, nil
}
