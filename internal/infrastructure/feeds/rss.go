package feeds

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"AutoPublisher/internal/ports"
)

// RSSSource implements ports.FeedSource over a plain RSS/Atom feed. The
// search query is the feed URL; the language parameter is ignored since the
// feed itself fixes the language.
type RSSSource struct {
	parser *gofeed.Parser
}

var _ ports.FeedSource = (*RSSSource)(nil)

// NewRSSSource builds a source with a default gofeed parser.
func NewRSSSource() *RSSSource {
	return &RSSSource{parser: gofeed.NewParser()}
}

// Search fetches and parses the feed at the query URL.
func (s *RSSSource) Search(ctx context.Context, query, _ string) ([]ports.FeedItem, error) {
	parsed, err := s.parser.ParseURLWithContext(query, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", query, err)
	}

	items := make([]ports.FeedItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		items = append(items, ports.FeedItem{
			Title:       item.Title,
			URL:         item.Link,
			GUID:        item.GUID,
			PublishedAt: itemTime(item),
		})
	}
	return items, nil
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Now()
}
