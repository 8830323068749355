package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRSSSourceSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?>
<rss version="2.0"><channel>
  <title>Example Feed</title>
  <item>
    <title>First Post</title>
    <link>https://example.com/first</link>
    <guid>guid-1</guid>
    <pubDate>Mon, 02 Mar 2026 08:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Second Post</title>
    <link>https://example.com/second</link>
  </item>
</channel></rss>`))
	}))
	defer server.Close()

	items, err := NewRSSSource().Search(context.Background(), server.URL, "")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].GUID != "guid-1" || items[0].URL != "https://example.com/first" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].PublishedAt.IsZero() {
		t.Fatal("missing pubDate must fall back to a non-zero time")
	}
}

func TestNewsSearchSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "golang" {
			t.Errorf("unexpected query: %s", got)
		}
		if got := r.URL.Query().Get("lang"); got != "en" {
			t.Errorf("unexpected lang: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"Go news","url":"https://example.com/go","guid":"g1","published_at":"2026-03-02T08:00:00Z"}
		]}`))
	}))
	defer server.Close()

	items, err := NewNewsSearch(server.URL, "key").Search(context.Background(), "golang", "en")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Go news" {
		t.Fatalf("unexpected items: %+v", items)
	}
}
