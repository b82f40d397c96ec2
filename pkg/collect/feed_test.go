package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
)

const rssTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Release Radar</title>
  <link>https://example.com</link>
  %s
</channel>
</rss>`

func rssItem(title, link, pubDate, description string) string {
	return fmt.Sprintf(`<item>
  <title>%s</title>
  <link>%s</link>
  <pubDate>%s</pubDate>
  <description><![CDATA[%s]]></description>
</item>`, title, link, pubDate, description)
}

func serveFeed(t *testing.T, body string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func newTestFeedCollector(t *testing.T, feeds []FeedRef, cutoff time.Time) *FeedCollector {
	t.Helper()
	run := cache.NewRun(cache.NewMemory(), nil)
	t.Cleanup(func() { run.Close() })
	resolver := newFakePlatform().resolver(t, "token", false)
	return NewFeedCollector(feeds, cutoff, resolver, run, 1, nil)
}

func TestFeedCollectorStripsHTML(t *testing.T) {
	feed := fmt.Sprintf(rssTemplate, rssItem(
		"Go 1.26 is released",
		"https://example.com/blog/go1.26",
		"Sun, 15 Feb 2026 10:00:00 GMT",
		"<p>The latest <b>Go release</b> brings&nbsp;improvements.</p>",
	))
	url := serveFeed(t, feed)

	cutoff := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	c := newTestFeedCollector(t, []FeedRef{{URL: url, DisplayName: "go-blog"}}, cutoff)

	items, err := c.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}

	item := items[0]
	if item.Source != "feed:go-blog" {
		t.Errorf("Source = %q", item.Source)
	}
	if strings.Contains(item.Body, "<") {
		t.Errorf("body still contains markup: %q", item.Body)
	}
	if !strings.Contains(item.Body, "The latest Go release brings improvements.") {
		t.Errorf("body = %q", item.Body)
	}
}

func TestFeedCollectorFiltersByCutoff(t *testing.T) {
	feed := fmt.Sprintf(rssTemplate,
		rssItem("fresh", "https://example.com/fresh", "Sun, 15 Feb 2026 10:00:00 GMT", "x")+
			rssItem("stale", "https://example.com/stale", "Thu, 01 Jan 2026 10:00:00 GMT", "y"))
	url := serveFeed(t, feed)

	cutoff := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	c := newTestFeedCollector(t, []FeedRef{{URL: url, DisplayName: "radar"}}, cutoff)

	items, err := c.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Title != "fresh" {
		t.Fatalf("items = %v, want only the fresh entry", items)
	}
}

func TestFeedCollectorRedmineEnrichment(t *testing.T) {
	tracker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/issues/20123.json" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"issue": {"description": "Ractor deadlock details", "journals": []}}`)
	}))
	t.Cleanup(tracker.Close)

	feed := fmt.Sprintf(rssTemplate, rssItem(
		"Ractor deadlock",
		tracker.URL+"/issues/20123",
		"Sun, 15 Feb 2026 10:00:00 GMT",
		"short summary",
	))
	url := serveFeed(t, feed)

	cutoff := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	c := newTestFeedCollector(t, []FeedRef{{URL: url, DisplayName: "ruby"}}, cutoff)

	items, err := c.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if !strings.Contains(items[0].Body, "Ractor deadlock details") {
		t.Errorf("body not enriched from tracker API: %q", items[0].Body)
	}
}

func TestFeedCollectorFollowsRedirects(t *testing.T) {
	feed := fmt.Sprintf(rssTemplate, rssItem(
		"post", "https://example.com/post", "Sun, 15 Feb 2026 10:00:00 GMT", "body"))

	final := serveFeed(t, feed)
	hops := 0
	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		if hops < 3 {
			http.Redirect(w, r, r.URL.String(), http.StatusFound)
			return
		}
		http.Redirect(w, r, final, http.StatusFound)
	}))
	t.Cleanup(redirector.Close)

	cutoff := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	c := newTestFeedCollector(t, []FeedRef{{URL: redirector.URL, DisplayName: "hop"}}, cutoff)

	items, err := c.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 after redirects", len(items))
	}
}

func TestFeedCollectorBadFeedIsContained(t *testing.T) {
	url := serveFeed(t, "this is not xml")
	cutoff := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	c := newTestFeedCollector(t, []FeedRef{{URL: url, DisplayName: "junk"}}, cutoff)

	items, err := c.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}
