package collect

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strconv"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
	"github.com/william-eth/web-tech-feeder/pkg/digest"
	"github.com/william-eth/web-tech-feeder/pkg/integrations/github"
	"github.com/william-eth/web-tech-feeder/pkg/integrations/redmine"
)

// maxFeedRedirects caps redirect chains when fetching feeds.
const maxFeedRedirects = 5

// platformIssueURL matches hosting-platform issue/PR links inside feed
// entries, capturing owner, repo, kind, and number.
var platformIssueURL = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+)/(issues|pull)/(\d+)`)

// FeedCollector parses RSS/Atom feeds and enriches entries that point to
// known trackers: Redmine-style issues get their description and journals,
// platform issues go through the shared issue enrichment path, and
// everything else falls back to tag-stripped summaries.
type FeedCollector struct {
	feeds    []FeedRef
	cutoff   time.Time
	resolver *github.Resolver
	run      *cache.Run
	workers  int
	logger   *charmlog.Logger

	httpClient *http.Client
	sanitizer  *bluemonday.Policy
}

// NewFeedCollector creates a feed collector over the given feeds.
func NewFeedCollector(feeds []FeedRef, cutoff time.Time, resolver *github.Resolver, run *cache.Run, workers int, logger *charmlog.Logger) *FeedCollector {
	if logger == nil {
		logger = charmlog.Default()
	}
	return &FeedCollector{
		feeds:    feeds,
		cutoff:   cutoff,
		resolver: resolver,
		run:      run,
		workers:  workers,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxFeedRedirects {
					return fmt.Errorf("stopped after %d redirects", maxFeedRedirects)
				}
				return nil
			},
		},
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Name implements Collector.
func (c *FeedCollector) Name() string { return "feed" }

// Collect implements Collector.
func (c *FeedCollector) Collect(ctx context.Context) ([]digest.Item, error) {
	perFeed := Map(ctx, c.workers, c.feeds, func(ctx context.Context, _ int, feed FeedRef) []digest.Item {
		items, err := c.collectFeed(ctx, feed)
		if err != nil {
			c.logger.Warn("feed collection failed", "feed", feed.URL, "err", err)
			return nil
		}
		return items
	})
	return Flatten(perFeed), nil
}

func (c *FeedCollector) collectFeed(ctx context.Context, ref FeedRef) ([]digest.Item, error) {
	parser := gofeed.NewParser()
	parser.Client = c.httpClient

	feed, err := parser.ParseURLWithContext(ref.URL, ctx)
	if err != nil {
		return nil, err
	}

	source := "feed:" + ref.DisplayName
	var items []digest.Item
	for _, entry := range feed.Items {
		published := entryTime(entry)
		if published == nil || published.Before(c.cutoff) {
			continue
		}
		if entry.Title == "" || entry.Link == "" {
			continue
		}
		items = append(items, digest.Item{
			Title:       entry.Title,
			URL:         entry.Link,
			PublishedAt: *published,
			Body:        digest.Truncate(c.enrich(ctx, entry), digest.MaxIssueBody),
			Source:      source,
		})
	}
	return items, nil
}

func entryTime(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed
	}
	return entry.UpdatedParsed
}

// enrich upgrades an entry's plain summary using the tracker its URL points
// at, falling back to tag-stripped feed content.
func (c *FeedCollector) enrich(ctx context.Context, entry *gofeed.Item) string {
	if base, id, ok := redmine.MatchIssueURL(entry.Link); ok {
		client := redmine.NewClient(c.run, base)
		if text, err := client.FetchIssueText(ctx, id); err == nil && text != "" {
			return text
		}
	}

	if m := platformIssueURL.FindStringSubmatch(entry.Link); m != nil {
		if body := c.enrichPlatform(ctx, m[1], m[2], m[4]); body != "" {
			return body
		}
	}

	return c.stripHTML(entry)
}

// enrichPlatform runs the same path the issue collector uses: issue meta,
// comments, and the PR-context block.
func (c *FeedCollector) enrichPlatform(ctx context.Context, owner, repo, number string) string {
	n, err := strconv.Atoi(number)
	if err != nil {
		return ""
	}
	client := c.resolver.Client()
	issue, err := client.GetIssue(ctx, owner, repo, n)
	if err != nil {
		return ""
	}
	comments, err := client.ListIssueComments(ctx, owner, repo, n)
	if err != nil {
		comments = nil
	}
	prContext := c.resolver.PRContext(ctx, owner, repo, issue.IsPull(), n, issue.Body, comments)
	return BuildIssueBody(issue, comments, prContext)
}

func (c *FeedCollector) stripHTML(entry *gofeed.Item) string {
	raw := entry.Content
	if raw == "" {
		raw = entry.Description
	}
	return digest.CollapseWhitespace(html.UnescapeString(c.sanitizer.Sanitize(raw)))
}
