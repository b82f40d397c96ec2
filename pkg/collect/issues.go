package collect

import (
	"context"
	"fmt"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/william-eth/web-tech-feeder/pkg/digest"
	"github.com/william-eth/web-tech-feeder/pkg/integrations/github"
)

// notableScore is the engagement threshold (comments + reactions) at or
// above which an issue makes the digest regardless of labels.
const notableScore = 3

// notableLabelParts mark an issue as notable when any label name contains
// one of them.
var notableLabelParts = []string{
	"security",
	"breaking-change",
	"bug",
	"critical",
	"important",
	"release",
	"announcement",
}

// IssueCollector emits recently-updated notable issues and PRs for each
// watched repo.
type IssueCollector struct {
	resolver *github.Resolver
	repos    []RepoRef
	cutoff   time.Time
	workers  int
	logger   *charmlog.Logger
}

// NewIssueCollector creates an issue collector over the given repos.
func NewIssueCollector(resolver *github.Resolver, repos []RepoRef, cutoff time.Time, workers int, logger *charmlog.Logger) *IssueCollector {
	if logger == nil {
		logger = charmlog.Default()
	}
	return &IssueCollector{resolver: resolver, repos: repos, cutoff: cutoff, workers: workers, logger: logger}
}

// Name implements Collector.
func (c *IssueCollector) Name() string { return "github-issues" }

// Collect implements Collector.
func (c *IssueCollector) Collect(ctx context.Context) ([]digest.Item, error) {
	perRepo := Map(ctx, c.workers, c.repos, func(ctx context.Context, _ int, repo RepoRef) []digest.Item {
		items, err := c.collectRepo(ctx, repo)
		if err != nil {
			c.logger.Warn("issue collection failed", "repo", repo.Slug(), "err", err)
			return nil
		}
		return items
	})
	return Flatten(perRepo), nil
}

func (c *IssueCollector) collectRepo(ctx context.Context, repo RepoRef) ([]digest.Item, error) {
	issues, err := c.resolver.Client().ListIssuesSince(ctx, repo.Owner, repo.Name, c.cutoff)
	if err != nil {
		return nil, err
	}

	var items []digest.Item
	for i := range issues {
		issue := &issues[i]
		if issue.UpdatedAt.Before(c.cutoff) || !isNotable(issue) {
			continue
		}

		comments, err := c.resolver.Client().ListIssueComments(ctx, repo.Owner, repo.Name, issue.Number)
		if err != nil {
			comments = nil
		}
		prContext := c.resolver.PRContext(ctx, repo.Owner, repo.Name, issue.IsPull(), issue.Number, issue.Body, comments)

		items = append(items, digest.Item{
			Title:       fmt.Sprintf("%s %s: %s", issueKind(issue), repo.Display(), issue.Title),
			URL:         issue.HTMLURL,
			PublishedAt: issue.UpdatedAt,
			Body:        BuildIssueBody(issue, comments, prContext),
			Source:      c.Name(),
		})
	}
	return items, nil
}

func issueKind(issue *github.Issue) string {
	if issue.IsPull() {
		return "[PR]"
	}
	return "[Issue]"
}

// isNotable applies the digest notability rule: engagement score at or
// above the threshold, or any label containing a notable token.
func isNotable(issue *github.Issue) bool {
	if issue.EngagementScore() >= notableScore {
		return true
	}
	for _, label := range issue.Labels {
		name := strings.ToLower(label.Name)
		for _, part := range notableLabelParts {
			if strings.Contains(name, part) {
				return true
			}
		}
	}
	return false
}

// BuildIssueBody renders the digest body for an issue or PR: a stats
// header, the description, the comment sequence, and the PR-context block,
// capped at the issue body limit. The feed enricher shares this path for
// platform issue URLs.
func BuildIssueBody(issue *github.Issue, comments []github.Comment, prContext string) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("State: %s | Comments: %d | Reactions: %d | Updated: %s",
		issue.State, issue.Comments, issue.Reactions.TotalCount, issue.UpdatedAt.Format("2006-01-02")))

	if strings.TrimSpace(issue.Body) != "" {
		parts = append(parts, "Description:\n"+strings.TrimSpace(issue.Body))
	}

	if len(comments) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Comments (%d):", len(comments))
		for _, cm := range comments {
			fmt.Fprintf(&b, "\n- %s: %s", cm.User.Login, digest.CollapseWhitespace(cm.Body))
		}
		parts = append(parts, b.String())
	}

	if prContext != "" {
		parts = append(parts, prContext)
	}

	return digest.Truncate(strings.Join(parts, "\n\n"), digest.MaxIssueBody)
}
