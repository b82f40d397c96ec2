package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Endpoint-specific page sizes. The anonymous sizes keep token-less runs
// inside the unauthenticated rate budget.
const (
	releasePageAuth = 30
	releasePageAnon = 10
	issuePageAnon   = 30
	commentPageAnon = 10
	filePageAnon    = 100

	// tagListCap bounds the tag fallback: each tag costs one commit-date
	// lookup, so the list is never crawled in full.
	tagListCap = 20
)

// ListReleases returns the repo's recent releases, newest first as served
// by the API. Page size depends on token presence.
func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]Release, error) {
	key := owner + "/" + repo
	var releases []Release
	err := c.run.Fetch(ctx, "releases", key, &releases, func() error {
		per := releasePageAnon
		if c.HasToken() {
			per = releasePageAuth
		}
		var err error
		releases, err = singlePage[Release](ctx, c, fmt.Sprintf("/repos/%s/%s/releases", owner, repo), nil, per)
		return err
	})
	return releases, err
}

// ListTags returns the repo's tags, capped at tagListCap.
func (c *Client) ListTags(ctx context.Context, owner, repo string) ([]Tag, error) {
	key := owner + "/" + repo
	var tags []Tag
	err := c.run.Fetch(ctx, "tags", key, &tags, func() error {
		var err error
		tags, err = singlePage[Tag](ctx, c, fmt.Sprintf("/repos/%s/%s/tags", owner, repo), nil, tagListCap)
		return err
	})
	return tags, err
}

// CommitDate returns the committer date for a commit SHA. The lookup is
// cached: tag-ranking touches the same commits repeatedly.
func (c *Client) CommitDate(ctx context.Context, owner, repo, sha string) (time.Time, error) {
	key := fmt.Sprintf("%s/%s@%s", owner, repo, sha)
	var commit Commit
	err := c.run.Fetch(ctx, "commit", key, &commit, func() error {
		return c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/commits/%s", owner, repo, sha), nil, &commit)
	})
	if err != nil {
		return time.Time{}, err
	}
	return commit.Commit.Committer.Date, nil
}

// Compare returns the comparison between two refs (base...head).
func (c *Client) Compare(ctx context.Context, owner, repo, base, head string) (*Comparison, error) {
	key := fmt.Sprintf("%s/%s:%s...%s", owner, repo, base, head)
	var cmp Comparison
	err := c.run.Fetch(ctx, "compare", key, &cmp, func() error {
		path := fmt.Sprintf("/repos/%s/%s/compare/%s...%s",
			owner, repo, url.PathEscape(base), url.PathEscape(head))
		return c.getJSON(ctx, path, nil, &cmp)
	})
	if err != nil {
		return nil, err
	}
	return &cmp, nil
}

// ListIssuesSince returns issues and PRs updated at or after since, sorted
// by update time descending. Paginates with a token, fetches one page
// without.
func (c *Client) ListIssuesSince(ctx context.Context, owner, repo string, since time.Time) ([]Issue, error) {
	key := fmt.Sprintf("%s/%s?since=%s", owner, repo, since.UTC().Format(time.RFC3339))
	var issues []Issue
	err := c.run.Fetch(ctx, "issues", key, &issues, func() error {
		query := url.Values{
			"since":     {since.UTC().Format(time.RFC3339)},
			"state":     {"all"},
			"sort":      {"updated"},
			"direction": {"desc"},
		}
		path := fmt.Sprintf("/repos/%s/%s/issues", owner, repo)
		var err error
		if c.HasToken() {
			issues, err = paginated[Issue](ctx, c, path, query)
		} else {
			issues, err = singlePage[Issue](ctx, c, path, query, issuePageAnon)
		}
		return err
	})
	return issues, err
}

// GetIssue returns a single issue or PR record by number.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	key := fmt.Sprintf("%s/%s#%d", owner, repo, number)
	var issue Issue
	err := c.run.Fetch(ctx, "issue", key, &issue, func() error {
		return c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number), nil, &issue)
	})
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListIssueComments returns the comments on an issue or PR. With a token
// the full sequence is paginated; without, one capped page is fetched.
func (c *Client) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]Comment, error) {
	key := fmt.Sprintf("%s/%s#%d", owner, repo, number)
	var comments []Comment
	err := c.run.Fetch(ctx, "comments", key, &comments, func() error {
		path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number)
		var err error
		if c.HasToken() {
			comments, err = paginated[Comment](ctx, c, path, nil)
		} else {
			comments, err = singlePage[Comment](ctx, c, path, nil, commentPageAnon)
		}
		return err
	})
	return comments, err
}

// GetPull returns the full PR payload by number.
func (c *Client) GetPull(ctx context.Context, owner, repo string, number int) (*Pull, error) {
	key := fmt.Sprintf("%s/%s#%d", owner, repo, number)
	var pull Pull
	err := c.run.Fetch(ctx, "pull", key, &pull, func() error {
		return c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number), nil, &pull)
	})
	if err != nil {
		return nil, err
	}
	return &pull, nil
}

// ListPullFiles returns the changed files of a PR.
func (c *Client) ListPullFiles(ctx context.Context, owner, repo string, number int) ([]PullFile, error) {
	key := fmt.Sprintf("%s/%s#%d", owner, repo, number)
	var files []PullFile
	err := c.run.Fetch(ctx, "pull_files", key, &files, func() error {
		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files", owner, repo, number)
		var err error
		if c.HasToken() {
			files, err = paginated[PullFile](ctx, c, path, nil)
		} else {
			files, err = singlePage[PullFile](ctx, c, path, nil, filePageAnon)
		}
		return err
	})
	return files, err
}

// FileContent fetches a repository text file and decodes the base64 payload.
func (c *Client) FileContent(ctx context.Context, owner, repo, path string) (string, error) {
	key := fmt.Sprintf("%s/%s:%s", owner, repo, path)
	var contents Contents
	err := c.run.Fetch(ctx, "contents", key, &contents, func() error {
		return c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, escapeFilePath(path)), nil, &contents)
	})
	if err != nil {
		return "", err
	}
	if contents.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(contents.Content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("decoding %s: %w", path, err)
		}
		return string(decoded), nil
	}
	return contents.Content, nil
}

// escapeFilePath escapes each path segment while keeping the separators.
func escapeFilePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// ListAdvisories returns advisories for an ecosystem published at or after
// since, newest first.
func (c *Client) ListAdvisories(ctx context.Context, ecosystem string, since time.Time) ([]Advisory, error) {
	key := fmt.Sprintf("%s?since=%s", ecosystem, since.UTC().Format("2006-01-02"))
	var advisories []Advisory
	err := c.run.Fetch(ctx, "advisories", key, &advisories, func() error {
		query := url.Values{
			"ecosystem": {ecosystem},
			"published": {">=" + since.UTC().Format("2006-01-02")},
			"sort":      {"published"},
			"direction": {"desc"},
		}
		var err error
		advisories, err = singlePage[Advisory](ctx, c, "/advisories", query, 50)
		return err
	})
	return advisories, err
}

// TagURL forms the browse URL for a tag.
func (c *Client) TagURL(owner, repo, tag string) string {
	return fmt.Sprintf("https://%s/%s/%s/tree/%s", c.webHost, owner, repo, tag)
}

// CompareWebURL forms the browse URL for a two-ref comparison.
func (c *Client) CompareWebURL(owner, repo, base, head string) string {
	return fmt.Sprintf("https://%s/%s/%s/compare/%s...%s", c.webHost, owner, repo, base, head)
}
