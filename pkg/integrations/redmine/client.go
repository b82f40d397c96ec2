// Package redmine fetches issue discussions from Redmine-style trackers
// through their JSON API. Feed entries pointing at /issues/N URLs are
// enriched with the issue description and its journal notes.
package redmine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
	"github.com/william-eth/web-tech-feeder/pkg/integrations"
)

// issueURLPattern matches Redmine-style issue URLs and captures the host
// and issue id.
var issueURLPattern = regexp.MustCompile(`^(https?://[^/]+)/issues/(\d+)$`)

// MatchIssueURL reports whether url is a Redmine-style issue URL, returning
// the tracker base URL and issue id when it is.
func MatchIssueURL(url string) (base string, id int, ok bool) {
	m := issueURLPattern.FindStringSubmatch(strings.TrimSuffix(url, "/"))
	if m == nil {
		return "", 0, false
	}
	id, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], id, true
}

// Client fetches issues from one Redmine instance.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a client for the tracker at baseURL.
func NewClient(run *cache.Run, baseURL string) *Client {
	return &Client{
		Client:  integrations.NewClient(run, "redmine", nil),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// FetchIssueText returns the formatted description and journal discussion
// for an issue: the description first, then each non-empty journal note
// with author and timestamp.
func (c *Client) FetchIssueText(ctx context.Context, id int) (string, error) {
	key := fmt.Sprintf("%s#%d", c.baseURL, id)
	var data issueResponse
	err := c.Cached(ctx, key, &data, func() error {
		url := fmt.Sprintf("%s/issues/%d.json?include=journals", c.baseURL, id)
		return c.Get(ctx, url, &data)
	})
	if err != nil {
		return "", err
	}
	return formatIssue(&data.Issue), nil
}

func formatIssue(issue *issue) string {
	var b strings.Builder
	if issue.Description != "" {
		b.WriteString(issue.Description)
	}

	var notes []string
	for _, j := range issue.Journals {
		if strings.TrimSpace(j.Notes) == "" {
			continue
		}
		notes = append(notes, fmt.Sprintf("%s (%s):\n%s",
			j.User.Name, j.CreatedOn.Format("2006-01-02 15:04"), j.Notes))
	}
	if len(notes) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Journals:\n")
		b.WriteString(strings.Join(notes, "\n\n"))
	}
	return b.String()
}

type issueResponse struct {
	Issue issue `json:"issue"`
}

type issue struct {
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Journals    []journal `json:"journals"`
}

type journal struct {
	Notes string `json:"notes"`
	User  struct {
		Name string `json:"name"`
	} `json:"user"`
	CreatedOn time.Time `json:"created_on"`
}
