package github

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/william-eth/web-tech-feeder/pkg/digest"
)

// DefaultAnonymousRefLimit caps reference resolution when no token is
// configured: every linked reference costs at least one API call, and the
// unauthenticated rate budget is small.
const DefaultAnonymousRefLimit = 3

// Comment sample sizes for linked-reference blocks.
const (
	refCommentsAuth = 5
	refCommentsAnon = 2
)

// Resolver consolidates the resolve-reference → fetch-meta → fetch-compare
// → format path shared by collectors, enrichers, and the release context
// builder. All fetches go through the client's run cache, so the fan-in
// from overlapping call paths never duplicates requests.
type Resolver struct {
	client    *Client
	deepCrawl bool
	refLimit  int
	filters   []*regexp.Regexp
}

// NewResolver creates a resolver. refLimit caps resolved references per
// item (0 = unlimited with a token; token-less runs are always capped at
// [DefaultAnonymousRefLimit]). filters narrow compare file lists.
func NewResolver(client *Client, deepCrawl bool, refLimit int, filters []*regexp.Regexp) *Resolver {
	return &Resolver{client: client, deepCrawl: deepCrawl, refLimit: refLimit, filters: filters}
}

// Client exposes the underlying platform client.
func (r *Resolver) Client() *Client { return r.client }

// DeepCrawl reports whether reference resolution is enabled.
func (r *Resolver) DeepCrawl() bool { return r.deepCrawl }

// limit returns the effective per-item reference cap.
func (r *Resolver) limit() int {
	if r.client.HasToken() {
		return r.refLimit
	}
	if r.refLimit == 0 || r.refLimit > DefaultAnonymousRefLimit {
		return DefaultAnonymousRefLimit
	}
	return r.refLimit
}

func (r *Resolver) commentSample() int {
	if r.client.HasToken() {
		return refCommentsAuth
	}
	return refCommentsAnon
}

// CompareSummary fetches the comparison between two tags and renders a
// compact textual block. Returns "" when prev is empty or the comparison
// does not exist.
func (r *Resolver) CompareSummary(ctx context.Context, owner, repo, prev, cur string) string {
	if prev == "" || cur == "" {
		return ""
	}
	cmp, err := r.client.Compare(ctx, owner, repo, prev, cur)
	if err != nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Compare: %s...%s\n", prev, cur)
	fmt.Fprintf(&b, "Commits: %d\n", cmp.TotalCommits)
	if cmp.HTMLURL != "" {
		fmt.Fprintf(&b, "URL: %s\n", cmp.HTMLURL)
	}
	kept := FilterFiles(cmp.Files, r.filters)
	if len(kept) > 0 {
		b.WriteString("Files:\n")
		for _, f := range kept {
			fmt.Fprintf(&b, "- %s (+%d/-%d)\n", f.Filename, f.Additions, f.Deletions)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// PRContext builds the per-item context string of labeled compare blocks.
//
// When the item itself is a PR, the result is a single "PR Compare" block
// for that PR. Otherwise the item body and comment bodies are scanned for
// references; each reference that resolves to a PR contributes a
// "Linked PR #N" compare block. Deep-crawl off short-circuits both paths.
func (r *Resolver) PRContext(ctx context.Context, owner, repo string, isPull bool, number int, body string, comments []Comment) string {
	if !r.deepCrawl {
		return ""
	}

	if isPull {
		block := r.compareBlock(ctx, owner, repo, number)
		if block == "" {
			return ""
		}
		return "PR Compare:\n" + block
	}

	refText := body
	for _, c := range comments {
		refText += "\n" + c.Body
	}
	refs := ExtractReferences(refText, owner, repo, r.limit())

	var blocks []string
	for _, n := range refs {
		if n == number {
			continue
		}
		issue, err := r.client.GetIssue(ctx, owner, repo, n)
		if err != nil {
			// Dangling references are skipped, not fatal.
			continue
		}
		if !issue.IsPull() {
			continue
		}
		if block := r.compareBlock(ctx, owner, repo, n); block != "" {
			blocks = append(blocks, fmt.Sprintf("Linked PR #%d:\n%s", n, block))
		}
	}
	return strings.Join(blocks, "\n\n")
}

// ReferenceBlocks resolves every reference in text into a labeled block:
// PRs get meta, a compare block, and a comment sample; plain issues get a
// meta line only. Used by the release collector's deep crawl.
func (r *Resolver) ReferenceBlocks(ctx context.Context, owner, repo, text string) string {
	if !r.deepCrawl {
		return ""
	}
	refs := ExtractReferences(text, owner, repo, r.limit())
	if len(refs) == 0 {
		return ""
	}

	var blocks []string
	for _, n := range refs {
		issue, err := r.client.GetIssue(ctx, owner, repo, n)
		if err != nil {
			// Not-found references are memoized as negatives upstream;
			// either way the reference is skipped.
			continue
		}

		if !issue.IsPull() {
			blocks = append(blocks, fmt.Sprintf("[Issue] #%d: %s (%s)", n, issue.Title, issue.State))
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "[PR] #%d: %s (%s)\n", n, issue.Title, issue.State)
		if block := r.compareBlock(ctx, owner, repo, n); block != "" {
			b.WriteString(block)
			b.WriteString("\n")
		}
		if comments, err := r.client.ListIssueComments(ctx, owner, repo, n); err == nil && len(comments) > 0 {
			sample := comments
			if len(sample) > r.commentSample() {
				sample = sample[:r.commentSample()]
			}
			fmt.Fprintf(&b, "Comments (first %d):\n", len(sample))
			for _, c := range sample {
				fmt.Fprintf(&b, "- %s: %s\n", c.User.Login, digest.Truncate(digest.CollapseWhitespace(c.Body), 200))
			}
		}
		blocks = append(blocks, strings.TrimRight(b.String(), "\n"))
	}
	if len(blocks) == 0 {
		return ""
	}
	return "Linked PR/Issue references:\n" + strings.Join(blocks, "\n\n")
}

// compareBlock fetches a PR's metadata and files and renders the formatted
// compare block. Returns "" when the PR cannot be fetched.
func (r *Resolver) compareBlock(ctx context.Context, owner, repo string, number int) string {
	pull, err := r.client.GetPull(ctx, owner, repo, number)
	if err != nil {
		return ""
	}
	files, err := r.client.ListPullFiles(ctx, owner, repo, number)
	if err != nil {
		files = nil
	}
	return FormatCompare(pull, files, "", r.filters)
}
