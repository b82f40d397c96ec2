package collect

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	charmlog "github.com/charmbracelet/log"

	"github.com/william-eth/web-tech-feeder/pkg/digest"
	"github.com/william-eth/web-tech-feeder/pkg/integrations"
	"github.com/william-eth/web-tech-feeder/pkg/integrations/github"
)

// defaultReleaseNotesFiles are the changelog paths probed when a repo does
// not configure its own.
var defaultReleaseNotesFiles = []string{
	"CHANGELOG.md",
	"CHANGES.md",
	"Changes.md",
	"HISTORY.md",
	"RELEASE_NOTES.md",
}

// ReleaseCollector emits at most one item per watched repo: the most
// recent release (or tag) within the cutoff, ranked by semantic version.
type ReleaseCollector struct {
	resolver *github.Resolver
	repos    []RepoRef
	cutoff   time.Time
	workers  int
	logger   *charmlog.Logger
}

// NewReleaseCollector creates a release collector over the given repos.
// workers bounds the repo-level pool.
func NewReleaseCollector(resolver *github.Resolver, repos []RepoRef, cutoff time.Time, workers int, logger *charmlog.Logger) *ReleaseCollector {
	if logger == nil {
		logger = charmlog.Default()
	}
	return &ReleaseCollector{resolver: resolver, repos: repos, cutoff: cutoff, workers: workers, logger: logger}
}

// Name implements Collector.
func (c *ReleaseCollector) Name() string { return "github-releases" }

// Collect implements Collector.
func (c *ReleaseCollector) Collect(ctx context.Context) ([]digest.Item, error) {
	perRepo := Map(ctx, c.workers, c.repos, func(ctx context.Context, _ int, repo RepoRef) []digest.Item {
		item, err := c.collectRepo(ctx, repo)
		if err != nil {
			c.logger.Warn("release collection failed", "repo", repo.Slug(), "err", err)
			return nil
		}
		if item == nil {
			return nil
		}
		return []digest.Item{*item}
	})
	return Flatten(perRepo), nil
}

// candidate is one release or tag competing for the repo's digest slot.
type candidate struct {
	tag         string
	title       string
	body        string
	url         string
	publishedAt time.Time
	version     *semver.Version // nil when the tag does not parse
}

func (c *ReleaseCollector) collectRepo(ctx context.Context, repo RepoRef) (*digest.Item, error) {
	candidates, err := c.gatherCandidates(ctx, repo)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		// Empty releases and tags is a quiet repo, not an error.
		return nil, nil
	}

	current, previous := selectReleasePair(candidates, c.cutoff)
	if current == nil {
		return nil, nil
	}

	body := c.buildReleaseContext(ctx, repo, current, previous)
	return &digest.Item{
		Title:       fmt.Sprintf("%s %s released", repo.Display(), current.tag),
		URL:         current.url,
		PublishedAt: current.publishedAt,
		Body:        body,
		Source:      c.Name(),
	}, nil
}

func (c *ReleaseCollector) gatherCandidates(ctx context.Context, repo RepoRef) ([]candidate, error) {
	client := c.resolver.Client()

	var candidates []candidate
	if repo.Strategy != StrategyTagsOnly {
		releases, err := client.ListReleases(ctx, repo.Owner, repo.Name)
		if err != nil && !errors.Is(err, integrations.ErrNotFound) {
			return nil, err
		}
		for _, r := range releases {
			if r.Draft || r.TagName == "" {
				continue
			}
			candidates = append(candidates, candidate{
				tag:         r.TagName,
				title:       r.Name,
				body:        r.Body,
				url:         r.HTMLURL,
				publishedAt: r.PublishedAt,
				version:     parseVersion(r.TagName),
			})
		}
		if repo.Strategy == StrategyReleasesOnly {
			return candidates, nil
		}
	}

	if repo.Strategy == StrategyTagsOnly || len(candidates) == 0 {
		tags, err := client.ListTags(ctx, repo.Owner, repo.Name)
		if err != nil && !errors.Is(err, integrations.ErrNotFound) {
			return nil, err
		}
		for _, t := range tags {
			date, err := client.CommitDate(ctx, repo.Owner, repo.Name, t.Commit.SHA)
			if err != nil {
				continue
			}
			candidates = append(candidates, candidate{
				tag:         t.Name,
				url:         client.TagURL(repo.Owner, repo.Name, t.Name),
				publishedAt: date,
				version:     parseVersion(t.Name),
			})
		}
	}
	return candidates, nil
}

// selectReleasePair orders candidates by (version, publication time)
// descending and returns the newest in-window candidate as current with the
// next-lower entry as previous. previous is taken from the full ordering:
// the prior release usually predates the window.
func selectReleasePair(candidates []candidate, cutoff time.Time) (current, previous *candidate) {
	sorted := make([]candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return versionLess(sorted[j], sorted[i])
	})

	idx := -1
	for i := range sorted {
		if !sorted[i].publishedAt.Before(cutoff) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil
	}
	current = &sorted[idx]
	if idx+1 < len(sorted) {
		previous = &sorted[idx+1]
	}
	return current, previous
}

// versionLess orders a before b: invalid versions sort below valid ones,
// valid versions compare semantically, and publication time breaks ties.
func versionLess(a, b candidate) bool {
	switch {
	case a.version == nil && b.version != nil:
		return true
	case a.version != nil && b.version == nil:
		return false
	case a.version != nil && b.version != nil:
		if cmp := a.version.Compare(b.version); cmp != 0 {
			return cmp < 0
		}
	default:
		if a.tag != b.tag {
			return a.tag < b.tag
		}
	}
	return a.publishedAt.Before(b.publishedAt)
}

// parseVersion parses a tag as semver, tolerating a leading "v".
// Returns nil for tags that are not version-shaped.
func parseVersion(tag string) *semver.Version {
	v, err := semver.NewVersion(strings.TrimPrefix(tag, "v"))
	if err != nil {
		return nil
	}
	return v
}

// buildReleaseContext assembles the item body: the release's own notes,
// the compare summary against the previous tag, deep-crawled linked
// references, and a changelog-file excerpt, capped at the release body
// limit.
func (c *ReleaseCollector) buildReleaseContext(ctx context.Context, repo RepoRef, current, previous *candidate) string {
	var parts []string
	if strings.TrimSpace(current.body) != "" {
		parts = append(parts, strings.TrimSpace(current.body))
	}

	prevTag := ""
	if previous != nil {
		prevTag = previous.tag
	}
	if summary := c.resolver.CompareSummary(ctx, repo.Owner, repo.Name, prevTag, current.tag); summary != "" {
		parts = append(parts, summary)
	}

	if refText := strings.Join(parts, "\n"); refText != "" {
		if blocks := c.resolver.ReferenceBlocks(ctx, repo.Owner, repo.Name, refText); blocks != "" {
			parts = append(parts, blocks)
		}
	}

	if excerpt, path := c.changelogExcerpt(ctx, repo, current.tag); excerpt != "" {
		parts = append(parts, fmt.Sprintf("Changelog (%s):\n%s", path, excerpt))
	}

	return digest.Truncate(strings.Join(parts, "\n\n"), digest.MaxReleaseBody)
}

// changelogExcerpt probes the repo's changelog paths and returns the first
// section matching the tag, capped at the changelog limit.
func (c *ReleaseCollector) changelogExcerpt(ctx context.Context, repo RepoRef, tag string) (excerpt, path string) {
	paths := repo.ReleaseNotesFiles
	if len(paths) == 0 {
		paths = defaultReleaseNotesFiles
	}
	client := c.resolver.Client()
	for _, p := range paths {
		content, err := client.FileContent(ctx, repo.Owner, repo.Name, p)
		if err != nil {
			continue
		}
		if section := ExtractChangelogSection(content, tag); section != "" {
			return digest.Truncate(section, digest.MaxChangelogPart), p
		}
	}
	return "", ""
}
