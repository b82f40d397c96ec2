// Package collect implements the digest collection engine: one collector
// per source kind, the bounded worker pools that run them, release
// deduplication, and the category orchestrator that ties it together.
package collect

import (
	"context"
	"fmt"

	"github.com/william-eth/web-tech-feeder/pkg/digest"
	"github.com/william-eth/web-tech-feeder/pkg/errors"
)

// Collector gathers items from one source kind. Implementations are
// Release, Issue, Advisory, Feed, and Registry collectors.
type Collector interface {
	// Name identifies the source in logs and item labels.
	Name() string

	// Collect fetches and returns the source's items. Implementations
	// must not emit items published before the configured cutoff.
	Collect(ctx context.Context) ([]digest.Item, error)
}

// ReleaseStrategy selects how a repo's releases are discovered.
type ReleaseStrategy string

const (
	// StrategyAuto uses releases and falls back to tags when the repo
	// publishes none.
	StrategyAuto ReleaseStrategy = "auto"

	// StrategyReleasesOnly never falls back to tags.
	StrategyReleasesOnly ReleaseStrategy = "releases_only"

	// StrategyTagsOnly skips the releases endpoint entirely.
	StrategyTagsOnly ReleaseStrategy = "tags_only"
)

// ParseReleaseStrategy validates a strategy string; empty means auto.
func ParseReleaseStrategy(s string) (ReleaseStrategy, error) {
	switch ReleaseStrategy(s) {
	case "", StrategyAuto:
		return StrategyAuto, nil
	case StrategyReleasesOnly:
		return StrategyReleasesOnly, nil
	case StrategyTagsOnly:
		return StrategyTagsOnly, nil
	}
	return "", errors.New(errors.ErrCodeInvalidStrategy, "unknown release strategy %q", s)
}

// RepoRef identifies one watched repository and its per-repo options.
// The recognized options are enumerated here; unknown keys are rejected
// at config load time.
type RepoRef struct {
	Owner             string
	Name              string
	DisplayName       string
	Strategy          ReleaseStrategy
	ReleaseNotesFiles []string
}

// Display returns the configured display name, defaulting to the repo name.
func (r RepoRef) Display() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Name
}

// Slug returns the owner/name form used in logs and cache keys.
func (r RepoRef) Slug() string { return fmt.Sprintf("%s/%s", r.Owner, r.Name) }

// FeedRef identifies one syndication feed.
type FeedRef struct {
	URL         string
	DisplayName string
}

// PackageRef identifies one watched registry package.
type PackageRef struct {
	Registry string
	Name     string
}

// Thread caps are token-aware: authenticated runs have the rate budget for
// more parallelism.
const (
	defaultSourceThreadsAuth = 4
	defaultRepoThreadsAuth   = 3
	defaultSourceThreadsAnon = 2
	defaultRepoThreadsAnon   = 2
)

// DefaultThreads returns the (source-level, repo-level) worker pool sizes
// for the given token presence.
func DefaultThreads(hasToken bool) (source, repo int) {
	if hasToken {
		return defaultSourceThreadsAuth, defaultRepoThreadsAuth
	}
	return defaultSourceThreadsAnon, defaultRepoThreadsAnon
}
