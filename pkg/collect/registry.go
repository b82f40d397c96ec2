package collect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/william-eth/web-tech-feeder/pkg/digest"
	"github.com/william-eth/web-tech-feeder/pkg/integrations"
)

// RegistryFetcher retrieves the latest published version of one package.
// The clients in pkg/integrations (npm, pypi, crates, rubygems, maven,
// packagist, goproxy) implement it.
type RegistryFetcher interface {
	FetchLatest(ctx context.Context, name string) (*integrations.PackageRelease, error)
}

// RegistryCollector emits one item per watched package whose newest
// version landed within the cutoff window.
type RegistryCollector struct {
	fetchers map[string]RegistryFetcher
	packages []PackageRef
	cutoff   time.Time
	workers  int
	logger   *charmlog.Logger
}

// NewRegistryCollector creates a registry collector. fetchers maps registry
// kinds ("npm", "pypi", ...) to their clients.
func NewRegistryCollector(fetchers map[string]RegistryFetcher, packages []PackageRef, cutoff time.Time, workers int, logger *charmlog.Logger) *RegistryCollector {
	if logger == nil {
		logger = charmlog.Default()
	}
	return &RegistryCollector{fetchers: fetchers, packages: packages, cutoff: cutoff, workers: workers, logger: logger}
}

// Name implements Collector.
func (c *RegistryCollector) Name() string { return "registry" }

// Collect implements Collector.
func (c *RegistryCollector) Collect(ctx context.Context) ([]digest.Item, error) {
	perPackage := Map(ctx, c.workers, c.packages, func(ctx context.Context, _ int, ref PackageRef) []digest.Item {
		item, err := c.collectPackage(ctx, ref)
		if err != nil {
			if !errors.Is(err, integrations.ErrNotFound) {
				c.logger.Warn("registry lookup failed", "registry", ref.Registry, "package", ref.Name, "err", err)
			}
			return nil
		}
		if item == nil {
			return nil
		}
		return []digest.Item{*item}
	})
	return Flatten(perPackage), nil
}

func (c *RegistryCollector) collectPackage(ctx context.Context, ref PackageRef) (*digest.Item, error) {
	fetcher, ok := c.fetchers[ref.Registry]
	if !ok {
		return nil, fmt.Errorf("unknown registry %q", ref.Registry)
	}

	rel, err := fetcher.FetchLatest(ctx, ref.Name)
	if err != nil {
		return nil, err
	}
	if rel.PublishedAt.IsZero() || rel.PublishedAt.Before(c.cutoff) {
		return nil, nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Version %s published %s on %s.",
		rel.Version, rel.PublishedAt.Format("2006-01-02"), ref.Registry)
	if rel.Description != "" {
		body.WriteString("\n\n" + rel.Description)
	}

	return &digest.Item{
		Title:       fmt.Sprintf("%s %s released", rel.Name, rel.Version),
		URL:         rel.URL,
		PublishedAt: rel.PublishedAt,
		Body:        body.String(),
		Source:      ref.Registry,
	}, nil
}
