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

// AdvisoryCollector emits recent entries from the platform's advisory
// database for the configured ecosystems.
type AdvisoryCollector struct {
	client     *github.Client
	ecosystems []string
	cutoff     time.Time
	logger     *charmlog.Logger
}

// NewAdvisoryCollector creates an advisory collector.
func NewAdvisoryCollector(client *github.Client, ecosystems []string, cutoff time.Time, logger *charmlog.Logger) *AdvisoryCollector {
	if logger == nil {
		logger = charmlog.Default()
	}
	return &AdvisoryCollector{client: client, ecosystems: ecosystems, cutoff: cutoff, logger: logger}
}

// Name implements Collector.
func (c *AdvisoryCollector) Name() string { return "github-advisories" }

// Collect implements Collector.
func (c *AdvisoryCollector) Collect(ctx context.Context) ([]digest.Item, error) {
	var items []digest.Item
	for _, eco := range c.ecosystems {
		advisories, err := c.client.ListAdvisories(ctx, eco, c.cutoff)
		if err != nil {
			c.logger.Warn("advisory collection failed", "ecosystem", eco, "err", err)
			continue
		}
		for _, adv := range advisories {
			if adv.PublishedAt.Before(c.cutoff) {
				continue
			}
			items = append(items, digest.Item{
				Title:       fmt.Sprintf("[Security] %s", adv.Summary),
				URL:         adv.HTMLURL,
				PublishedAt: adv.PublishedAt,
				Body:        advisoryBody(&adv, eco),
				Source:      c.Name(),
			})
		}
	}
	return items, nil
}

func advisoryBody(adv *github.Advisory, ecosystem string) string {
	header := fmt.Sprintf("Severity: %s | Ecosystem: %s | %s", adv.Severity, ecosystem, adv.GHSAID)
	if adv.CVEID != "" {
		header += " | " + adv.CVEID
	}
	parts := []string{header}
	if strings.TrimSpace(adv.Description) != "" {
		parts = append(parts, strings.TrimSpace(adv.Description))
	}
	return digest.Truncate(strings.Join(parts, "\n\n"), digest.MaxIssueBody)
}
