// Package rubygems queries the RubyGems API for the latest published
// version of a gem.
package rubygems

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
	"github.com/william-eth/web-tech-feeder/pkg/integrations"
)

// Client provides access to the RubyGems registry API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a RubyGems client writing through the given run cache.
func NewClient(run *cache.Run) *Client {
	return &Client{
		Client:  integrations.NewClient(run, "rubygems", nil),
		baseURL: "https://rubygems.org/api/v1",
	}
}

// FetchLatest retrieves the newest version of the gem. The versions
// endpoint is used because the gem endpoint carries no publish timestamp.
func (c *Client) FetchLatest(ctx context.Context, gem string) (*integrations.PackageRelease, error) {
	var rel integrations.PackageRelease
	err := c.Cached(ctx, gem, &rel, func() error {
		return c.fetch(ctx, gem, &rel)
	})
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *Client) fetch(ctx context.Context, gem string, rel *integrations.PackageRelease) error {
	var versions []versionResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/versions/%s.json", c.baseURL, gem), &versions); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: gem %s", err, gem)
		}
		return err
	}
	if len(versions) == 0 {
		return fmt.Errorf("%w: gem %s has no versions", integrations.ErrNotFound, gem)
	}

	// The API returns versions newest first.
	latest := versions[0]
	*rel = integrations.PackageRelease{
		Name:        gem,
		Version:     latest.Number,
		URL:         "https://rubygems.org/gems/" + gem,
		Description: latest.Summary,
		PublishedAt: latest.CreatedAt,
	}
	return nil
}

type versionResponse struct {
	Number    string    `json:"number"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
