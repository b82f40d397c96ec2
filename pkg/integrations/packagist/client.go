// Package packagist queries the Packagist p2 API for the latest published
// version of a Composer package.
package packagist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
	"github.com/william-eth/web-tech-feeder/pkg/integrations"
)

// Client provides access to the Packagist registry API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Packagist client writing through the given run cache.
func NewClient(run *cache.Run) *Client {
	return &Client{
		Client:  integrations.NewClient(run, "packagist", nil),
		baseURL: "https://repo.packagist.org/p2",
	}
}

// FetchLatest retrieves the newest version of a "vendor/package" name.
// The p2 endpoint returns versions newest first.
func (c *Client) FetchLatest(ctx context.Context, name string) (*integrations.PackageRelease, error) {
	var rel integrations.PackageRelease
	err := c.Cached(ctx, name, &rel, func() error {
		return c.fetch(ctx, name, &rel)
	})
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *Client) fetch(ctx context.Context, name string, rel *integrations.PackageRelease) error {
	var data packageResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s.json", c.baseURL, name), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: packagist package %s", err, name)
		}
		return err
	}

	versions, ok := data.Packages[name]
	if !ok || len(versions) == 0 {
		return fmt.Errorf("%w: packagist package %s has no versions", integrations.ErrNotFound, name)
	}

	latest := versions[0]
	*rel = integrations.PackageRelease{
		Name:        name,
		Version:     latest.Version,
		URL:         "https://packagist.org/packages/" + name,
		Description: latest.Description,
		PublishedAt: latest.Time,
	}
	return nil
}

type packageResponse struct {
	Packages map[string][]struct {
		Version     string    `json:"version"`
		Description string    `json:"description"`
		Time        time.Time `json:"time"`
	} `json:"packages"`
}
