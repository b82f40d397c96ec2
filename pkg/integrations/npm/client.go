// Package npm queries the npm registry for the latest published version of
// a package.
package npm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
	"github.com/william-eth/web-tech-feeder/pkg/integrations"
)

// Client provides access to the npm registry API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an npm client writing through the given run cache.
func NewClient(run *cache.Run) *Client {
	return &Client{
		Client:  integrations.NewClient(run, "npm", nil),
		baseURL: "https://registry.npmjs.org",
	}
}

// FetchLatest retrieves the newest published version of pkg with its
// publish timestamp from the registry's time map.
func (c *Client) FetchLatest(ctx context.Context, pkg string) (*integrations.PackageRelease, error) {
	pkg = strings.ToLower(strings.TrimSpace(pkg))

	var rel integrations.PackageRelease
	err := c.Cached(ctx, pkg, &rel, func() error {
		return c.fetch(ctx, pkg, &rel)
	})
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, rel *integrations.PackageRelease) error {
	var data registryResponse
	if err := c.Get(ctx, c.baseURL+"/"+pkg, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return err
	}

	latest := data.DistTags.Latest
	if latest == "" {
		return fmt.Errorf("%w: npm package %s has no latest tag", integrations.ErrNotFound, pkg)
	}

	*rel = integrations.PackageRelease{
		Name:        data.Name,
		Version:     latest,
		URL:         "https://www.npmjs.com/package/" + pkg,
		Description: data.Description,
	}
	if ts, ok := data.Time[latest]; ok {
		rel.PublishedAt = ts
	}
	return nil
}

type registryResponse struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	DistTags    distTags             `json:"dist-tags"`
	Time        map[string]time.Time `json:"time"`
}

type distTags struct {
	Latest string `json:"latest"`
}
