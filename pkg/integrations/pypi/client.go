// Package pypi queries the PyPI JSON API for the latest published version
// of a package.
package pypi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
	"github.com/william-eth/web-tech-feeder/pkg/integrations"
)

// Client provides access to the PyPI package registry API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client writing through the given run cache.
func NewClient(run *cache.Run) *Client {
	return &Client{
		Client:  integrations.NewClient(run, "pypi", nil),
		baseURL: "https://pypi.org/pypi",
	}
}

// FetchLatest retrieves the newest release of pkg. The package name is
// normalized following PEP 503 before the lookup.
func (c *Client) FetchLatest(ctx context.Context, pkg string) (*integrations.PackageRelease, error) {
	pkg = integrations.NormalizePkgName(pkg)

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
	var data projectResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi package %s", err, pkg)
		}
		return err
	}

	*rel = integrations.PackageRelease{
		Name:        data.Info.Name,
		Version:     data.Info.Version,
		URL:         fmt.Sprintf("https://pypi.org/project/%s/%s/", pkg, data.Info.Version),
		Description: data.Info.Summary,
	}
	for _, u := range data.URLs {
		if u.UploadTime.After(rel.PublishedAt) {
			rel.PublishedAt = u.UploadTime
		}
	}
	return nil
}

type projectResponse struct {
	Info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Summary string `json:"summary"`
	} `json:"info"`
	URLs []struct {
		UploadTime time.Time `json:"upload_time_iso_8601"`
	} `json:"urls"`
}
