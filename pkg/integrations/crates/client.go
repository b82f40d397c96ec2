// Package crates queries the crates.io API for the latest published
// version of a crate.
package crates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
	"github.com/william-eth/web-tech-feeder/pkg/integrations"
)

// Client provides access to the crates.io package registry API.
//
// Note: crates.io requires a User-Agent header; this client sets one
// automatically.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a crates.io client writing through the given run cache.
func NewClient(run *cache.Run) *Client {
	headers := map[string]string{
		"User-Agent": "web-tech-feeder/1.0 (https://github.com/william-eth/web-tech-feeder)",
	}
	return &Client{
		Client:  integrations.NewClient(run, "crates", headers),
		baseURL: "https://crates.io/api/v1",
	}
}

// FetchLatest retrieves the newest version of the crate.
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
	var data crateResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/crates/%s", c.baseURL, name), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: crate %s", err, name)
		}
		return err
	}

	*rel = integrations.PackageRelease{
		Name:        data.Crate.Name,
		Version:     data.Crate.NewestVersion,
		URL:         "https://crates.io/crates/" + name,
		Description: data.Crate.Description,
	}
	for _, v := range data.Versions {
		if v.Num == data.Crate.NewestVersion {
			rel.PublishedAt = v.CreatedAt
			break
		}
	}
	return nil
}

type crateResponse struct {
	Crate struct {
		Name          string `json:"name"`
		NewestVersion string `json:"newest_version"`
		Description   string `json:"description"`
	} `json:"crate"`
	Versions []struct {
		Num       string    `json:"num"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"versions"`
}
