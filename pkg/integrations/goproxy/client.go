// Package goproxy queries the Go module proxy for the latest published
// version of a module.
package goproxy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
	"github.com/william-eth/web-tech-feeder/pkg/integrations"
)

// Client provides access to the Go module proxy.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a module proxy client writing through the given run cache.
func NewClient(run *cache.Run) *Client {
	return &Client{
		Client:  integrations.NewClient(run, "goproxy", nil),
		baseURL: "https://proxy.golang.org",
	}
}

// FetchLatest retrieves the newest version of the module from @latest.
func (c *Client) FetchLatest(ctx context.Context, mod string) (*integrations.PackageRelease, error) {
	var rel integrations.PackageRelease
	err := c.Cached(ctx, mod, &rel, func() error {
		return c.fetch(ctx, mod, &rel)
	})
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *Client) fetch(ctx context.Context, mod string, rel *integrations.PackageRelease) error {
	var data latestResponse
	url := fmt.Sprintf("%s/%s/@latest", c.baseURL, escapePath(mod))
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: module %s", err, mod)
		}
		return err
	}

	*rel = integrations.PackageRelease{
		Name:        mod,
		Version:     data.Version,
		URL:         "https://pkg.go.dev/" + mod,
		PublishedAt: data.Time,
	}
	return nil
}

// escapePath applies module path escaping: uppercase letters become
// "!<lowercase>", per the proxy protocol.
func escapePath(mod string) string {
	var b strings.Builder
	for _, r := range mod {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('!')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type latestResponse struct {
	Version string    `json:"Version"`
	Time    time.Time `json:"Time"`
}
