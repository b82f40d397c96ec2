// Package maven queries the Maven Central search API for the latest
// published version of an artifact.
package maven

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
	"github.com/william-eth/web-tech-feeder/pkg/integrations"
)

// Client provides access to the Maven Central search API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Maven Central client writing through the given run cache.
func NewClient(run *cache.Run) *Client {
	return &Client{
		Client:  integrations.NewClient(run, "maven", nil),
		baseURL: "https://search.maven.org/solrsearch/select",
	}
}

// FetchLatest retrieves the newest version of a "group:artifact" coordinate.
func (c *Client) FetchLatest(ctx context.Context, coordinate string) (*integrations.PackageRelease, error) {
	group, artifact, ok := strings.Cut(coordinate, ":")
	if !ok {
		return nil, fmt.Errorf("maven coordinate %q: want group:artifact", coordinate)
	}

	var rel integrations.PackageRelease
	err := c.Cached(ctx, coordinate, &rel, func() error {
		return c.fetch(ctx, group, artifact, &rel)
	})
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *Client) fetch(ctx context.Context, group, artifact string, rel *integrations.PackageRelease) error {
	query := fmt.Sprintf(`g:"%s" AND a:"%s"`, group, artifact)
	url := fmt.Sprintf("%s?q=%s&rows=1&wt=json", c.baseURL, integrations.URLEncode(query))

	var data searchResponse
	if err := c.Get(ctx, url, &data); err != nil {
		return err
	}
	if len(data.Response.Docs) == 0 {
		return fmt.Errorf("%w: maven artifact %s:%s", integrations.ErrNotFound, group, artifact)
	}

	doc := data.Response.Docs[0]
	*rel = integrations.PackageRelease{
		Name:        group + ":" + artifact,
		Version:     doc.LatestVersion,
		URL:         fmt.Sprintf("https://central.sonatype.com/artifact/%s/%s", group, artifact),
		PublishedAt: time.UnixMilli(doc.Timestamp).UTC(),
	}
	return nil
}

type searchResponse struct {
	Response struct {
		Docs []struct {
			LatestVersion string `json:"latestVersion"`
			Timestamp     int64  `json:"timestamp"`
		} `json:"docs"`
	} `json:"response"`
}
