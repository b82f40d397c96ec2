package integrations

import "time"

// PackageRelease is the common result shape of all registry clients: the
// newest published version of a package and when it landed.
type PackageRelease struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
