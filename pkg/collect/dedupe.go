package collect

import (
	"regexp"
	"strings"

	"github.com/william-eth/web-tech-feeder/pkg/digest"
)

// releaseTitlePattern recognizes titles of the form
// "<name> v?<x.y.z[...]> released" emitted by the release and registry
// collectors.
var releaseTitlePattern = regexp.MustCompile(`^(.+?)\s+v?(\d+[\w.\-+]*)\s+released$`)

// registryKinds are the source labels produced by registry clients.
var registryKinds = map[string]bool{
	"npm":       true,
	"pypi":      true,
	"crates":    true,
	"rubygems":  true,
	"maven":     true,
	"packagist": true,
	"goproxy":   true,
}

// releaseKey derives the dedupe bucket from an item title.
func releaseKey(title string) (name, version string, ok bool) {
	m := releaseTitlePattern.FindStringSubmatch(title)
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), m[2], true
}

// sourceRank orders sources for dedupe survival: hosting-platform releases
// beat registry entries, which beat anything else.
func sourceRank(source string) int {
	switch {
	case source == "github-releases":
		return 2
	case registryKinds[source]:
		return 1
	default:
		return 0
	}
}

// DeduplicateReleaseVersions collapses items announcing the same
// (package, version) release from multiple sources. Within each bucket the
// survivor maximizes (source rank, body length, published-at); items whose
// titles don't parse as release announcements pass through untouched.
func DeduplicateReleaseVersions(items []digest.Item) []digest.Item {
	type key struct{ name, version string }

	winners := make(map[key]int) // bucket -> index into items
	for i, item := range items {
		name, version, ok := releaseKey(item.Title)
		if !ok {
			continue
		}
		k := key{name, version}
		j, seen := winners[k]
		if !seen || releasePriorityLess(items[j], item) {
			winners[k] = i
		}
	}

	out := make([]digest.Item, 0, len(items))
	for i, item := range items {
		name, version, ok := releaseKey(item.Title)
		if ok && winners[key{name, version}] != i {
			continue
		}
		out = append(out, item)
	}
	return out
}

// releasePriorityLess reports whether a loses to b under the survival
// tuple (source rank, body length, published-at).
func releasePriorityLess(a, b digest.Item) bool {
	if ra, rb := sourceRank(a.Source), sourceRank(b.Source); ra != rb {
		return ra < rb
	}
	if la, lb := len(a.Body), len(b.Body); la != lb {
		return la < lb
	}
	return a.PublishedAt.Before(b.PublishedAt)
}
