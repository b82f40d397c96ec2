// Package integrations provides shared HTTP plumbing for all upstream API
// clients: the cached base client, sentinel errors, and small helpers used
// by the per-registry subpackages.
package integrations

import (
	"errors"
	"net/url"
	"strings"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
)

var (
	// ErrNotFound is returned when a resource doesn't exist upstream.
	// It aliases the cache sentinel so not-found results memoize as
	// negative entries without translation at every call site.
	ErrNotFound = cache.ErrNotFound

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors,
	// 5xx responses) once the retry budget is exhausted.
	ErrNetwork = errors.New("network error")

	// ErrRateLimited is returned when the upstream rate limit persists past
	// the retry budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrParse is returned when a response body cannot be decoded.
	ErrParse = errors.New("parse error")

	// ErrAuth is returned for 401/403 responses that are not rate limiting.
	// The affected endpoint should be skipped for the rest of the run.
	ErrAuth = errors.New("authentication failed")
)

// NormalizePkgName converts a package name to its canonical form.
// Applies lowercase and replaces underscores with hyphens, following PEP 503
// normalization rules used by PyPI and other registries.
func NormalizePkgName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// URLEncode percent-encodes a string for use in URLs.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }
