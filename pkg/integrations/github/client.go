// Package github implements the rate-limit-aware client for the code-hosting
// API plus the reference-resolution helpers built on top of it: reference
// extraction, compare formatting, and per-item PR context assembly.
//
// All fetches go through the shared run cache, so overlapping call paths
// (collectors, enrichers, the context builder) never issue duplicate
// requests within a run.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
	"github.com/william-eth/web-tech-feeder/pkg/httputil"
	"github.com/william-eth/web-tech-feeder/pkg/integrations"
	"github.com/william-eth/web-tech-feeder/pkg/observability"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultWebHost = "github.com"

	// Rate-limit retry budget: up to 4 retries with exponential backoff
	// capped at 30 seconds, unless Retry-After overrides.
	maxRateRetries = 4
	backoffBase    = 2 * time.Second
	backoffMax     = 30 * time.Second

	// pageSize is the standard page size when paginating; pagination stops
	// on the first page shorter than this.
	pageSize = 100
)

// rateLimitPhrases identify 403 responses that are throttling rather than
// authorization failures.
var rateLimitPhrases = []string{
	"secondary rate",
	"rate limit exceeded",
	"abuse detection",
}

// Client issues authenticated JSON GETs against the hosting API with
// bounded rate-limit retries. Configuration is immutable after
// construction; the client is safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	webHost string
	token   string
	run     *cache.Run
	logger  *charmlog.Logger

	// authFailed remembers paths that returned a non-rate-limit 401/403 so
	// they are skipped for the rest of the run instead of retried.
	authFailed sync.Map
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint (enterprise
// installs, test servers).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a platform client. Pass an empty token for
// unauthenticated requests (lower rate limits; consumers shrink page sizes
// and reference caps accordingly via [Client.HasToken]). The client is
// immutable once constructed.
func NewClient(run *cache.Run, token string, logger *charmlog.Logger, opts ...Option) *Client {
	c := &Client{
		http:    httputil.NewClient(),
		baseURL: defaultBaseURL,
		webHost: defaultWebHost,
		token:   token,
		run:     run,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasToken reports whether the client sends authenticated requests.
// Page sizes, pagination enablement, and reference caps key off this.
func (c *Client) HasToken() bool { return c.token != "" }

// WebHost returns the host used to form browse URLs (tree, compare).
func (c *Client) WebHost() string { return c.webHost }

// getJSON performs one GET with the rate-limit retry loop: 429 and
// rate-limited 403 responses back off and retry up to maxRateRetries times;
// any other 4xx propagates immediately; transport errors and 5xx are
// retried separately inside do.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	if _, skipped := c.authFailed.Load(path); skipped {
		return fmt.Errorf("%w: %s skipped after earlier auth failure", integrations.ErrAuth, path)
	}

	for attempt := 0; ; attempt++ {
		status, header, body, err := c.do(ctx, path, query)
		if err != nil {
			return err
		}

		switch {
		case status == http.StatusOK:
			if err := json.Unmarshal(body, v); err != nil {
				if c.logger != nil {
					c.logger.Warn("response parse failed",
						"path", path, "body", truncateForLog(body))
				}
				return fmt.Errorf("%w: %s: %v", integrations.ErrParse, path, err)
			}
			return nil

		case status == http.StatusNotFound || status == http.StatusGone:
			return integrations.ErrNotFound

		case status == http.StatusUnauthorized:
			c.markAuthFailed(path, status)
			return fmt.Errorf("%w: status 401: %s", integrations.ErrAuth, path)

		case status == http.StatusTooManyRequests ||
			(status == http.StatusForbidden && isRateLimitBody(body)):
			if attempt >= maxRateRetries {
				return fmt.Errorf("%w: %s: retries exhausted", integrations.ErrRateLimited, path)
			}
			wait := backoffWait(attempt+1, header.Get("Retry-After"))
			c.warnRateLimited(path, header, wait)
			observability.HTTP().OnRateLimited(ctx, c.webHost, path, wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}

		case status == http.StatusForbidden:
			c.markAuthFailed(path, status)
			return fmt.Errorf("%w: status 403: %s", integrations.ErrAuth, path)

		default:
			return fmt.Errorf("%w: status %d: %s", integrations.ErrNetwork, status, path)
		}
	}
}

// markAuthFailed records an endpoint whose credentials were rejected so the
// rest of the run skips it instead of producing a retry storm.
func (c *Client) markAuthFailed(path string, status int) {
	if _, loaded := c.authFailed.LoadOrStore(path, status); !loaded && c.logger != nil {
		c.logger.Warn("auth failure, endpoint skipped for this run", "path", path, "status", status)
	}
}

// truncateForLog bounds a response body for warning output.
func truncateForLog(body []byte) string {
	const max = 200
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "…"
}

// do issues a single GET with transport-level retries (timeouts, resets,
// EOF, and 5xx responses; 3 attempts, 2s base delay). The response body is
// fully read so the rate-limit loop can inspect it.
func (c *Client) do(ctx context.Context, path string, query url.Values) (int, http.Header, []byte, error) {
	var (
		status int
		header http.Header
		body   []byte
	)
	err := httputil.RetryTransport(ctx, func() error {
		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		observability.HTTP().OnRequest(ctx, http.MethodGet, req.URL.Host, path)
		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			observability.HTTP().OnError(ctx, http.MethodGet, req.URL.Host, path, err)
			return httputil.Retryable(fmt.Errorf("%w: %v", integrations.ErrNetwork, err))
		}
		defer resp.Body.Close()
		observability.HTTP().OnResponse(ctx, http.MethodGet, req.URL.Host, path, resp.StatusCode, time.Since(start))

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return httputil.Retryable(fmt.Errorf("%w: reading body: %v", integrations.ErrNetwork, err))
		}
		if resp.StatusCode >= 500 {
			return httputil.Retryable(fmt.Errorf("%w: status %d", integrations.ErrNetwork, resp.StatusCode))
		}
		status, header, body = resp.StatusCode, resp.Header, data
		return nil
	})
	return status, header, body, err
}

// paginated fetches successive pages of per_page=100 until a page comes
// back shorter than the page size.
func paginated[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		q := cloneQuery(query)
		q.Set("per_page", strconv.Itoa(pageSize))
		q.Set("page", strconv.Itoa(page))

		var batch []T
		if err := c.getJSON(ctx, path, q, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}
}

// singlePage fetches one page with an explicit size cap. Used when the
// caller is token-less and wants to protect the rate budget.
func singlePage[T any](ctx context.Context, c *Client, path string, query url.Values, perPage int) ([]T, error) {
	q := cloneQuery(query)
	q.Set("per_page", strconv.Itoa(perPage))

	var batch []T
	if err := c.getJSON(ctx, path, q, &batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func cloneQuery(q url.Values) url.Values {
	out := make(url.Values, len(q)+2)
	for k, vs := range q {
		out[k] = vs
	}
	return out
}

// backoffWait computes the wait before retry k (1-based): Retry-After when
// it is a positive integer, otherwise min(base·2^(k-1), max).
func backoffWait(retry int, retryAfter string) time.Duration {
	if s, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	wait := backoffBase << (retry - 1)
	if wait > backoffMax {
		wait = backoffMax
	}
	return wait
}

func isRateLimitBody(body []byte) bool {
	text := strings.ToLower(string(body))
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// warnRateLimited attaches rate-limit telemetry to the throttling warning
// so operators can diagnose which budget was exhausted.
func (c *Client) warnRateLimited(path string, h http.Header, wait time.Duration) {
	if c.logger == nil {
		return
	}
	c.logger.Warn("rate limited, backing off",
		"path", path,
		"wait", wait,
		"remaining", h.Get("X-RateLimit-Remaining"),
		"limit", h.Get("X-RateLimit-Limit"),
		"reset_at", resetAt(h.Get("X-RateLimit-Reset")),
		"retry_after", h.Get("Retry-After"),
	)
}

// resetAt converts the X-RateLimit-Reset epoch to RFC 3339 for logs.
func resetAt(epoch string) string {
	sec, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil || sec <= 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
