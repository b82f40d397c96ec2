package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/william-eth/web-tech-feeder/pkg/cache"
	"github.com/william-eth/web-tech-feeder/pkg/httputil"
	"github.com/william-eth/web-tech-feeder/pkg/observability"
)

// Client provides shared HTTP functionality for all registry API clients.
// It handles run-scoped caching, retry logic, and common request headers.
type Client struct {
	http      *http.Client
	run       *cache.Run
	namespace string
	headers   map[string]string
}

// NewClient creates a Client writing through the given run cache under
// namespace. Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed.
func NewClient(run *cache.Run, namespace string, headers map[string]string) *Client {
	return &Client{
		http:      httputil.NewClient(),
		run:       run,
		namespace: namespace,
		headers:   headers,
	}
}

// Cached retrieves a value from the run cache or executes fetch and
// memoizes the result, negatives included: a fetch ending in [ErrNotFound]
// is stored so the lookup is never repeated within the run. The fetch
// function should populate v; transient failures inside fetch are retried
// with backoff before the error escapes.
func (c *Client) Cached(ctx context.Context, key string, v any, fetch func() error) error {
	return c.run.Fetch(ctx, c.namespace, key, v, func() error {
		return httputil.RetryTransport(ctx, fetch)
	})
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with
// defaults. Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParse, url, err)
	}
	return nil
}

// GetText performs an HTTP GET request and returns the response body as a
// string. Useful for non-JSON endpoints like version files or plain text.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, err := c.doRequest(ctx, url, nil)
	if err != nil {
		return "", err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	return string(data), err
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	observability.HTTP().OnRequest(ctx, http.MethodGet, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, req.URL.Host, req.URL.Path, err)
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	observability.HTTP().OnResponse(ctx, http.MethodGet, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return ErrNotFound
	case code >= 500:
		return httputil.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
