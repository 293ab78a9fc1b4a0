// Package searxng provides a client for SearXNG metasearch instances with
// fallback support across multiple endpoints.
package searxng

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://searx.be"
	defaultLimit   = 10
	userAgent      = "domain-enrich/1.0"
)

// defaultFallbacks are tried in order when the primary endpoint fails.
var defaultFallbacks = []string{
	"https://searx.org",
	"https://searx.space",
}

// Client performs web searches against a SearXNG instance.
type Client interface {
	// Search runs a query and returns up to limit results. An empty slice
	// with a nil error means every configured endpoint failed or the query
	// genuinely matched nothing; callers treat both as "no evidence".
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the primary endpoint.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithFallbacks replaces the default fallback endpoints.
func WithFallbacks(urls []string) Option {
	return func(c *httpClient) {
		c.fallbacks = urls
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit paces outgoing queries at qps queries per second.
func WithRateLimit(qps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(qps), 1)
	}
}

type httpClient struct {
	baseURL   string
	fallbacks []string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a SearXNG client with the default public instance and
// fallbacks.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		fallbacks: defaultFallbacks,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "searxng: rate limit wait")
		}
	}

	results, err := c.doSearch(ctx, c.baseURL, query)
	if err == nil {
		return truncate(results, limit), nil
	}
	zap.L().Warn("searxng: primary endpoint failed",
		zap.String("endpoint", c.baseURL),
		zap.Error(err),
	)

	// One attempt per fallback, same query and parameters. The primary
	// endpoint remains the default for subsequent calls.
	for _, fb := range c.fallbacks {
		if ctx.Err() != nil {
			break
		}
		results, err = c.doSearch(ctx, fb, query)
		if err == nil {
			zap.L().Info("searxng: fallback endpoint succeeded", zap.String("endpoint", fb))
			return truncate(results, limit), nil
		}
		zap.L().Warn("searxng: fallback endpoint failed",
			zap.String("endpoint", fb),
			zap.Error(err),
		)
	}

	// All endpoints down. Not fatal to callers: no evidence, not an error.
	zap.L().Error("searxng: all endpoints failed", zap.String("query", query))
	return nil, nil
}

func (c *httpClient) doSearch(ctx context.Context, endpoint, query string) ([]Result, error) {
	params := url.Values{
		"q":          {query},
		"format":     {"json"},
		"engines":    {"google,bing,duckduckgo"},
		"language":   {"en"},
		"safesearch": {"0"},
		"pageno":     {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "searxng: create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "searxng: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "searxng: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("searxng: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "searxng: unmarshal response")
	}

	return parsed.Results, nil
}

func truncate(results []Result, limit int) []Result {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}
