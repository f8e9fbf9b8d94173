// Package searxng implements source.Source against a SearXNG metasearch instance.
package searxng

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/source"
	"golang.org/x/time/rate"
)

const (
	// SourceName is recorded on hits that carry no engine name.
	SourceName = "searxng"

	DefaultTimeout       = 30 * time.Second
	DefaultCheckTimeout  = 5 * time.Second
	DefaultCheckInterval = 5 * time.Minute
	DefaultUserAgent     = "rankit/1.0 (repository ranking)"
	DefaultCategories    = "general"
	DefaultLanguage      = "en"
	DefaultRateLimit     = 1.0
	DefaultBurst         = 2
)

var (
	// ErrBaseURLRequired is returned by NewClient when no instance url is given.
	ErrBaseURLRequired = errors.New("searxng base url required")

	// ErrUnavailable is returned when the instance failed its availability check.
	ErrUnavailable = errors.New("searxng instance unavailable")
)

// Client queries a SearXNG instance through its JSON API.
type Client struct {
	baseURL       *url.URL
	httpClient    *http.Client
	timeout       time.Duration
	limiter       *rate.Limiter
	userAgent     string
	categories    string
	language      string
	page          int
	checkTimeout  time.Duration
	checkInterval time.Duration
	now           func() time.Time
	logger        *slog.Logger

	mu        sync.Mutex
	available bool
	checkedAt time.Time
}

var _ source.Source = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the http client. The client is shared, never modified.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return errors.New("http client cannot be nil")
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithTimeout sets the per-request timeout, applied through the request context.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

// WithRateLimit limits requests per second with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) error {
		if perSecond <= 0 || burst < 1 {
			return fmt.Errorf("invalid rate limit %v/%d", perSecond, burst)
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithCategories sets the SearXNG categories searched.
func WithCategories(categories string) Option {
	return func(c *Client) error {
		c.categories = categories
		return nil
	}
}

// WithLanguage sets the search language.
func WithLanguage(lang string) Option {
	return func(c *Client) error {
		c.language = lang
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) error {
		c.userAgent = agent
		return nil
	}
}

// WithCheckInterval sets how long an availability check result is trusted.
func WithCheckInterval(interval time.Duration) Option {
	return func(c *Client) error {
		c.checkInterval = interval
		return nil
	}
}

// WithLogger sets the logger. Defaults to slog.Default() if not specified.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// NewClient creates a client for the instance at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrBaseURLRequired
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid searxng url %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid searxng url %q: scheme and host required", baseURL)
	}

	c := &Client{
		baseURL:       parsed,
		httpClient:    &http.Client{},
		timeout:       DefaultTimeout,
		limiter:       rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultBurst),
		userAgent:     DefaultUserAgent,
		categories:    DefaultCategories,
		language:      DefaultLanguage,
		page:          1,
		checkTimeout:  DefaultCheckTimeout,
		checkInterval: DefaultCheckInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "searxng", "url", parsed.Redacted())
	return c, nil
}

// Available reports whether the instance answered its last check, checking again
// once the check interval has passed. The check ignores ctx cancellation. When
// ctx is already done Available returns false and leaves the cached answer alone.
func (c *Client) Available(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	c.mu.Lock()
	if !c.checkedAt.IsZero() && c.now().Sub(c.checkedAt) < c.checkInterval {
		available := c.available
		c.mu.Unlock()
		return available
	}
	c.mu.Unlock()

	available, err := c.check(context.WithoutCancel(ctx))

	c.mu.Lock()
	c.available = available
	c.checkedAt = c.now()
	c.mu.Unlock()

	if !available {
		c.logger.Warn("searxng instance not available", "err", err)
	}
	return available
}

func (c *Client) check(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String(), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("status %d", resp.StatusCode)
	}
	return true, nil
}

type searchResponse struct {
	Results []core.RawResult `json:"results"`
}

// Search runs query against the instance and returns its raw hits.
func (c *Client) Search(ctx context.Context, query string) ([]core.RawResult, error) {
	if strings.TrimSpace(query) == "" {
		return []core.RawResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Available(ctx) {
		return nil, ErrUnavailable
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	endpoint := c.baseURL.JoinPath("search")
	params := url.Values{}
	params.Set("q", query)
	params.Set("categories", c.categories)
	params.Set("lang", c.language)
	params.Set("format", "json")
	params.Set("pageno", strconv.Itoa(c.page))
	endpoint.RawQuery = params.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searxng request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("searxng error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]core.RawResult, 0, len(decoded.Results))
	for _, raw := range decoded.Results {
		if raw.Source == "" {
			raw.Source = SourceName
		}
		results = append(results, raw)
	}
	c.logger.Debug("searxng search complete", "query", query, "results", len(results))
	return results, nil
}
