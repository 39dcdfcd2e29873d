package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL is the public HashiCorp releases API
	DefaultBaseURL = "https://api.releases.hashicorp.com/v1/"
	// DefaultTimeout is the default HTTP request timeout for catalog reads
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "relget/1.0"
	// AcceptHeader is the media type the releases API expects
	AcceptHeader = "application/vnd+hashicorp.releases-api.v1+json"
)

// StatusError is returned when the catalog answers with a non-200 status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog request %s: unexpected status code: %d", e.URL, e.StatusCode)
}

// Client reads products and releases from the catalog
type Client struct {
	baseURL      *url.URL
	client       *http.Client
	userAgent    string
	licenseClass string
	logger       *slog.Logger

	flight   singleflight.Group
	mu       sync.Mutex
	products []string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLicenseClass adds a license_class filter to every request.
// An empty class sends no filter.
func WithLicenseClass(class string) Option {
	return func(c *Client) {
		c.licenseClass = class
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a catalog client rooted at baseURL
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https: %s", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL:   u,
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Products returns every product name known to the catalog.
// The list is fetched once per client; concurrent callers share one request.
func (c *Client) Products(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	cached := c.products
	c.mu.Unlock()
	if cached != nil {
		return append([]string(nil), cached...), nil
	}

	v, err, _ := c.flight.Do("products", func() (interface{}, error) {
		var products []string
		if err := c.getJSON(ctx, "products", &products); err != nil {
			return nil, err
		}
		if products == nil {
			products = []string{}
		}
		c.mu.Lock()
		c.products = products
		c.mu.Unlock()
		return products, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	return append([]string(nil), v.([]string)...), nil
}

// Releases returns the releases of one product in catalog order.
// An unknown product yields an empty slice rather than an error.
func (c *Client) Releases(ctx context.Context, product string) ([]Release, error) {
	if product == "" || strings.ContainsAny(product, "/?#") {
		return nil, fmt.Errorf("invalid product name: %q", product)
	}

	var releases []Release
	err := c.getJSON(ctx, "releases/"+product, &releases)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return []Release{}, nil
		}
		return nil, fmt.Errorf("fetch releases for %s: %w", product, err)
	}
	return releases, nil
}

// endpoint resolves a relative path against the base URL and applies the license filter
func (c *Client) endpoint(path string) string {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if c.licenseClass != "" {
		q := u.Query()
		q.Set("license_class", c.licenseClass)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	target := c.endpoint(path)
	c.logger.Debug("catalog request", "url", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", AcceptHeader)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
