package scans

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rigour/rigour_sdk_go/internal/httpx"
	"github.com/rigour/rigour_sdk_go/internal/query"
	"github.com/rigour/rigour_sdk_go/internal/rigourapi"
)

// Client provides access to the scan-list endpoints.
type Client struct {
	backend Backend
}

// Backend returns raw JSON payloads for the scan-list endpoints.
type Backend interface {
	GetHostRaw(ctx context.Context, ip string) ([]byte, error)
	ListRaw(ctx context.Context, opts ListOptions) ([]byte, error)
	SearchRaw(ctx context.Context, opts SearchOptions) ([]byte, error)
}

// New constructs a Client bound to the provided API origin.
func New(origin string, opts ...httpx.Option) (*Client, error) {
	cl, err := httpx.NewClient(origin, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(cl), nil
}

// NewWithHTTPClient wraps an existing httpx.Client.
func NewWithHTTPClient(httpClient *httpx.Client) *Client {
	return &Client{backend: &httpBackend{client: httpClient}}
}

// NewWithBackend allows callers to supply a custom backend (e.g., mocks).
func NewWithBackend(b Backend) *Client {
	return &Client{backend: b}
}

// GetHost fetches the aggregate for one address.
func (c *Client) GetHost(ctx context.Context, ip string) (*HostAggregate, error) {
	if strings.TrimSpace(ip) == "" {
		return nil, fmt.Errorf("scans: address is required")
	}
	if c == nil || c.backend == nil {
		return nil, fmt.Errorf("scans: client is nil")
	}
	data, err := c.backend.GetHostRaw(ctx, ip)
	if err != nil {
		return nil, err
	}
	if rigourapi.IsEmptyObject(data) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ip)
	}

	var host HostAggregate
	if err := rigourapi.Decode(data, &host); err != nil {
		return nil, fmt.Errorf("scans: decode host %s: %w", ip, err)
	}
	return &host, nil
}

// List returns a page of host aggregates with the country and port
// summaries.
func (c *Client) List(ctx context.Context, opts ListOptions) (*HostsResult, error) {
	if err := validatePage(opts.Skip, opts.Limit); err != nil {
		return nil, err
	}
	if c == nil || c.backend == nil {
		return nil, fmt.Errorf("scans: client is nil")
	}
	data, err := c.backend.ListRaw(ctx, opts)
	if err != nil {
		return nil, err
	}

	var res HostsResult
	if err := rigourapi.Decode(data, &res); err != nil {
		return nil, fmt.Errorf("scans: decode hosts: %w", err)
	}
	seen := make(map[string]struct{}, len(res.Hosts))
	for _, h := range res.Hosts {
		if _, dup := seen[h.Saddr]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateHost, h.Saddr)
		}
		seen[h.Saddr] = struct{}{}
	}
	return &res, nil
}

// Search runs a full-text query over credentials and scans.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("scans: query is required")
	}
	if err := validatePage(opts.Skip, opts.Limit); err != nil {
		return nil, err
	}
	if c == nil || c.backend == nil {
		return nil, fmt.Errorf("scans: client is nil")
	}
	data, err := c.backend.SearchRaw(ctx, opts)
	if err != nil {
		return nil, err
	}

	var res SearchResult
	if err := rigourapi.Decode(data, &res); err != nil {
		return nil, fmt.Errorf("scans: decode search results: %w", err)
	}
	return &res, nil
}

// ListPath returns the request path List uses for opts, with defaults
// applied.
func ListPath(opts ListOptions) string {
	skip, limit := query.Page(opts.Skip, opts.Limit)
	return query.Path("hosts",
		query.String("query", opts.Query),
		query.String("country", opts.Country),
		query.Int("port", opts.Port),
		query.Int("skip", &skip),
		query.Int("limit", &limit),
	)
}

// SearchPath returns the request path Search uses for opts.
func SearchPath(opts SearchOptions) string {
	skip, limit := query.Page(opts.Skip, opts.Limit)
	return query.Path("search",
		query.String("query", &opts.Query),
		query.Int("skip", &skip),
		query.Int("limit", &limit),
	)
}

func validatePage(skip, limit *int) error {
	if skip != nil && *skip < 0 {
		return fmt.Errorf("scans: skip must be >= 0, got %d", *skip)
	}
	if limit != nil && *limit <= 0 {
		return fmt.Errorf("scans: limit must be > 0, got %d", *limit)
	}
	return nil
}

type httpBackend struct {
	client *httpx.Client
}

func (b *httpBackend) GetHostRaw(ctx context.Context, ip string) ([]byte, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("scans: http backend not configured")
	}
	resp, err := b.client.Get(ctx, "hosts/"+url.PathEscape(ip))
	if err != nil {
		if httpx.StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, ip, err)
		}
		return nil, err
	}
	return rigourapi.Payload(resp)
}

func (b *httpBackend) ListRaw(ctx context.Context, opts ListOptions) ([]byte, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("scans: http backend not configured")
	}
	resp, err := b.client.Get(ctx, ListPath(opts))
	if err != nil {
		return nil, err
	}
	return rigourapi.Payload(resp)
}

func (b *httpBackend) SearchRaw(ctx context.Context, opts SearchOptions) ([]byte, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("scans: http backend not configured")
	}
	resp, err := b.client.Get(ctx, SearchPath(opts))
	if err != nil {
		return nil, err
	}
	return rigourapi.Payload(resp)
}
