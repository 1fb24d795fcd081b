package hosts

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

// Client provides access to the host endpoints of the Rigour API.
type Client struct {
	backend Backend
}

// Backend returns raw JSON payloads for the host endpoints. The HTTP backend
// talks to the API; mocks serve in-memory data.
type Backend interface {
	GetHostRaw(ctx context.Context, ip string) ([]byte, error)
	SearchRaw(ctx context.Context, opts SearchOptions) ([]byte, error)
	CountRaw(ctx context.Context, opts CountOptions) ([]byte, error)
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

// GetHost fetches a single host by address.
func (c *Client) GetHost(ctx context.Context, ip string) (*Host, error) {
	if strings.TrimSpace(ip) == "" {
		return nil, fmt.Errorf("hosts: address is required")
	}
	if c == nil || c.backend == nil {
		return nil, fmt.Errorf("hosts: client is nil")
	}
	data, err := c.backend.GetHostRaw(ctx, ip)
	if err != nil {
		return nil, err
	}
	if rigourapi.IsEmptyObject(data) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ip)
	}

	var host Host
	if err := rigourapi.Decode(data, &host); err != nil {
		return nil, fmt.Errorf("hosts: decode host %s: %w", ip, err)
	}
	return &host, nil
}

// Search lists hosts matching an optional query, in server order.
func (c *Client) Search(ctx context.Context, opts SearchOptions) ([]Host, error) {
	if err := validatePage(opts.Skip, opts.Limit); err != nil {
		return nil, err
	}
	if c == nil || c.backend == nil {
		return nil, fmt.Errorf("hosts: client is nil")
	}
	data, err := c.backend.SearchRaw(ctx, opts)
	if err != nil {
		return nil, err
	}

	var list []Host
	if err := rigourapi.Decode(data, &list); err != nil {
		return nil, fmt.Errorf("hosts: decode search results: %w", err)
	}
	if err := checkUnique(list); err != nil {
		return nil, err
	}
	return list, nil
}

// Count returns the number of hosts matching an optional query together
// with the requested facets.
func (c *Client) Count(ctx context.Context, opts CountOptions) (*Count, error) {
	if c == nil || c.backend == nil {
		return nil, fmt.Errorf("hosts: client is nil")
	}
	data, err := c.backend.CountRaw(ctx, opts)
	if err != nil {
		return nil, err
	}

	var count Count
	if err := rigourapi.Decode(data, &count); err != nil {
		return nil, fmt.Errorf("hosts: decode counts: %w", err)
	}
	if count.Facets == nil {
		count.Facets = map[string][]FacetBucket{}
	}
	return &count, nil
}

// SearchPath returns the request path Search uses for opts, with defaults
// applied.
func SearchPath(opts SearchOptions) string {
	skip, limit := query.Page(opts.Skip, opts.Limit)
	return query.Path("host/search",
		query.String("query", opts.Query),
		query.Int("skip", &skip),
		query.Int("limit", &limit),
	)
}

// CountPath returns the request path Count uses for opts.
func CountPath(opts CountOptions) string {
	return query.Path("host/count",
		query.String("query", opts.Query),
		query.Strings("facet", opts.Facets),
	)
}

func validatePage(skip, limit *int) error {
	if skip != nil && *skip < 0 {
		return fmt.Errorf("hosts: skip must be >= 0, got %d", *skip)
	}
	if limit != nil && *limit <= 0 {
		return fmt.Errorf("hosts: limit must be > 0, got %d", *limit)
	}
	return nil
}

func checkUnique(list []Host) error {
	seen := make(map[string]struct{}, len(list))
	for _, h := range list {
		if _, ok := seen[h.IP]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateHost, h.IP)
		}
		seen[h.IP] = struct{}{}
	}
	return nil
}

type httpBackend struct {
	client *httpx.Client
}

func (b *httpBackend) GetHostRaw(ctx context.Context, ip string) ([]byte, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("hosts: http backend not configured")
	}
	resp, err := b.client.Get(ctx, "host/"+url.PathEscape(ip))
	if err != nil {
		if httpx.StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, ip, err)
		}
		return nil, err
	}
	return rigourapi.Payload(resp)
}

func (b *httpBackend) SearchRaw(ctx context.Context, opts SearchOptions) ([]byte, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("hosts: http backend not configured")
	}
	resp, err := b.client.Get(ctx, SearchPath(opts))
	if err != nil {
		return nil, err
	}
	return rigourapi.Payload(resp)
}

func (b *httpBackend) CountRaw(ctx context.Context, opts CountOptions) ([]byte, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("hosts: http backend not configured")
	}
	resp, err := b.client.Get(ctx, CountPath(opts))
	if err != nil {
		return nil, err
	}
	return rigourapi.Payload(resp)
}
