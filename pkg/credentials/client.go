package credentials

import (
	"context"
	"fmt"

	"github.com/rigour/rigour_sdk_go/internal/httpx"
	"github.com/rigour/rigour_sdk_go/internal/query"
	"github.com/rigour/rigour_sdk_go/internal/rigourapi"
)

// Client provides access to the credential listing.
type Client struct {
	backend Backend
}

// Backend returns raw JSON payloads for the credential endpoint.
type Backend interface {
	ListRaw(ctx context.Context, opts ListOptions) ([]byte, error)
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

// List returns one page of credentials in server order.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]Credential, error) {
	if opts.Skip != nil && *opts.Skip < 0 {
		return nil, fmt.Errorf("credentials: skip must be >= 0, got %d", *opts.Skip)
	}
	if opts.Limit != nil && *opts.Limit <= 0 {
		return nil, fmt.Errorf("credentials: limit must be > 0, got %d", *opts.Limit)
	}
	if c == nil || c.backend == nil {
		return nil, fmt.Errorf("credentials: client is nil")
	}
	data, err := c.backend.ListRaw(ctx, opts)
	if err != nil {
		return nil, err
	}

	var list []Credential
	if err := rigourapi.Decode(data, &list); err != nil {
		return nil, fmt.Errorf("credentials: decode listing: %w", err)
	}
	return list, nil
}

// ListPath returns the request path List uses for opts, with defaults applied.
func ListPath(opts ListOptions) string {
	skip, limit := query.Page(opts.Skip, opts.Limit)
	return query.Path("credentials", query.Int("skip", &skip), query.Int("limit", &limit))
}

type httpBackend struct {
	client *httpx.Client
}

func (b *httpBackend) ListRaw(ctx context.Context, opts ListOptions) ([]byte, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("credentials: http backend not configured")
	}
	resp, err := b.client.Get(ctx, ListPath(opts))
	if err != nil {
		return nil, err
	}
	return rigourapi.Payload(resp)
}
