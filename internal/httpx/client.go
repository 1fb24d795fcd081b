package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// APIPrefix is the versioned prefix appended to the configured API origin.
const APIPrefix = "/api/v1"

// ErrMalformedBody is returned when an accepted response carries a non-empty
// body that is not valid JSON.
var ErrMalformedBody = errors.New("httpx: malformed JSON body")

// emptyObject is returned in place of an empty response body.
var emptyObject = json.RawMessage(`{}`)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used by the helper.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithLogger sets the logger used for per-request debug events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// Client sends JSON requests to {origin}/api/v1.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	headers    http.Header
	logger     zerolog.Logger
}

// Response is an accepted (2xx or 422) response with its decoded JSON body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       json.RawMessage
}

// Unprocessable reports whether the server answered 422. The body then
// carries a validation payload rather than the requested resource.
func (r *Response) Unprocessable() bool {
	return r != nil && r.StatusCode == http.StatusUnprocessableEntity
}

// NewClient creates a Client for the provided API origin, e.g.
// "https://rigour.example.com".
func NewClient(origin string, opts ...Option) (*Client, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return nil, errors.New("httpx: API origin is required")
	}

	parsed, err := url.Parse(strings.TrimRight(origin, "/") + APIPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "httpx: invalid API origin")
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.Errorf("httpx: API origin %q must be absolute", origin)
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{},
		headers:    make(http.Header),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved {origin}/api/v1 prefix.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Get issues a GET without a body.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Send(ctx, http.MethodGet, path, nil)
}

// Delete issues a DELETE without a body.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Send(ctx, http.MethodDelete, path, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, data any) (*Response, error) {
	if data == nil {
		return nil, errors.New("httpx: POST requires a request body")
	}
	return c.Send(ctx, http.MethodPost, path, data)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, data any) (*Response, error) {
	if data == nil {
		return nil, errors.New("httpx: PUT requires a request body")
	}
	return c.Send(ctx, http.MethodPut, path, data)
}

// Send performs exactly one request. path is relative to the base URL and
// must already carry its encoded query string. When data is non-nil it is
// serialised as JSON and Content-Type is set; otherwise neither is sent.
//
// 2xx and 422 responses are returned as a Response whose Body is the JSON
// payload, or {} when the body is empty. Any other status yields an
// *HTTPError.
func (c *Client) Send(ctx context.Context, method, path string, data any) (*Response, error) {
	if method == "" {
		return nil, errors.New("httpx: HTTP method is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var body io.Reader
	if data != nil {
		payload, err := jsonMarshal(data)
		if err != nil {
			return nil, errors.Wrap(err, "httpx: encode request body")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return nil, errors.Wrapf(err, "httpx: build %s %s", method, path)
	}
	httpReq.Header = cloneHeader(c.headers)
	if data != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, errors.Wrapf(err, "httpx: %s %s", method, path)
	}
	defer closeBody(resp.Body)

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")

	if !accepted(resp.StatusCode) {
		return nil, c.handleError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "httpx: read %s %s response", method, path)
	}
	if len(raw) == 0 {
		raw = emptyObject
	} else if !json.Valid(raw) {
		return nil, errors.Wrapf(ErrMalformedBody, "%s %s", method, path)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       json.RawMessage(raw),
	}, nil
}

func accepted(status int) bool {
	return (status >= 200 && status <= 299) || status == http.StatusUnprocessableEntity
}

func (c *Client) buildURL(path string) string {
	return c.baseURL.String() + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) handleError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "httpx: read error body")
	}
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header.Clone(),
	}
	if isJSON(resp.Header.Get("Content-Type")) {
		httpErr.JSON = decodeJSONBody(body)
	}
	return httpErr
}

func closeBody(rc io.ReadCloser) {
	if rc != nil {
		_ = rc.Close()
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType) == "application/json"
}

func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, values := range src {
		vCopy := make([]string, len(values))
		copy(vCopy, values)
		dst[k] = vCopy
	}
	return dst
}

func jsonMarshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
