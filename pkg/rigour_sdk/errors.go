package rigour_sdk

import (
	"errors"

	"github.com/rigour/rigour_sdk_go/internal/httpx"
	"github.com/rigour/rigour_sdk_go/internal/query"
	"github.com/rigour/rigour_sdk_go/internal/rigourapi"
)

type (
	// HTTPError is returned for any response other than 2xx or 422.
	HTTPError = httpx.HTTPError
	// ValidationError is returned when the server rejects a request with 422.
	ValidationError = rigourapi.ValidationError
	// FieldError is one entry of a ValidationError.
	FieldError = rigourapi.FieldError
	// Option configures the HTTP transport.
	Option = httpx.Option
)

var (
	WithHTTPClient = httpx.WithHTTPClient
	WithHeaders    = httpx.WithHeaders
	WithLogger     = httpx.WithLogger

	// ErrMalformedBody marks a non-JSON body on an accepted response.
	ErrMalformedBody = httpx.ErrMalformedBody
	// ErrInvalidPayload marks a body that does not match the resource shape.
	ErrInvalidPayload = rigourapi.ErrInvalidPayload
)

// StatusCode extracts the HTTP status carried by an HTTPError or a
// ValidationError in err's chain, or 0.
func StatusCode(err error) int {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.StatusCode
	}
	return httpx.StatusCode(err)
}

// Ptr returns a pointer to v, for filling optional parameters.
func Ptr[T any](v T) *T {
	return query.Ptr(v)
}
