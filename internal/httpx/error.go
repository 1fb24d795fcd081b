package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is an explicit failure outcome: a response whose status is
// neither 2xx nor 422. JSON holds the decoded body when it was JSON.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	JSON       any
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("rigour api: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), detail)
	}
	return fmt.Sprintf("rigour api: %d %s: body=%s", e.StatusCode, http.StatusText(e.StatusCode), string(e.Body))
}

// Detail returns the FastAPI {"detail": "..."} message, or "" when the body
// carries none.
func (e *HTTPError) Detail() string {
	if e == nil {
		return ""
	}
	obj, ok := e.JSON.(map[string]any)
	if !ok {
		return ""
	}
	detail, _ := obj["detail"].(string)
	return detail
}

// NotFound reports whether the server answered 404.
func (e *HTTPError) NotFound() bool {
	return e != nil && e.StatusCode == http.StatusNotFound
}

// StatusCode returns the status carried by an *HTTPError anywhere in err's
// chain, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

func decodeJSONBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var payload any
	if json.Unmarshal(body, &payload) != nil {
		return nil
	}
	return payload
}
