package rigourapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rigour/rigour_sdk_go/internal/httpx"
)

// FieldError is one entry of a FastAPI validation "detail" list.
type FieldError struct {
	Loc   []any  `json:"loc"`
	Msg   string `json:"msg"`
	Type  string `json:"type"`
	Input any    `json:"input,omitempty"`
}

// Field renders Loc as a dotted path, e.g. "query.limit".
func (f FieldError) Field() string {
	parts := make([]string, 0, len(f.Loc))
	for _, p := range f.Loc {
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ".")
}

// ValidationError is the decoded body of a 422 response. Message is set when
// the server sent a plain string detail instead of a field list.
type ValidationError struct {
	StatusCode int
	Fields     []FieldError
	Message    string
	Body       json.RawMessage
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Fields) == 0 {
		if e.Message != "" {
			return "validation failed: " + e.Message
		}
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field()+": "+f.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// NewValidationError builds a 422 error from field entries, with Body set to
// the FastAPI-shaped payload.
func NewValidationError(fields ...FieldError) *ValidationError {
	body, _ := json.Marshal(map[string]any{"detail": fields})
	return &ValidationError{
		StatusCode: http.StatusUnprocessableEntity,
		Fields:     fields,
		Body:       body,
	}
}

// ParseValidationError decodes a 422 body. Unknown shapes are kept in Body.
func ParseValidationError(status int, body []byte) *ValidationError {
	verr := &ValidationError{
		StatusCode: status,
		Body:       append(json.RawMessage(nil), body...),
	}
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &envelope); err != nil || envelope.Detail == nil {
		return verr
	}
	if err := json.Unmarshal(envelope.Detail, &verr.Fields); err == nil {
		return verr
	}
	var msg string
	if err := json.Unmarshal(envelope.Detail, &msg); err == nil {
		verr.Message = msg
	}
	return verr
}

// Payload returns the JSON body of an accepted response, or a
// *ValidationError when the server answered 422.
func Payload(resp *httpx.Response) ([]byte, error) {
	if resp == nil {
		return nil, nil
	}
	if resp.Unprocessable() {
		return nil, ParseValidationError(resp.StatusCode, resp.Body)
	}
	return resp.Body, nil
}
