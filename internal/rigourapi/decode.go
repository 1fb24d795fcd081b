package rigourapi

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrInvalidPayload marks a response body that does not match the expected
// resource shape.
var ErrInvalidPayload = errors.New("rigourapi: invalid payload")

var validate = validator.New(validator.WithRequiredStructEnabled())

// IsEmptyObject reports whether body is the {} sentinel produced for empty
// responses.
func IsEmptyObject(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return true
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return false
	}
	return m != nil && len(m) == 0
}

// Decode unmarshals body into out and validates the result against its
// `validate` struct tags. An empty body, or the {} sentinel decoded into a
// slice, leaves out untouched.
func Decode(body []byte, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.Errorf("rigourapi: decode target must be a non-nil pointer, got %T", out)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if rv.Elem().Kind() == reflect.Slice && IsEmptyObject(trimmed) {
		return nil
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return errors.Wrapf(ErrInvalidPayload, "decode %T: %v", out, err)
	}
	return Validate(out)
}

// Validate checks v, descending into slices and maps of structs.
func Validate(v any) error {
	return validateValue(reflect.ValueOf(v))
}

func validateValue(rv reflect.Value) error {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if err := validate.Struct(rv.Interface()); err != nil {
			return errors.Wrap(ErrInvalidPayload, err.Error())
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := validateValue(rv.Index(i)); err != nil {
				return errors.WithMessagef(err, "item %d", i)
			}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if err := validateValue(iter.Value()); err != nil {
				return errors.WithMessagef(err, "key %v", iter.Key())
			}
		}
	}
	return nil
}
