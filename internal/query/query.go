// Package query encodes optional request parameters into canonical query
// strings. A parameter whose value is unset (nil) is omitted; zero values and
// empty strings are kept. Pairs appear in the order they are passed.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Default pagination applied by resource accessors when the caller leaves a
// value unset.
const (
	DefaultSkip  = 0
	DefaultLimit = 10
)

// Param is a single name/value pair. A nil Value marks the parameter unset.
type Param struct {
	Name  string
	Value *string
}

// String builds a Param from an optional string.
func String(name string, v *string) Param {
	return Param{Name: name, Value: v}
}

// Int builds a Param from an optional integer.
func Int(name string, v *int) Param {
	if v == nil {
		return Param{Name: name}
	}
	s := strconv.Itoa(*v)
	return Param{Name: name, Value: &s}
}

// Strings builds a comma-joined Param. A nil slice is unset; an empty
// non-nil slice encodes as an empty value.
func Strings(name string, v []string) Param {
	if v == nil {
		return Param{Name: name}
	}
	s := strings.Join(v, ",")
	return Param{Name: name, Value: &s}
}

// Encode renders params as name=value pairs joined by '&'.
func Encode(params ...Param) string {
	var b strings.Builder
	for _, p := range params {
		if p.Value == nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(*p.Value))
	}
	return b.String()
}

// Path appends the encoded params to path, adding '?' only when at least one
// parameter is set.
func Path(path string, params ...Param) string {
	encoded := Encode(params...)
	if encoded == "" {
		return path
	}
	return path + "?" + encoded
}

// Page resolves optional skip/limit values to their defaults.
func Page(skip, limit *int) (int, int) {
	s, l := DefaultSkip, DefaultLimit
	if skip != nil {
		s = *skip
	}
	if limit != nil {
		l = *limit
	}
	return s, l
}

// Ptr returns a pointer to v. Handy for filling optional parameters.
func Ptr[T any](v T) *T {
	return &v
}
