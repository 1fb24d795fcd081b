// Package filter evaluates the host query mini-language against JSON
// documents. A query is split on whitespace, honouring quotes; "field:value"
// parts become equality conditions on dotted paths and bare words form a
// case-insensitive text search.
package filter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/pkg/errors"
)

// Document is a decoded JSON object.
type Document map[string]any

// NewDocument converts any JSON-encodable value into a Document.
func NewDocument(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "filter: encode document")
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "filter: decode document")
	}
	return doc, nil
}

// Condition requires the value at Field to equal Value. Value is a bool, an
// int or a string.
type Condition struct {
	Field string
	Value any
}

// Query is a parsed query string.
type Query struct {
	Conditions []Condition
	Terms      []string
}

// Parse splits q into conditions and text terms. A field named twice keeps
// the last value.
func Parse(q string) (Query, error) {
	var out Query
	parts, err := shlex.Split(q)
	if err != nil {
		return out, errors.Wrapf(err, "filter: parse query %q", q)
	}
	for _, part := range parts {
		field, raw, ok := strings.Cut(part, ":")
		if !ok {
			out.Terms = append(out.Terms, part)
			continue
		}
		out.set(field, coerce(raw))
	}
	return out, nil
}

func (q *Query) set(field string, value any) {
	for i := range q.Conditions {
		if q.Conditions[i].Field == field {
			q.Conditions[i].Value = value
			return
		}
	}
	q.Conditions = append(q.Conditions, Condition{Field: field, Value: value})
}

func coerce(raw string) any {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if isDigits(raw) {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return raw
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Empty reports whether the query matches every document.
func (q Query) Empty() bool {
	return len(q.Conditions) == 0 && len(q.Terms) == 0
}

// Match reports whether doc satisfies every condition and, when terms are
// present, contains at least one of them. Paths missing at the top level are
// resolved inside the members of each nested collection.
func (q Query) Match(doc Document, nested ...string) bool {
	for _, c := range q.Conditions {
		if !anyEqual(Values(doc, c.Field, nested...), c.Value) {
			return false
		}
	}
	if len(q.Terms) == 0 {
		return true
	}
	var texts []string
	collectStrings(map[string]any(doc), &texts)
	for _, term := range q.Terms {
		needle := strings.ToLower(term)
		for _, s := range texts {
			if strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
	}
	return false
}

// Values returns the scalar values found at a dotted path. Arrays along the
// path are traversed element by element. When the path yields nothing, it is
// looked up in the members (map values or array elements) of each nested
// collection instead.
func Values(doc Document, path string, nested ...string) []any {
	keys := strings.Split(path, ".")
	var out []any
	walk(map[string]any(doc), keys, &out)
	if len(out) > 0 {
		return out
	}
	for _, coll := range nested {
		var containers []any
		walk(map[string]any(doc), strings.Split(coll, "."), &containers)
		for _, c := range containers {
			for _, member := range members(c) {
				walk(member, keys, &out)
			}
		}
	}
	return out
}

func walk(node any, keys []string, out *[]any) {
	if arr, ok := node.([]any); ok {
		for _, el := range arr {
			walk(el, keys, out)
		}
		return
	}
	if len(keys) == 0 {
		if node != nil {
			*out = append(*out, node)
		}
		return
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return
	}
	child, ok := obj[keys[0]]
	if !ok {
		return
	}
	walk(child, keys[1:], out)
}

func members(node any) []any {
	switch v := node.(type) {
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]any, 0, len(v))
		for _, name := range names {
			out = append(out, v[name])
		}
		return out
	case []any:
		return v
	}
	return nil
}

func anyEqual(values []any, want any) bool {
	for _, v := range values {
		if equal(v, want) {
			return true
		}
	}
	return false
}

func equal(have, want any) bool {
	switch w := want.(type) {
	case bool:
		b, ok := have.(bool)
		return ok && b == w
	case int:
		f, ok := have.(float64)
		return ok && f == float64(w)
	case string:
		s, ok := have.(string)
		return ok && s == w
	}
	return false
}

func collectStrings(node any, out *[]string) {
	switch v := node.(type) {
	case string:
		*out = append(*out, v)
	case map[string]any:
		for _, child := range v {
			collectStrings(child, out)
		}
	case []any:
		for _, child := range v {
			collectStrings(child, out)
		}
	}
}

// DefaultFacetLimit is the bucket count used when a selector has no ":limit".
const DefaultFacetLimit = 10

// Facet is one parsed facet selector.
type Facet struct {
	Field string
	Key   string
	Limit int
}

// ParseFacets parses a comma-separated list of "field[:limit]" selectors.
// Keys replace dots with underscores, matching the server's response keys.
func ParseFacets(s string) ([]Facet, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []Facet
	for _, item := range strings.Split(s, ",") {
		name, rawLimit, hasLimit := strings.Cut(strings.TrimSpace(item), ":")
		if name == "" {
			return nil, errors.Errorf("filter: empty facet in %q", s)
		}
		limit := DefaultFacetLimit
		if hasLimit {
			n, err := strconv.Atoi(rawLimit)
			if err != nil || n <= 0 {
				return nil, errors.Errorf("filter: invalid limit %q for facet %s", rawLimit, name)
			}
			limit = n
		}
		out = append(out, Facet{Field: name, Key: strings.ReplaceAll(name, ".", "_"), Limit: limit})
	}
	return out, nil
}

// Bucket is a facet value with the number of documents holding it.
type Bucket struct {
	Value any
	Count int
}

// Aggregate groups docs by each facet's field. A document counts once per
// distinct value; documents without the field are left out. Buckets are
// ordered by count descending, ties by value, and cut at the facet limit.
func Aggregate(docs []Document, facets []Facet, nested ...string) map[string][]Bucket {
	out := make(map[string][]Bucket, len(facets))
	for _, f := range facets {
		counts := map[any]int{}
		for _, doc := range docs {
			seen := map[any]struct{}{}
			for _, v := range Values(doc, f.Field, nested...) {
				if !scalar(v) {
					continue
				}
				if _, dup := seen[v]; dup {
					continue
				}
				seen[v] = struct{}{}
				counts[v]++
			}
		}
		out[f.Key] = Top(counts, f.Limit)
	}
	return out
}

// Top orders counts descending, ties by value label, keeping at most limit
// buckets. A limit <= 0 keeps all of them.
func Top(counts map[any]int, limit int) []Bucket {
	buckets := make([]Bucket, 0, len(counts))
	for v, n := range counts {
		buckets = append(buckets, Bucket{Value: v, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return less(buckets[i].Value, buckets[j].Value)
	})
	if limit > 0 && len(buckets) > limit {
		buckets = buckets[:limit]
	}
	return buckets
}

func less(a, b any) bool {
	fa, aok := a.(float64)
	fb, bok := b.(float64)
	if aok && bok {
		return fa < fb
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func scalar(v any) bool {
	switch v.(type) {
	case string, float64, bool, int:
		return true
	}
	return false
}
