package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rigour/rigour_sdk_go/internal/filter"
	"github.com/rigour/rigour_sdk_go/internal/query"
	"github.com/rigour/rigour_sdk_go/internal/rigourapi"
	"github.com/rigour/rigour_sdk_go/pkg/hosts"
)

// Banner fields such as "port" or "service" are matched inside each banner
// when the host document has no top-level field of that name.
const bannersPath = "banners"

type record struct {
	host hosts.Host
	doc  filter.Document
}

// Mock implements an in-memory host collection with the server's query and
// facet semantics.
type Mock struct {
	mu    sync.RWMutex
	byIP  map[string]*record
	order []string
}

// New creates an empty mock collection.
func New() *Mock {
	return &Mock{byIP: make(map[string]*record)}
}

// Seed loads hosts, typically decoded via devseed.Load. A seed that repeats
// an address is rejected.
func (m *Mock) Seed(list []hosts.Host) error {
	seen := make(map[string]struct{}, len(list))
	for _, h := range list {
		if _, dup := seen[h.IP]; dup {
			return fmt.Errorf("mock hosts: %w: %s", hosts.ErrDuplicateHost, h.IP)
		}
		seen[h.IP] = struct{}{}
	}
	for _, h := range list {
		if err := m.Put(context.Background(), h); err != nil {
			return err
		}
	}
	return nil
}

// Put inserts or replaces a host.
func (m *Mock) Put(ctx context.Context, h hosts.Host) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rigourapi.Validate(&h); err != nil {
		return fmt.Errorf("mock hosts: host %q: %w", h.IP, err)
	}
	doc, err := filter.NewDocument(h)
	if err != nil {
		return fmt.Errorf("mock hosts: index %s: %w", h.IP, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byIP[h.IP]; !exists {
		m.order = append(m.order, h.IP)
	}
	m.byIP[h.IP] = &record{host: h, doc: doc}
	return nil
}

// Len returns the number of stored hosts.
func (m *Mock) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byIP)
}

// Host returns the host stored under ip or hosts.ErrNotFound.
func (m *Mock) Host(ctx context.Context, ip string) (*hosts.Host, error) {
	if strings.TrimSpace(ip) == "" {
		return nil, fmt.Errorf("mock hosts: address is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byIP[ip]
	if !ok {
		return nil, fmt.Errorf("%w: %s", hosts.ErrNotFound, ip)
	}
	h := rec.host
	return &h, nil
}

// Search returns the page of matching hosts in insertion order.
func (m *Mock) Search(ctx context.Context, opts hosts.SearchOptions) ([]hosts.Host, error) {
	skip, limit := query.Page(opts.Skip, opts.Limit)
	if verr := rigourapi.CheckPage(skip, limit); verr != nil {
		return nil, verr
	}
	q, err := parse(opts.Query)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []hosts.Host{}
	matched := 0
	for _, rec := range m.matching(q) {
		if matched >= skip && len(out) < limit {
			out = append(out, rec.host)
		}
		matched++
	}
	return out, nil
}

// Count returns the number of matching hosts and the requested facets.
func (m *Mock) Count(ctx context.Context, opts hosts.CountOptions) (*hosts.Count, error) {
	q, err := parse(opts.Query)
	if err != nil {
		return nil, err
	}
	facets, err := filter.ParseFacets(strings.Join(opts.Facets, ","))
	if err != nil {
		return nil, rigourapi.QueryError("facet", strings.Join(opts.Facets, ","), err.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.matching(q)
	docs := make([]filter.Document, 0, len(matched))
	for _, rec := range matched {
		docs = append(docs, rec.doc)
	}

	count := &hosts.Count{Total: len(docs), Facets: map[string][]hosts.FacetBucket{}}
	for key, buckets := range filter.Aggregate(docs, facets, bannersPath) {
		out := make([]hosts.FacetBucket, 0, len(buckets))
		for _, b := range buckets {
			out = append(out, hosts.FacetBucket{Value: b.Value, Count: b.Count})
		}
		count.Facets[key] = out
	}
	return count, nil
}

func (m *Mock) matching(q filter.Query) []*record {
	out := make([]*record, 0, len(m.order))
	for _, ip := range m.order {
		rec := m.byIP[ip]
		if q.Match(rec.doc, bannersPath) {
			out = append(out, rec)
		}
	}
	return out
}

func parse(raw *string) (filter.Query, error) {
	if raw == nil {
		return filter.Query{}, nil
	}
	q, err := filter.Parse(*raw)
	if err != nil {
		return q, rigourapi.QueryError("query", *raw, err.Error())
	}
	return q, nil
}
