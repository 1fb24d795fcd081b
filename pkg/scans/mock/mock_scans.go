package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rigour/rigour_sdk_go/internal/filter"
	"github.com/rigour/rigour_sdk_go/internal/query"
	"github.com/rigour/rigour_sdk_go/internal/rigourapi"
	"github.com/rigour/rigour_sdk_go/pkg/credentials"
	credmock "github.com/rigour/rigour_sdk_go/pkg/credentials/mock"
	"github.com/rigour/rigour_sdk_go/pkg/hosts"
	"github.com/rigour/rigour_sdk_go/pkg/scans"
)

// Mock is an in-memory scan collection. Credentials live in a separate
// store, shared with the credential listing, and are joined by address.
type Mock struct {
	mu    sync.RWMutex
	scans []scans.ScanResult
	docs  []filter.Document
	creds *credmock.Mock
}

// New creates an empty scan collection joined to creds. A nil creds gets a
// fresh empty store.
func New(creds *credmock.Mock) *Mock {
	if creds == nil {
		creds = credmock.New()
	}
	return &Mock{creds: creds}
}

// Credentials returns the credential store the mock joins against.
func (m *Mock) Credentials() *credmock.Mock {
	return m.creds
}

// Seed appends scan records after validating each of them.
func (m *Mock) Seed(list []scans.ScanResult) error {
	for _, s := range list {
		if err := m.Add(context.Background(), s); err != nil {
			return err
		}
	}
	return nil
}

// Add appends a scan record.
func (m *Mock) Add(ctx context.Context, s scans.ScanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rigourapi.Validate(&s); err != nil {
		return fmt.Errorf("mock scans: %s: %w", s.Saddr, err)
	}
	doc, err := filter.NewDocument(s)
	if err != nil {
		return fmt.Errorf("mock scans: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans = append(m.scans, s)
	m.docs = append(m.docs, doc)
	return nil
}

// Host returns every scan and credential recorded for ip, or
// scans.ErrNotFound when there are neither.
func (m *Mock) Host(ctx context.Context, ip string) (*scans.HostAggregate, error) {
	if strings.TrimSpace(ip) == "" {
		return nil, fmt.Errorf("mock scans: address is required")
	}
	creds, err := m.creds.ForHost(ctx, ip)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	found := []scans.ScanResult{}
	for _, s := range m.scans {
		if s.Saddr == ip {
			found = append(found, s)
		}
	}
	m.mu.RUnlock()

	if len(creds) == 0 && len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", scans.ErrNotFound, ip)
	}
	return &scans.HostAggregate{Saddr: ip, Credentials: creds, Scans: found}, nil
}

// List groups the matching scans by address and returns one page of
// aggregates. The country and port summaries count scans, not hosts, and
// cover every match rather than just the page.
func (m *Mock) List(ctx context.Context, opts scans.ListOptions) (*scans.HostsResult, error) {
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
	var (
		order     []string
		grouped   = map[string][]scans.ScanResult{}
		countries = map[any]int{}
		ports     = map[any]int{}
	)
	for i, s := range m.scans {
		if opts.Country != nil && *opts.Country != "" && (s.Country == nil || *s.Country != *opts.Country) {
			continue
		}
		if opts.Port != nil && *opts.Port != 0 && s.Sport != *opts.Port {
			continue
		}
		if !q.Match(m.docs[i]) {
			continue
		}
		if _, ok := grouped[s.Saddr]; !ok {
			order = append(order, s.Saddr)
		}
		grouped[s.Saddr] = append(grouped[s.Saddr], s)
		if s.Country != nil {
			countries[*s.Country]++
		}
		ports[float64(s.Sport)]++
	}
	m.mu.RUnlock()

	res := &scans.HostsResult{
		Hosts:        []scans.HostAggregate{},
		TopCountries: buckets(countries),
		TopPorts:     buckets(ports),
		Total:        len(order),
	}
	for i, saddr := range order {
		if i < skip || len(res.Hosts) >= limit {
			continue
		}
		creds, err := m.creds.ForHost(ctx, saddr)
		if err != nil {
			return nil, err
		}
		res.Hosts = append(res.Hosts, scans.HostAggregate{Saddr: saddr, Credentials: creds, Scans: grouped[saddr]})
	}
	return res, nil
}

// Search runs a text query over credentials and scans, paging each
// collection independently.
func (m *Mock) Search(ctx context.Context, opts scans.SearchOptions) (*scans.SearchResult, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, rigourapi.NewValidationError(rigourapi.FieldError{
			Loc:  []any{"query", "query"},
			Msg:  "Field required",
			Type: "missing",
		})
	}
	skip, limit := query.Page(opts.Skip, opts.Limit)
	if verr := rigourapi.CheckPage(skip, limit); verr != nil {
		return nil, verr
	}
	q, err := parse(&opts.Query)
	if err != nil {
		return nil, err
	}

	creds, err := m.creds.Search(ctx, q, skip, limit)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	found := []scans.ScanResult{}
	matched := 0
	for i, s := range m.scans {
		if !q.Match(m.docs[i]) {
			continue
		}
		if matched >= skip && len(found) < limit {
			found = append(found, s)
		}
		matched++
	}
	if creds == nil {
		creds = []credentials.Credential{}
	}
	return &scans.SearchResult{Credentials: creds, Scans: found}, nil
}

func buckets(counts map[any]int) []hosts.FacetBucket {
	top := filter.Top(counts, scans.TopN)
	out := make([]hosts.FacetBucket, 0, len(top))
	for _, b := range top {
		out = append(out, hosts.FacetBucket{Value: b.Value, Count: b.Count})
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
