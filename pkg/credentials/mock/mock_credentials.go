package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/rigour/rigour_sdk_go/internal/filter"
	"github.com/rigour/rigour_sdk_go/internal/query"
	"github.com/rigour/rigour_sdk_go/internal/rigourapi"
	"github.com/rigour/rigour_sdk_go/pkg/credentials"
)

// Mock is an in-memory credential collection kept in insertion order.
type Mock struct {
	mu    sync.RWMutex
	items []credentials.Credential
	docs  []filter.Document
}

// New creates an empty mock collection.
func New() *Mock {
	return &Mock{}
}

// Seed appends credentials after validating each of them.
func (m *Mock) Seed(list []credentials.Credential) error {
	for _, c := range list {
		if err := m.Add(context.Background(), c); err != nil {
			return err
		}
	}
	return nil
}

// Add appends a credential.
func (m *Mock) Add(ctx context.Context, c credentials.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rigourapi.Validate(&c); err != nil {
		return fmt.Errorf("mock credentials: %s: %w", c.Saddr, err)
	}
	doc, err := filter.NewDocument(c)
	if err != nil {
		return fmt.Errorf("mock credentials: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, c)
	m.docs = append(m.docs, doc)
	return nil
}

// List returns one page of credentials.
func (m *Mock) List(ctx context.Context, opts credentials.ListOptions) ([]credentials.Credential, error) {
	skip, limit := query.Page(opts.Skip, opts.Limit)
	if verr := rigourapi.CheckPage(skip, limit); verr != nil {
		return nil, verr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return page(m.items, skip, limit), nil
}

// ForHost returns every credential found on saddr.
func (m *Mock) ForHost(ctx context.Context, saddr string) ([]credentials.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []credentials.Credential{}
	for _, c := range m.items {
		if c.Saddr == saddr {
			out = append(out, c)
		}
	}
	return out, nil
}

// Search returns one page of credentials matching q.
func (m *Mock) Search(ctx context.Context, q filter.Query, skip, limit int) ([]credentials.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []credentials.Credential{}
	for i, doc := range m.docs {
		if q.Match(doc) {
			matched = append(matched, m.items[i])
		}
	}
	return page(matched, skip, limit), nil
}

func page(items []credentials.Credential, skip, limit int) []credentials.Credential {
	out := []credentials.Credential{}
	if skip >= len(items) {
		return out
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return append(out, items[skip:end]...)
}
