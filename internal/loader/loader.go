// Package loader turns the raw URL parameters of the browse pages (index,
// host detail, credentials) into accessor calls and returns the page data.
package loader

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rigour/rigour_sdk_go/pkg/credentials"
	"github.com/rigour/rigour_sdk_go/pkg/hosts"
)

// IndexFacets are the facets the index page shows next to the host list.
var IndexFacets = []string{"location.country_name", "port"}

// Loader fetches page data through the resource clients.
type Loader struct {
	hosts       *hosts.Client
	credentials *credentials.Client
	log         zerolog.Logger
}

// New builds a Loader. Either client may be nil when the deployment does not
// serve it; the matching page then fails with ErrUnavailable.
func New(h *hosts.Client, c *credentials.Client, log zerolog.Logger) *Loader {
	return &Loader{hosts: h, credentials: c, log: log}
}

// ErrUnavailable is returned when the page needs a client the Loader lacks.
var ErrUnavailable = errors.New("loader: resource not served by this deployment")

// IndexPage is the data of the host listing page.
type IndexPage struct {
	Query  *string
	Skip   int
	Limit  int
	Hosts  []hosts.Host
	Counts *hosts.Count
}

// Index reads query, skip and limit from params and runs the host search and
// the facet count concurrently.
func (l *Loader) Index(ctx context.Context, params url.Values) (*IndexPage, error) {
	if l.hosts == nil {
		return nil, ErrUnavailable
	}
	page := &IndexPage{Query: optional(params, "query")}
	var err error
	if page.Skip, err = intParam(params, "skip", 0); err != nil {
		return nil, err
	}
	if page.Limit, err = intParam(params, "limit", 10); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := l.hosts.Search(gctx, hosts.SearchOptions{
			Query: page.Query,
			Skip:  &page.Skip,
			Limit: &page.Limit,
		})
		if err != nil {
			return errors.Wrap(err, "search hosts")
		}
		page.Hosts = list
		return nil
	})
	g.Go(func() error {
		count, err := l.hosts.Count(gctx, hosts.CountOptions{
			Query:  page.Query,
			Facets: IndexFacets,
		})
		if err != nil {
			return errors.Wrap(err, "count hosts")
		}
		page.Counts = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.log.Debug().
		Int("hosts", len(page.Hosts)).
		Int("total", page.Counts.Total).
		Msg("index page loaded")
	return page, nil
}

// Host loads the detail page of one host.
func (l *Loader) Host(ctx context.Context, ip string) (*hosts.Host, error) {
	if l.hosts == nil {
		return nil, ErrUnavailable
	}
	host, err := l.hosts.GetHost(ctx, ip)
	if err != nil {
		return nil, errors.Wrapf(err, "load host %s", ip)
	}
	return host, nil
}

// CredentialsPage is the data of the credentials listing page.
type CredentialsPage struct {
	Skip        int
	Limit       int
	Credentials []credentials.Credential
}

// Credentials reads skip and limit from params, where empty values fall back
// to 0 and 10.
func (l *Loader) Credentials(ctx context.Context, params url.Values) (*CredentialsPage, error) {
	if l.credentials == nil {
		return nil, ErrUnavailable
	}
	skip, err := intParam(params, "skip", 0)
	if err != nil {
		return nil, err
	}
	limit, err := intParam(params, "limit", 10)
	if err != nil {
		return nil, err
	}
	list, err := l.credentials.List(ctx, credentials.ListOptions{Skip: &skip, Limit: &limit})
	if err != nil {
		return nil, errors.Wrap(err, "list credentials")
	}
	return &CredentialsPage{Skip: skip, Limit: limit, Credentials: list}, nil
}

func optional(params url.Values, name string) *string {
	values, ok := params[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func intParam(params url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(params.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "parameter %s", name)
	}
	return n, nil
}
