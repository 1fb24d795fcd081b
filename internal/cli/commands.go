package cli

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rigour/rigour_sdk_go/internal/config"
	"github.com/rigour/rigour_sdk_go/internal/loader"
	"github.com/rigour/rigour_sdk_go/pkg/credentials"
	"github.com/rigour/rigour_sdk_go/pkg/hosts"
	"github.com/rigour/rigour_sdk_go/pkg/scans"
)

type pageFlags struct {
	skip  int
	limit int
}

func (p *pageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.skip, "skip", 0, "number of records to skip")
	cmd.Flags().IntVar(&p.limit, "limit", 10, "maximum number of records (1-100)")
}

func (p *pageFlags) values(cmd *cobra.Command) (*int, *int) {
	return optInt(cmd, "skip", p.skip), optInt(cmd, "limit", p.limit)
}

func (a *app) hostCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "host IP",
		Short: "Show one host",
		Long: `
		With the banners deployment, prints the host record with its banners and
		vulnerabilities. With the scans deployment, prints every scan and
		credential recorded for the address.
		`,
		Example: `
		$ rigour host 85.214.132.117
		$ rigour host 85.214.132.117 --deployment scans --json
		`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ip := strings.TrimSpace(args[0])
			if a.clients.Deployment == config.DeploymentScans {
				agg, err := a.clients.Scans.GetHost(cmd.Context(), ip)
				if err != nil {
					return err
				}
				return a.emit(cmd, agg, func(t *table) { t.aggregate(agg) })
			}
			host, err := a.clients.Hosts.GetHost(cmd.Context(), ip)
			if err != nil {
				return err
			}
			return a.emit(cmd, host, func(t *table) { t.host(host) })
		},
	}
}

func (a *app) searchCommand() *cobra.Command {
	var page pageFlags
	cmd := &cobra.Command{
		Use:   "search [QUERY]...",
		Short: "Search hosts, or scans and credentials",
		Long: `
		The arguments are joined into one query. With the banners deployment the
		query uses the field:value language (country_name:Germany port:22 ssh);
		an empty query lists every host. With the scans deployment the query is
		a required full-text search over credentials and scans.
		`,
		Example: `
		$ rigour search port:22 openssh --limit 5
		$ rigour search jenkins --deployment scans
		`,
		RunE: func(cmd *cobra.Command, args []string) error {
			skip, limit := page.values(cmd)
			if a.clients.Deployment == config.DeploymentScans {
				q := joinArgs(args)
				if q == nil {
					return errors.New("search: a query is required with the scans deployment")
				}
				res, err := a.clients.Scans.Search(cmd.Context(), scans.SearchOptions{Query: *q, Skip: skip, Limit: limit})
				if err != nil {
					return err
				}
				return a.emit(cmd, res, func(t *table) { t.searchResult(res) })
			}
			list, err := a.clients.Hosts.Search(cmd.Context(), hosts.SearchOptions{Query: joinArgs(args), Skip: skip, Limit: limit})
			if err != nil {
				return err
			}
			return a.emit(cmd, list, func(t *table) { t.hosts(list) })
		},
	}
	page.bind(cmd)
	return cmd
}

func (a *app) countCommand() *cobra.Command {
	var facets []string
	cmd := &cobra.Command{
		Use:     "count [QUERY]... [--facet field[:limit]]...",
		Short:   "Count matching hosts and break them down by facet",
		GroupID: "banners",
		Example: `
		$ rigour count --facet location.country_name --facet port:5
		$ rigour count apache --facet location.country_name,port
		`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requires(cmd, config.DeploymentBanners); err != nil {
				return err
			}
			count, err := a.clients.Hosts.Count(cmd.Context(), hosts.CountOptions{Query: joinArgs(args), Facets: facets})
			if err != nil {
				return err
			}
			return a.emit(cmd, count, func(t *table) { t.count(count, facets) })
		},
	}
	cmd.Flags().StringSliceVarP(&facets, "facet", "f", nil, "facet selector, repeatable")
	return cmd
}

func (a *app) hostsCommand() *cobra.Command {
	var (
		page    pageFlags
		query   string
		country string
		port    int
	)
	cmd := &cobra.Command{
		Use:     "hosts [--country CC] [--port N] [--query Q]",
		Short:   "List hosts aggregated from scans, with top countries and ports",
		GroupID: "scans",
		Example: `
		$ rigour hosts --country DE
		$ rigour hosts --port 8080 --json
		`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requires(cmd, config.DeploymentScans); err != nil {
				return err
			}
			skip, limit := page.values(cmd)
			res, err := a.clients.Scans.List(cmd.Context(), scans.ListOptions{
				Query:   optString(cmd, "query", query),
				Country: optString(cmd, "country", country),
				Port:    optInt(cmd, "port", port),
				Skip:    skip,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, res, func(t *table) { t.hostsResult(res) })
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "free-form query")
	cmd.Flags().StringVar(&country, "country", "", "two-letter country code")
	cmd.Flags().IntVar(&port, "port", 0, "scanned port")
	page.bind(cmd)
	return cmd
}

func (a *app) credentialsCommand() *cobra.Command {
	var page pageFlags
	cmd := &cobra.Command{
		Use:     "credentials",
		Short:   "List credentials found on scanned hosts",
		GroupID: "scans",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requires(cmd, config.DeploymentScans); err != nil {
				return err
			}
			skip, limit := page.values(cmd)
			list, err := a.clients.Credentials.List(cmd.Context(), credentials.ListOptions{Skip: skip, Limit: limit})
			if err != nil {
				return err
			}
			return a.emit(cmd, list, func(t *table) { t.credentials(list) })
		},
	}
	page.bind(cmd)
	return cmd
}

func (a *app) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse PAGE",
		Short: "Render a front-end page: /, /host/IP or /credentials",
		Long: `
		PAGE is a front-end URL path with its query string, resolved the way the
		web pages load their data. The index page runs the host search and the
		country/port counts together.
		`,
		Example: `
		$ rigour browse '/?query=port:22&limit=5'
		$ rigour browse /host/179.189.19.221
		$ rigour browse '/credentials?skip=10' --deployment scans
		`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil {
				return errors.Wrap(err, "browse: page")
			}
			l := loader.New(a.clients.Hosts, a.clients.Credentials, a.log)
			ctx := cmd.Context()
			path := "/" + strings.Trim(u.Path, "/")

			switch {
			case path == "/":
				page, err := l.Index(ctx, u.Query())
				if err != nil {
					return err
				}
				return a.emit(cmd, map[string]any{"hosts": page.Hosts, "counts": page.Counts}, func(t *table) {
					t.hosts(page.Hosts)
					t.blank()
					t.count(page.Counts, loader.IndexFacets)
				})
			case strings.HasPrefix(path, "/host/"):
				host, err := l.Host(ctx, strings.TrimPrefix(path, "/host/"))
				if err != nil {
					return err
				}
				return a.emit(cmd, host, func(t *table) { t.host(host) })
			case path == "/credentials":
				page, err := l.Credentials(ctx, u.Query())
				if err != nil {
					return err
				}
				return a.emit(cmd, map[string]any{"credentials": page.Credentials}, func(t *table) {
					t.credentials(page.Credentials)
				})
			default:
				return errors.Errorf("browse: unknown page %q", u.Path)
			}
		},
	}
}
