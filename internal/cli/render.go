package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rigour/rigour_sdk_go/pkg/credentials"
	"github.com/rigour/rigour_sdk_go/pkg/hosts"
	"github.com/rigour/rigour_sdk_go/pkg/scans"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer) *table {
	return &table{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
}

func (t *table) row(cols ...string) {
	fmt.Fprintln(t.tw, strings.Join(cols, "\t"))
}

func (t *table) blank() {
	fmt.Fprintln(t.tw)
}

func (t *table) flush() error {
	return t.tw.Flush()
}

func (t *table) hosts(list []hosts.Host) {
	if len(list) == 0 {
		t.row("no hosts")
		return
	}
	t.row("IP", "COUNTRY", "PORTS", "VULNS", "UPDATED")
	for _, h := range list {
		country := "-"
		if h.Location != nil && h.Location.CountryName != "" {
			country = h.Location.CountryName
		}
		t.row(h.IP, country, joinInts(h.Ports()), strconv.Itoa(len(h.Vulnerabilities)), date(h.UpdatedAt.Time))
	}
}

func (t *table) host(h *hosts.Host) {
	t.row("IP", h.IP)
	if loc := h.Location; loc != nil {
		t.row("Location", fmt.Sprintf("%s, %s (%.4f, %.4f)", loc.CountryName, loc.ContinentName, loc.Latitude, loc.Longitude))
	}
	t.row("First seen", date(h.FirstSeen.Time))
	t.row("Updated", date(h.UpdatedAt.Time))
	t.blank()

	names := make([]string, 0, len(h.Banners))
	for name := range h.Banners {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		bi, bj := h.Banners[names[i]], h.Banners[names[j]]
		if bi.Port != bj.Port {
			return bi.Port < bj.Port
		}
		return names[i] < names[j]
	})
	t.row("SERVICE", "PORT", "STATUS", "PROTOCOL", "ERROR")
	for _, name := range names {
		b := h.Banners[name]
		t.row(name, strconv.Itoa(b.Port), b.Data.Status, dash(b.Data.Protocol), dash(b.Data.Error))
	}

	if len(h.Vulnerabilities) > 0 {
		t.blank()
		t.row("VULNERABILITY", "VERSION", "TITLE", "LINK")
		for _, v := range h.Vulnerabilities {
			t.row(v.Name, dash(v.Version), v.Title, dash(v.Link))
		}
	}
}

// count prints the total and, for each selector, its buckets in server order.
func (t *table) count(c *hosts.Count, selectors []string) {
	t.row("Total", strconv.Itoa(c.Total))
	for _, sel := range selectors {
		buckets, ok := c.Facet(sel)
		if !ok {
			continue
		}
		t.blank()
		t.row(strings.ToUpper(hosts.FacetKey(sel)), "COUNT")
		for _, b := range buckets {
			t.row(b.Label(), strconv.Itoa(b.Count))
		}
	}
}

func (t *table) credentials(list []credentials.Credential) {
	if len(list) == 0 {
		t.row("no credentials")
		return
	}
	t.row("SADDR", "PORT", "NAME", "CONFIDENCE", "URL")
	for _, c := range list {
		t.row(c.Saddr, strconv.Itoa(c.Sport), c.Name, dash(c.Confidence), dash(c.URL))
	}
}

func (t *table) scans(list []scans.ScanResult) {
	if len(list) == 0 {
		t.row("no scans")
		return
	}
	t.row("SADDR", "PORT", "COUNTRY", "APPS")
	for _, s := range list {
		country := "-"
		if s.Country != nil {
			country = *s.Country
		}
		t.row(s.Saddr, strconv.Itoa(s.Sport), country, dash(apps(s.Apps)))
	}
}

func (t *table) aggregate(h *scans.HostAggregate) {
	t.row("Address", h.Saddr)
	t.row("Ports", dash(joinInts(h.Ports())))
	t.blank()
	t.scans(h.Scans)
	t.blank()
	t.credentials(h.Credentials)
}

func (t *table) hostsResult(res *scans.HostsResult) {
	t.row("Total", strconv.Itoa(res.Total))
	t.row("Top countries", buckets(res.TopCountries))
	t.row("Top ports", buckets(res.TopPorts))
	t.blank()
	if len(res.Hosts) == 0 {
		t.row("no hosts")
		return
	}
	t.row("SADDR", "PORTS", "CREDENTIALS")
	for _, h := range res.Hosts {
		t.row(h.Saddr, joinInts(h.Ports()), strconv.Itoa(len(h.Credentials)))
	}
}

func (t *table) searchResult(res *scans.SearchResult) {
	t.credentials(res.Credentials)
	t.blank()
	t.scans(res.Scans)
}

func buckets(list []hosts.FacetBucket) string {
	if len(list) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(list))
	for _, b := range list {
		parts = append(parts, fmt.Sprintf("%s (%d)", b.Label(), b.Count))
	}
	return strings.Join(parts, ", ")
}

func apps(m map[string]any) string {
	names := make([]string, 0, len(m))
	for name, version := range m {
		if v, ok := version.(string); ok && v != "" {
			name += " " + v
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func joinInts(list []int) string {
	parts := make([]string, 0, len(list))
	for _, n := range list {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ",")
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
