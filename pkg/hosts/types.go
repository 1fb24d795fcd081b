package hosts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Location is the geolocation attached to a host. Deployments without a geo
// tagger omit it.
type Location struct {
	CountryCode    string  `json:"country_code"`
	ContinentName  string  `json:"continent_name"`
	CountryName    string  `json:"country_name"`
	AccuracyRadius int     `json:"accuracy_radius" validate:"min=0"`
	Latitude       float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude      float64 `json:"longitude" validate:"min=-180,max=180"`
}

// BannerData is the probe result stored for a banner. Error is set when the
// probe failed, e.g. on a connection timeout.
type BannerData struct {
	Status    string         `json:"status"`
	Protocol  string         `json:"protocol"`
	Result    map[string]any `json:"result"`
	Timestamp Timestamp      `json:"timestamp"`
	Error     string         `json:"error,omitempty"`
}

// Banner is the recorded result of one service probe.
type Banner struct {
	Service string     `json:"service"`
	Port    int        `json:"port" validate:"min=0,max=65535"`
	Data    BannerData `json:"data"`
}

// Failed reports whether the probe ended with an error.
func (b Banner) Failed() bool {
	return b.Data.Error != ""
}

// Vulnerability is a finding attached to a host, independent of its banners.
type Vulnerability struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Version string `json:"version"`
	Link    string `json:"link"`
}

// Host is a scanned address with its banners and vulnerabilities.
type Host struct {
	IP              string            `json:"ip" validate:"required,ip"`
	Location        *Location         `json:"location,omitempty"`
	FirstSeen       Timestamp         `json:"first_seen"`
	UpdatedAt       Timestamp         `json:"updated_at"`
	Banners         map[string]Banner `json:"banners" validate:"dive"`
	Vulnerabilities []Vulnerability   `json:"vulnerabilities"`
}

// Ports lists the banner ports of the host in ascending order.
func (h Host) Ports() []int {
	seen := make(map[int]struct{}, len(h.Banners))
	ports := make([]int, 0, len(h.Banners))
	for _, b := range h.Banners {
		if _, ok := seen[b.Port]; ok {
			continue
		}
		seen[b.Port] = struct{}{}
		ports = append(ports, b.Port)
	}
	sort.Ints(ports)
	return ports
}

// FacetBucket is one (value, count) pair of a facet. Value keeps the JSON
// type the server grouped on: string for countries, number for ports.
type FacetBucket struct {
	Value any `json:"value"`
	Count int `json:"count" validate:"min=0"`
}

// UnmarshalJSON accepts both {"_id": v, "count": n} from /host/count and
// {"value": v, "count": n} from the /hosts top-N summaries.
func (b *FacetBucket) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    *json.RawMessage `json:"_id"`
		Value *json.RawMessage `json:"value"`
		Count int              `json:"count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Count = raw.Count
	b.Value = nil
	src := raw.ID
	if src == nil {
		src = raw.Value
	}
	if src != nil {
		if err := json.Unmarshal(*src, &b.Value); err != nil {
			return err
		}
	}
	return nil
}

// Label renders Value for display; integral numbers print without a
// fractional part.
func (b FacetBucket) Label() string {
	switch v := b.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Count is an aggregation over the host collection: the total number of
// matching hosts and, per requested facet, the top values.
type Count struct {
	Total  int                      `json:"total" validate:"min=0"`
	Facets map[string][]FacetBucket `json:"facets" validate:"dive,dive"`
}

// Facet returns the buckets for a facet selector such as
// "location.country_name" or "port:5", or for the response key itself.
func (c *Count) Facet(selector string) ([]FacetBucket, bool) {
	if c == nil || c.Facets == nil {
		return nil, false
	}
	if buckets, ok := c.Facets[selector]; ok {
		return buckets, true
	}
	buckets, ok := c.Facets[FacetKey(selector)]
	return buckets, ok
}

// FacetKey maps a facet selector to the key the server uses in the facets
// mapping: the optional ":limit" suffix is dropped and dots become
// underscores.
func FacetKey(selector string) string {
	name := strings.TrimSpace(selector)
	if idx := strings.Index(name, ":"); idx >= 0 {
		name = name[:idx]
	}
	return strings.ReplaceAll(name, ".", "_")
}

// SearchOptions are the optional parameters of Search. Nil values are not
// sent; Skip and Limit default to 0 and 10.
type SearchOptions struct {
	Query *string
	Skip  *int
	Limit *int
}

// CountOptions are the optional parameters of Count. A nil Facets slice
// requests the total only.
type CountOptions struct {
	Query  *string
	Facets []string
}

// Timestamp decodes the date formats the API emits: RFC 3339, naive ISO 8601
// without a zone (read as UTC) and MongoDB extended JSON {"$date": ...}.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if trimmed[0] == '{' {
		var ext struct {
			Date json.RawMessage `json:"$date"`
		}
		if err := json.Unmarshal(trimmed, &ext); err != nil {
			return err
		}
		if ext.Date == nil {
			return errors.New("hosts: timestamp object without $date")
		}
		return t.UnmarshalJSON(ext.Date)
	}

	if trimmed[0] != '"' {
		// Extended JSON canonical form may carry epoch milliseconds.
		ms, err := strconv.ParseInt(string(trimmed), 10, 64)
		if err != nil {
			return fmt.Errorf("hosts: invalid timestamp %s", trimmed)
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("hosts: invalid timestamp %q", s)
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

var (
	// ErrNotFound is returned when the requested host does not exist.
	ErrNotFound = errors.New("hosts: not found")
	// ErrDuplicateHost is returned when a listing repeats an address.
	ErrDuplicateHost = errors.New("hosts: duplicate address in listing")
)
