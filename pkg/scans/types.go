package scans

import (
	"errors"

	"github.com/rigour/rigour_sdk_go/pkg/credentials"
	"github.com/rigour/rigour_sdk_go/pkg/hosts"
)

// ScanResult is one probe of a host port. Data holds the raw probe output
// and Apps the applications decoded from it.
type ScanResult struct {
	Saddr   string         `json:"saddr" validate:"required,ip"`
	Sport   int            `json:"sport" validate:"min=0,max=65535"`
	Data    map[string]any `json:"data"`
	Apps    map[string]any `json:"apps"`
	Country *string        `json:"country"`
}

// HostAggregate groups every scan and credential recorded for an address.
type HostAggregate struct {
	Saddr       string                   `json:"saddr" validate:"required,ip"`
	Credentials []credentials.Credential `json:"credentials" validate:"dive"`
	Scans       []ScanResult             `json:"scans" validate:"dive"`
}

// Ports lists the distinct scanned ports in first-seen order.
func (h HostAggregate) Ports() []int {
	seen := make(map[int]struct{}, len(h.Scans))
	var ports []int
	for _, s := range h.Scans {
		if _, ok := seen[s.Sport]; ok {
			continue
		}
		seen[s.Sport] = struct{}{}
		ports = append(ports, s.Sport)
	}
	return ports
}

// HostsResult is one page of host aggregates with summaries computed over
// every matching scan. Total counts distinct addresses.
type HostsResult struct {
	Hosts        []HostAggregate     `json:"hosts" validate:"dive"`
	TopCountries []hosts.FacetBucket `json:"top_countries" validate:"dive"`
	TopPorts     []hosts.FacetBucket `json:"top_ports" validate:"dive"`
	Total        int                 `json:"total" validate:"min=0"`
}

// SearchResult holds the credentials and scans matching a text query.
type SearchResult struct {
	Credentials []credentials.Credential `json:"credentials" validate:"dive"`
	Scans       []ScanResult             `json:"scans" validate:"dive"`
}

// ListOptions are the optional parameters of List. Nil values are not sent;
// Skip and Limit default to 0 and 10.
type ListOptions struct {
	Query   *string
	Country *string
	Port    *int
	Skip    *int
	Limit   *int
}

// SearchOptions are the parameters of Search. Query is required.
type SearchOptions struct {
	Query string
	Skip  *int
	Limit *int
}

// TopN is the number of buckets in the country and port summaries.
const TopN = 5

var (
	// ErrNotFound is returned when no scan or credential exists for an address.
	ErrNotFound = errors.New("scans: host not found")
	// ErrDuplicateHost is returned when a page repeats an address.
	ErrDuplicateHost = errors.New("scans: duplicate address in listing")
)
