// Package scans provides a client for the scan-list deployment of the Rigour
// API. In this deployment a host is the set of per-port scan records sharing
// an address, aggregated by the server together with the credentials found
// on it:
//
//	GET /hosts/{ip}   one HostAggregate
//	GET /hosts        a page of aggregates plus top countries, top ports and a total
//	GET /search       full-text search over credentials and scans
//
// It shares the transport, validation and error conventions of package hosts.
package scans
