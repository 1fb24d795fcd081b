// Package hosts provides a client for the host resources of the Rigour API
// in its banner deployment: /host/{ip}, /host/search and /host/count, served
// by rigour/api/main.py. A Host carries its service banners keyed by service
// name together with the vulnerabilities detected for it.
//
// Responses are decoded and validated before they reach the caller. A 404 or
// an empty object for a single host is reported as ErrNotFound, and a 422 is
// returned as a validation error carrying the server's field messages.
package hosts
