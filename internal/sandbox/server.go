// Package sandbox serves the in-memory mocks over the Rigour API wire
// contract so the HTTP clients can be exercised without a real deployment.
package sandbox

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/rigour/rigour_sdk_go/internal/httpx"
	"github.com/rigour/rigour_sdk_go/internal/query"
	"github.com/rigour/rigour_sdk_go/internal/rigourapi"
	"github.com/rigour/rigour_sdk_go/pkg/credentials"
	credmock "github.com/rigour/rigour_sdk_go/pkg/credentials/mock"
	"github.com/rigour/rigour_sdk_go/pkg/hosts"
	hostsmock "github.com/rigour/rigour_sdk_go/pkg/hosts/mock"
	"github.com/rigour/rigour_sdk_go/pkg/scans"
	scansmock "github.com/rigour/rigour_sdk_go/pkg/scans/mock"
)

// Options configures a Server. Nil stores are replaced by empty ones.
type Options struct {
	Hosts  *hostsmock.Mock
	Scans  *scansmock.Mock
	Logger zerolog.Logger

	Latency time.Duration
	Fail    FailConfig
	// Rand draws the failure-injection samples; defaults to math/rand.
	Rand func() float64
}

// Server routes API requests to the mocks.
type Server struct {
	hosts  *hostsmock.Mock
	scans  *scansmock.Mock
	creds  *credmock.Mock
	logger zerolog.Logger

	latency time.Duration
	fail    FailConfig
	rand    func() float64
}

// New builds a Server from opts.
func New(opts Options) *Server {
	s := &Server{
		hosts:   opts.Hosts,
		scans:   opts.Scans,
		logger:  opts.Logger,
		latency: opts.Latency,
		fail:    opts.Fail,
		rand:    opts.Rand,
	}
	if s.hosts == nil {
		s.hosts = hostsmock.New()
	}
	if s.scans == nil {
		s.scans = scansmock.New(nil)
	}
	s.creds = s.scans.Credentials()
	if s.rand == nil {
		s.rand = rand.Float64
	}
	return s
}

// Handler returns the router serving every endpoint under /api/v1.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	r.Use(s.requestID, s.accessLog, s.inject)

	api := r.PathPrefix(httpx.APIPrefix).Subrouter()
	api.HandleFunc("/host/search", s.handleHostSearch).Methods(http.MethodGet)
	api.HandleFunc("/host/count", s.handleHostCount).Methods(http.MethodGet)
	api.HandleFunc("/host/{ip}", s.handleHost).Methods(http.MethodGet)
	api.HandleFunc("/hosts", s.handleHostsList).Methods(http.MethodGet)
	api.HandleFunc("/hosts/{ip}", s.handleHostAggregate).Methods(http.MethodGet)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/credentials", s.handleCredentials).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHostSearch(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pageParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.hosts.Search(r.Context(), hosts.SearchOptions{
		Query: optString(r, "query"),
		Skip:  &skip,
		Limit: &limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type countBucket struct {
	ID    any `json:"_id"`
	Count int `json:"count"`
}

func (s *Server) handleHostCount(w http.ResponseWriter, r *http.Request) {
	var facets []string
	if raw := optString(r, "facet"); raw != nil && *raw != "" {
		facets = strings.Split(*raw, ",")
	}
	count, err := s.hosts.Count(r.Context(), hosts.CountOptions{
		Query:  optString(r, "query"),
		Facets: facets,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make(map[string][]countBucket, len(count.Facets))
	for key, buckets := range count.Facets {
		list := make([]countBucket, 0, len(buckets))
		for _, b := range buckets {
			list = append(list, countBucket{ID: b.Value, Count: b.Count})
		}
		out[key] = list
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": count.Total, "facets": out})
}

func (s *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	host, err := s.hosts.Host(r.Context(), mux.Vars(r)["ip"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, host)
}

func (s *Server) handleHostsList(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pageParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	port, err := optInt(r, "port")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.scans.List(r.Context(), scans.ListOptions{
		Query:   optString(r, "query"),
		Country: optString(r, "country"),
		Port:    port,
		Skip:    &skip,
		Limit:   &limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHostAggregate(w http.ResponseWriter, r *http.Request) {
	host, err := s.scans.Host(r.Context(), mux.Vars(r)["ip"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, host)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pageParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := scans.SearchOptions{Skip: &skip, Limit: &limit}
	if q := optString(r, "query"); q != nil {
		opts.Query = *q
	}
	res, err := s.scans.Search(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCredentials(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pageParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.creds.List(r.Context(), credentials.ListOptions{Skip: &skip, Limit: &limit})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *rigourapi.ValidationError
	switch {
	case errors.As(err, &verr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(verr.StatusCode)
		w.Write(verr.Body)
	case errors.Is(err, hosts.ErrNotFound), errors.Is(err, scans.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Host not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("handler failed")
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func pageParams(r *http.Request) (int, int, error) {
	skip, err := optInt(r, "skip")
	if err != nil {
		return 0, 0, err
	}
	limit, err := optInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	s, l := query.Page(skip, limit)
	return s, l, nil
}

func optString(r *http.Request, name string) *string {
	values, ok := r.URL.Query()[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func optInt(r *http.Request, name string) (*int, error) {
	raw := optString(r, name)
	if raw == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return nil, rigourapi.NewValidationError(rigourapi.FieldError{
			Loc:   []any{"query", name},
			Msg:   "Input should be a valid integer, unable to parse string as an integer",
			Type:  "int_parsing",
			Input: *raw,
		})
	}
	return &n, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, so an encoding error cannot be reported.
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
