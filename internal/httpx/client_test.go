package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigour/rigour_sdk_go/internal/httpx"
)

type captured struct {
	method      string
	path        string
	rawQuery    string
	contentType string
	hasType     bool
	body        []byte
}

func newRecordingServer(t *testing.T, status int, body string) (*httptest.Server, func() []captured) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_, hasType := r.Header["Content-Type"]
		mu.Lock()
		reqs = append(reqs, captured{
			method:      r.Method,
			path:        r.URL.Path,
			rawQuery:    r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			hasType:     hasType,
			body:        data,
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), reqs...)
	}
}

func TestNewClientRequiresOrigin(t *testing.T) {
	_, err := httpx.NewClient("  ")
	require.Error(t, err)

	_, err = httpx.NewClient("not-absolute")
	require.Error(t, err)

	cl, err := httpx.NewClient("http://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com/api/v1", cl.BaseURL())
}

func TestSendWithoutBodyOmitsContentType(t *testing.T) {
	srv, reqs := newRecordingServer(t, http.StatusOK, `{"ok":true}`)
	cl, err := httpx.NewClient(srv.URL)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = cl.Get(ctx, "host/1.2.3.4")
	require.NoError(t, err)
	_, err = cl.Delete(ctx, "host/1.2.3.4")
	require.NoError(t, err)

	got := reqs()
	require.Len(t, got, 2)
	assert.Equal(t, http.MethodGet, got[0].method)
	assert.Equal(t, http.MethodDelete, got[1].method)
	for _, r := range got {
		assert.Equal(t, "/api/v1/host/1.2.3.4", r.path)
		assert.False(t, r.hasType, "no Content-Type expected without a body")
		assert.Empty(t, r.body)
	}
}

func TestSendWithBodySetsContentType(t *testing.T) {
	srv, reqs := newRecordingServer(t, http.StatusCreated, `{"id":1}`)
	cl, err := httpx.NewClient(srv.URL)
	require.NoError(t, err)

	payload := map[string]any{"name": "ssh", "port": 22, "tags": []string{"a<b"}}
	ctx := context.Background()
	_, err = cl.Post(ctx, "things", payload)
	require.NoError(t, err)
	_, err = cl.Put(ctx, "things/1", payload)
	require.NoError(t, err)

	got := reqs()
	require.Len(t, got, 2)
	assert.Equal(t, http.MethodPost, got[0].method)
	assert.Equal(t, http.MethodPut, got[1].method)
	for _, r := range got {
		assert.Equal(t, "application/json", r.contentType)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(r.body, &decoded))
		assert.Equal(t, "ssh", decoded["name"])
		assert.Equal(t, float64(22), decoded["port"])
		assert.Equal(t, []any{"a<b"}, decoded["tags"])
	}
}

func TestPostRequiresBody(t *testing.T) {
	cl, err := httpx.NewClient("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = cl.Post(context.Background(), "things", nil)
	require.Error(t, err)
	_, err = cl.Put(context.Background(), "things", nil)
	require.Error(t, err)
}

func TestEmptyBodyDecodesToEmptyObject(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNoContent, http.StatusUnprocessableEntity} {
		srv, _ := newRecordingServer(t, status, "")
		cl, err := httpx.NewClient(srv.URL)
		require.NoError(t, err)

		resp, err := cl.Get(context.Background(), "anything")
		require.NoError(t, err, "status %d", status)
		require.NotNil(t, resp)
		assert.JSONEq(t, `{}`, string(resp.Body), "status %d", status)
	}
}

func TestUnprocessableIsReturnedAsData(t *testing.T) {
	body := `{"detail":[{"loc":["query","limit"],"msg":"Input should be less than or equal to 100","type":"less_than_equal"}]}`
	srv, _ := newRecordingServer(t, http.StatusUnprocessableEntity, body)
	cl, err := httpx.NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := cl.Get(context.Background(), "host/search?limit=1000")
	require.NoError(t, err)
	assert.True(t, resp.Unprocessable())
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.JSONEq(t, body, string(resp.Body))
}

func TestFailureStatusesYieldHTTPError(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 500, 503} {
		srv, _ := newRecordingServer(t, status, `{"detail":"nope"}`)
		cl, err := httpx.NewClient(srv.URL)
		require.NoError(t, err)

		resp, err := cl.Get(context.Background(), "host/1.1.1.1")
		assert.Nil(t, resp, "status %d", status)

		var httpErr *httpx.HTTPError
		require.True(t, errors.As(err, &httpErr), "status %d: %v", status, err)
		assert.Equal(t, status, httpErr.StatusCode)
		assert.Equal(t, status, httpx.StatusCode(err))
		assert.Equal(t, map[string]any{"detail": "nope"}, httpErr.JSON)
		assert.Equal(t, status == http.StatusNotFound, httpErr.NotFound())
		assert.Equal(t, "nope", httpErr.Detail())
		assert.Contains(t, httpErr.Error(), "nope")
	}
}

func TestMalformedBodyIsAnError(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusOK, `{"broken":`)
	cl, err := httpx.NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := cl.Get(context.Background(), "host/search")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, httpx.ErrMalformedBody)
}

func TestTransportFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	origin := srv.URL
	srv.Close()

	cl, err := httpx.NewClient(origin)
	require.NoError(t, err)

	_, err = cl.Get(context.Background(), "host/search")
	require.Error(t, err)
	assert.Equal(t, 0, httpx.StatusCode(err))
}

func TestRepeatedRequestsUseIdenticalURLs(t *testing.T) {
	srv, reqs := newRecordingServer(t, http.StatusOK, `[]`)
	cl, err := httpx.NewClient(srv.URL, httpx.WithHeaders(http.Header{"X-Client": {"test"}}))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := cl.Get(context.Background(), "host/search?query=apache&skip=0&limit=10")
		require.NoError(t, err)
	}

	got := reqs()
	require.Len(t, got, 2)
	assert.Equal(t, got[0].path, got[1].path)
	assert.Equal(t, got[0].rawQuery, got[1].rawQuery)
	assert.Equal(t, "query=apache&skip=0&limit=10", got[0].rawQuery)
}
