package credentials_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigour/rigour_sdk_go/internal/httpx"
	"github.com/rigour/rigour_sdk_go/internal/query"
	"github.com/rigour/rigour_sdk_go/internal/rigourapi"
	"github.com/rigour/rigour_sdk_go/pkg/credentials"
)

func TestList(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/credentials", r.URL.Path)
		mu.Lock()
		seen = append(seen, r.URL.RawQuery)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"saddr":"10.0.0.1","name":"aws-access-key","sport":80,"url":"http://10.0.0.1/.env","confidence":"high","value":"AKIA..."}]`)
	}))
	defer srv.Close()

	client, err := credentials.New(srv.URL)
	require.NoError(t, err)

	list, err := client.List(context.Background(), credentials.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "aws-access-key", list[0].Name)
	assert.Equal(t, 80, list[0].Sport)

	_, err = client.List(context.Background(), credentials.ListOptions{Skip: query.Ptr(20), Limit: query.Ptr(5)})
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"skip=0&limit=10", "skip=20&limit=5"}, seen)
}

func TestListErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("limit") {
		case "100":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "50":
			w.WriteHeader(http.StatusUnprocessableEntity)
			io.WriteString(w, `{"detail":[{"loc":["query","limit"],"msg":"bad","type":"x"}]}`)
		default:
			io.WriteString(w, `[{"saddr":"bogus","sport":80}]`)
		}
	}))
	defer srv.Close()

	client, err := credentials.New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.List(ctx, credentials.ListOptions{Limit: query.Ptr(100)})
	assert.Equal(t, http.StatusServiceUnavailable, httpx.StatusCode(err))

	_, err = client.List(ctx, credentials.ListOptions{Limit: query.Ptr(50)})
	var verr *rigourapi.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = client.List(ctx, credentials.ListOptions{})
	assert.ErrorIs(t, err, rigourapi.ErrInvalidPayload)

	_, err = client.List(ctx, credentials.ListOptions{Skip: query.Ptr(-5)})
	assert.Error(t, err)
}

func TestListPath(t *testing.T) {
	assert.Equal(t, "credentials?skip=0&limit=10", credentials.ListPath(credentials.ListOptions{}))
	assert.Equal(t, "credentials?skip=3&limit=10", credentials.ListPath(credentials.ListOptions{Skip: query.Ptr(3)}))
}
