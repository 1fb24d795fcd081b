package rigour_sdk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rigour/rigour_sdk_go/pkg/credentials"
	"github.com/rigour/rigour_sdk_go/pkg/hosts"
	"github.com/rigour/rigour_sdk_go/pkg/rigour_sdk"
	"github.com/rigour/rigour_sdk_go/pkg/scans"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for _, name := range []string{"RIGOUR_API_URL", "PUBLIC_API_URL", "RIGOUR_RUNTIME_MODE", "RIGOUR_DEPLOYMENT", "RIGOUR_MOCK_SEED", "RIGOUR_LOG_LEVEL"} {
		t.Setenv(name, kv[name])
	}
}

func TestNewFromEnvHTTPMode(t *testing.T) {
	chdirTemp(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/host/count":
			w.Write([]byte(`{"total":7,"facets":{}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Not Found"}`))
		}
	}))
	defer srv.Close()

	setEnv(t, map[string]string{"RIGOUR_RUNTIME_MODE": "http", "RIGOUR_API_URL": srv.URL})

	clients, err := rigour_sdk.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if clients.Mode != rigour_sdk.ModeHTTP || clients.Deployment != rigour_sdk.DeploymentBanners {
		t.Fatalf("unexpected mode/deployment: %q/%q", clients.Mode, clients.Deployment)
	}
	if clients.Hosts == nil || clients.Scans != nil || clients.Credentials != nil {
		t.Fatalf("banners deployment should only build the hosts client: %+v", clients)
	}

	count, err := clients.Hosts.Count(context.Background(), hosts.CountOptions{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count.Total != 7 {
		t.Fatalf("expected total 7, got %d", count.Total)
	}

	_, err = clients.Hosts.Search(context.Background(), hosts.SearchOptions{})
	if rigour_sdk.StatusCode(err) != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
	var herr *rigour_sdk.HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
}

func TestNewFromEnvHTTPModeRequiresURL(t *testing.T) {
	chdirTemp(t)
	setEnv(t, map[string]string{"RIGOUR_RUNTIME_MODE": "http"})

	if _, err := rigour_sdk.NewFromEnv(); err == nil {
		t.Fatalf("expected error without an API URL")
	}
}

func TestNewFromEnvMockAutoFallback(t *testing.T) {
	chdirTemp(t)
	setEnv(t, nil)

	clients, err := rigour_sdk.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if clients.Mode != rigour_sdk.ModeMock {
		t.Fatalf("expected mock mode, got %q", clients.Mode)
	}

	ctx := context.Background()
	list, err := clients.Hosts.Search(ctx, hosts.SearchOptions{})
	if err != nil {
		t.Fatalf("mock Search: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty listing, got %d hosts", len(list))
	}
	if _, err := clients.Hosts.GetHost(ctx, "10.0.0.1"); !errors.Is(err, hosts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_, err = clients.Hosts.Search(ctx, hosts.SearchOptions{Limit: rigour_sdk.Ptr(1000)})
	var verr *rigour_sdk.ValidationError
	if !errors.As(err, &verr) || rigour_sdk.StatusCode(err) != http.StatusUnprocessableEntity {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNewFromEnvDotenv(t *testing.T) {
	chdirTemp(t)
	setEnv(t, nil)
	os.Unsetenv("RIGOUR_DEPLOYMENT")
	if err := os.WriteFile(".env", []byte("RIGOUR_DEPLOYMENT=scans\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("RIGOUR_DEPLOYMENT") })

	clients, err := rigour_sdk.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if clients.Deployment != rigour_sdk.DeploymentScans || clients.Scans == nil {
		t.Fatalf("expected scans deployment from .env, got %+v", clients)
	}
}

func TestNewFromEnvSeeds(t *testing.T) {
	seedPath := packagePath(t, "examples", "seed.json")
	chdirTemp(t)

	setEnv(t, map[string]string{"RIGOUR_RUNTIME_MODE": "mock", "RIGOUR_MOCK_SEED": seedPath})
	clients, err := rigour_sdk.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv banners: %v", err)
	}
	ctx := context.Background()
	host, err := clients.Hosts.GetHost(ctx, "179.189.19.221")
	if err != nil {
		t.Fatalf("GetHost seeded: %v", err)
	}
	if host.Banners["ssh"].Data.Error == "" {
		t.Fatalf("expected ssh banner error, got %#v", host.Banners["ssh"])
	}
	count, err := clients.Hosts.Count(ctx, hosts.CountOptions{Facets: []string{"location.country_name"}})
	if err != nil {
		t.Fatalf("Count seeded: %v", err)
	}
	if count.Total != 3 || len(count.Facets["location_country_name"]) != 3 {
		t.Fatalf("unexpected counts: %+v", count)
	}

	setEnv(t, map[string]string{"RIGOUR_RUNTIME_MODE": "mock", "RIGOUR_DEPLOYMENT": "scans", "RIGOUR_MOCK_SEED": seedPath})
	clients, err = rigour_sdk.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv scans: %v", err)
	}
	res, err := clients.Scans.List(ctx, scans.ListOptions{})
	if err != nil {
		t.Fatalf("List seeded: %v", err)
	}
	if res.Total != 3 || len(res.TopPorts) == 0 {
		t.Fatalf("unexpected hosts result: %+v", res)
	}
	creds, err := clients.Credentials.List(ctx, credentials.ListOptions{})
	if err != nil {
		t.Fatalf("List credentials: %v", err)
	}
	if len(creds) != 2 {
		t.Fatalf("expected 2 credentials, got %d", len(creds))
	}
}

func packagePath(t *testing.T, elems ...string) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return filepath.Join(append([]string{wd, "..", ".."}, elems...)...)
}
