package loader_test

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigour/rigour_sdk_go/internal/loader"
	"github.com/rigour/rigour_sdk_go/internal/rigourapi"
	"github.com/rigour/rigour_sdk_go/pkg/hosts"
	"github.com/rigour/rigour_sdk_go/pkg/rigour_sdk"
)

var seedPath = filepath.Join("..", "..", "examples", "seed.json")

func newLoader(t *testing.T) *loader.Loader {
	t.Helper()
	banners, err := rigour_sdk.NewFromConfig(&rigour_sdk.Config{
		Mode:       rigour_sdk.ModeMock,
		Deployment: rigour_sdk.DeploymentBanners,
		MockSeed:   seedPath,
	})
	require.NoError(t, err)
	scanList, err := rigour_sdk.NewFromConfig(&rigour_sdk.Config{
		Mode:       rigour_sdk.ModeMock,
		Deployment: rigour_sdk.DeploymentScans,
		MockSeed:   seedPath,
	})
	require.NoError(t, err)
	return loader.New(banners.Hosts, scanList.Credentials, zerolog.Nop())
}

func TestIndex(t *testing.T) {
	l := newLoader(t)
	ctx := context.Background()

	page, err := l.Index(ctx, url.Values{})
	require.NoError(t, err)
	assert.Nil(t, page.Query)
	assert.Equal(t, 0, page.Skip)
	assert.Equal(t, 10, page.Limit)
	assert.Len(t, page.Hosts, 3)
	assert.Equal(t, 3, page.Counts.Total)
	countries, ok := page.Counts.Facet("location.country_name")
	require.True(t, ok)
	assert.Len(t, countries, 3)
	_, ok = page.Counts.Facet("port")
	assert.True(t, ok)

	page, err = l.Index(ctx, url.Values{"query": {"apache"}, "limit": {"1"}})
	require.NoError(t, err)
	require.NotNil(t, page.Query)
	assert.Equal(t, "apache", *page.Query)
	require.Len(t, page.Hosts, 1)
	assert.Equal(t, "85.214.132.117", page.Hosts[0].IP)
	assert.Equal(t, 1, page.Counts.Total)
}

func TestIndexErrors(t *testing.T) {
	l := newLoader(t)
	ctx := context.Background()

	_, err := l.Index(ctx, url.Values{"skip": {"ten"}})
	assert.Error(t, err)

	_, err = l.Index(ctx, url.Values{"limit": {"500"}})
	var verr *rigourapi.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestHost(t *testing.T) {
	l := newLoader(t)
	ctx := context.Background()

	host, err := l.Host(ctx, "104.21.55.2")
	require.NoError(t, err)
	assert.Equal(t, "104.21.55.2", host.IP)

	_, err = l.Host(ctx, "192.0.2.1")
	assert.ErrorIs(t, err, hosts.ErrNotFound)
}

func TestCredentials(t *testing.T) {
	l := newLoader(t)
	ctx := context.Background()

	page, err := l.Credentials(ctx, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Skip)
	assert.Equal(t, 10, page.Limit)
	assert.Len(t, page.Credentials, 2)

	page, err = l.Credentials(ctx, url.Values{"skip": {"1"}, "limit": {""}})
	require.NoError(t, err)
	require.Len(t, page.Credentials, 1)
	assert.Equal(t, "jenkins-api-token", page.Credentials[0].Name)
}

func TestUnavailable(t *testing.T) {
	l := loader.New(nil, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := l.Index(ctx, nil)
	assert.ErrorIs(t, err, loader.ErrUnavailable)
	_, err = l.Host(ctx, "10.0.0.1")
	assert.ErrorIs(t, err, loader.ErrUnavailable)
	_, err = l.Credentials(ctx, nil)
	assert.ErrorIs(t, err, loader.ErrUnavailable)
}
