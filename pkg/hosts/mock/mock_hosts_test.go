package mock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigour/rigour_sdk_go/internal/query"
	"github.com/rigour/rigour_sdk_go/internal/rigourapi"
	"github.com/rigour/rigour_sdk_go/pkg/hosts"
	"github.com/rigour/rigour_sdk_go/pkg/hosts/mock"
)

func banner(service string, port int) hosts.Banner {
	return hosts.Banner{Service: service, Port: port, Data: hosts.BannerData{Status: "success", Protocol: service}}
}

func fixtures() []hosts.Host {
	return []hosts.Host{
		{
			IP:       "10.0.0.1",
			Location: &hosts.Location{CountryName: "Germany", CountryCode: "DE"},
			Banners:  map[string]hosts.Banner{"http": banner("http", 80), "ssh": banner("ssh", 22)},
		},
		{
			IP:       "10.0.0.2",
			Location: &hosts.Location{CountryName: "Germany", CountryCode: "DE"},
			Banners:  map[string]hosts.Banner{"ssh": banner("ssh", 22)},
		},
		{
			IP:       "10.0.0.3",
			Location: &hosts.Location{CountryName: "Brazil", CountryCode: "BR"},
			Banners:  map[string]hosts.Banner{"https": banner("https", 443)},
			Vulnerabilities: []hosts.Vulnerability{
				{Name: "openssl-heartbleed", Title: "Heartbleed", Version: "1.0.1f"},
			},
		},
	}
}

func seeded(t *testing.T) *mock.Mock {
	t.Helper()
	m := mock.New()
	require.NoError(t, m.Seed(fixtures()))
	return m
}

func TestMockHost(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	h, err := m.Host(ctx, "10.0.0.3")
	require.NoError(t, err)
	assert.Equal(t, "Brazil", h.Location.CountryName)

	_, err = m.Host(ctx, "10.0.0.9")
	assert.ErrorIs(t, err, hosts.ErrNotFound)
}

func TestMockSeedRejectsInvalid(t *testing.T) {
	m := mock.New()
	err := m.Seed([]hosts.Host{{IP: "10.0.0.1"}, {IP: "10.0.0.1"}})
	assert.ErrorIs(t, err, hosts.ErrDuplicateHost)
	assert.Equal(t, 0, m.Len())

	err = m.Seed([]hosts.Host{{IP: "nope"}})
	assert.ErrorIs(t, err, rigourapi.ErrInvalidPayload)
}

func TestMockPutReplaces(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	updated := fixtures()[1]
	updated.Banners = map[string]hosts.Banner{"ftp": banner("ftp", 21)}
	require.NoError(t, m.Put(ctx, updated))
	assert.Equal(t, 3, m.Len())

	list, err := m.Search(ctx, hosts.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "10.0.0.2", list[1].IP, "replacement keeps its position")
	assert.Contains(t, list[1].Banners, "ftp")
}

func TestMockSearch(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		opts     hosts.SearchOptions
		expected []string
	}{
		{name: "all", opts: hosts.SearchOptions{}, expected: []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}},
		{name: "country", opts: hosts.SearchOptions{Query: query.Ptr("location.country_name:Germany")}, expected: []string{"10.0.0.1", "10.0.0.2"}},
		{name: "banner port", opts: hosts.SearchOptions{Query: query.Ptr("port:443")}, expected: []string{"10.0.0.3"}},
		{name: "text", opts: hosts.SearchOptions{Query: query.Ptr("heartbleed")}, expected: []string{"10.0.0.3"}},
		{name: "combined", opts: hosts.SearchOptions{Query: query.Ptr("ssh location.country_code:DE")}, expected: []string{"10.0.0.1", "10.0.0.2"}},
		{name: "page", opts: hosts.SearchOptions{Skip: query.Ptr(1), Limit: query.Ptr(1)}, expected: []string{"10.0.0.2"}},
		{name: "past end", opts: hosts.SearchOptions{Skip: query.Ptr(10)}, expected: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			list, err := m.Search(ctx, tc.opts)
			require.NoError(t, err)
			ips := make([]string, 0, len(list))
			for _, h := range list {
				ips = append(ips, h.IP)
			}
			assert.Equal(t, tc.expected, ips)
		})
	}
}

func TestMockSearchValidatesPage(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	for _, opts := range []hosts.SearchOptions{
		{Skip: query.Ptr(-1)},
		{Limit: query.Ptr(0)},
		{Limit: query.Ptr(101)},
	} {
		_, err := m.Search(ctx, opts)
		var verr *rigourapi.ValidationError
		assert.True(t, errors.As(err, &verr), "opts %+v: %v", opts, err)
	}
}

func TestMockCount(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	count, err := m.Count(ctx, hosts.CountOptions{Facets: []string{"location.country_name", "port:2"}})
	require.NoError(t, err)
	assert.Equal(t, 3, count.Total)

	countries, ok := count.Facet("location.country_name")
	require.True(t, ok)
	require.Len(t, countries, 2)
	assert.Equal(t, "Germany", countries[0].Label())
	assert.Equal(t, 2, countries[0].Count)
	assert.Equal(t, "Brazil", countries[1].Label())

	ports, ok := count.Facet("port")
	require.True(t, ok)
	require.Len(t, ports, 2)
	assert.Equal(t, "22", ports[0].Label())
	assert.Equal(t, 2, ports[0].Count)

	filtered, err := m.Count(ctx, hosts.CountOptions{Query: query.Ptr("location.country_name:Brazil")})
	require.NoError(t, err)
	assert.Equal(t, 1, filtered.Total)
	assert.Empty(t, filtered.Facets)

	_, err = m.Count(ctx, hosts.CountOptions{Facets: []string{"port:x"}})
	var verr *rigourapi.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestMockHonoursContext(t *testing.T) {
	m := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Search(ctx, hosts.SearchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
