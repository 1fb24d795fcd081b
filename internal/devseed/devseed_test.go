package devseed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigour/rigour_sdk_go/internal/rigourapi"
)

func TestLoadExampleSeed(t *testing.T) {
	seed, err := Load(filepath.Join("..", "..", "examples", "seed.json"))
	require.NoError(t, err)

	require.Len(t, seed.Hosts, 3)
	assert.Equal(t, "179.189.19.221", seed.Hosts[0].IP)
	assert.True(t, seed.Hosts[0].Banners["ssh"].Failed())
	assert.False(t, seed.Hosts[0].FirstSeen.IsZero())
	assert.Len(t, seed.Scans, 4)
	assert.Len(t, seed.Credentials, 2)
}

func TestParseRejectsBadSeeds(t *testing.T) {
	_, err := Parse([]byte(`{"host":[]}`))
	assert.ErrorContains(t, err, `unknown seed section "host"`)

	_, err = Parse([]byte(`{"hosts":[{"ip":"300.1.1.1"}]}`))
	assert.ErrorIs(t, err, rigourapi.ErrInvalidPayload)

	_, err = Parse([]byte(`{"credentials":[{"saddr":"10.0.0.1","sport":99999}]}`))
	assert.ErrorIs(t, err, rigourapi.ErrInvalidPayload)

	_, err = Parse([]byte(`[]`))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseEmptySections(t *testing.T) {
	seed, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, seed.Hosts)
	assert.Empty(t, seed.Scans)
	assert.Empty(t, seed.Credentials)
}
