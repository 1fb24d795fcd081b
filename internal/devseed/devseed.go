// Package devseed loads the JSON fixtures used to populate the in-memory
// mocks in development and in the sandbox server.
package devseed

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/rigour/rigour_sdk_go/internal/rigourapi"
	"github.com/rigour/rigour_sdk_go/pkg/credentials"
	"github.com/rigour/rigour_sdk_go/pkg/hosts"
	"github.com/rigour/rigour_sdk_go/pkg/scans"
)

// Seed is the content of a seed file. Any section may be absent.
type Seed struct {
	Hosts       []hosts.Host             `json:"hosts" validate:"dive"`
	Scans       []scans.ScanResult       `json:"scans" validate:"dive"`
	Credentials []credentials.Credential `json:"credentials" validate:"dive"`
}

// Load reads and validates the seed file at path.
func Load(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "devseed: read %s", path)
	}
	seed, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "devseed: %s", path)
	}
	return seed, nil
}

// Parse decodes and validates seed content. Unknown top-level sections are
// rejected so that a typo in a section name does not silently load nothing.
func Parse(data []byte) (*Seed, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, errors.Wrap(err, "decode seed")
	}
	for name := range sections {
		switch name {
		case "hosts", "scans", "credentials":
		default:
			return nil, errors.Errorf("unknown seed section %q", name)
		}
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, errors.Wrap(err, "decode seed")
	}
	if err := rigourapi.Validate(&seed); err != nil {
		return nil, err
	}
	return &seed, nil
}
