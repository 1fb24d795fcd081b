package config

import (
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variables read by FromEnv.
const (
	EnvAPIURL       = "RIGOUR_API_URL"
	EnvPublicAPIURL = "PUBLIC_API_URL"
	EnvMode         = "RIGOUR_RUNTIME_MODE"
	EnvDeployment   = "RIGOUR_DEPLOYMENT"
	EnvMockSeed     = "RIGOUR_MOCK_SEED"
	EnvLogLevel     = "RIGOUR_LOG_LEVEL"
)

type Mode string

const (
	ModeAuto Mode = "auto"
	ModeHTTP Mode = "http"
	ModeMock Mode = "mock"
)

// Deployment selects which API schema the remote service speaks.
type Deployment string

const (
	// DeploymentBanners serves hosts with banners and vulnerabilities
	// under /host.
	DeploymentBanners Deployment = "banners"
	// DeploymentScans serves per-port scan records aggregated by address
	// under /hosts, plus /search and /credentials.
	DeploymentScans Deployment = "scans"
)

type Config struct {
	APIURL     string
	Mode       Mode
	Deployment Deployment
	MockSeed   string
	LogLevel   string
}

// Load reads the given dotenv files (".env" when none are named) and then
// builds the configuration from the environment. Missing files are ignored
// and variables already set in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "config: load %s", f)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*Config, error) {
	apiURL := strings.TrimSpace(os.Getenv(EnvAPIURL))
	if apiURL == "" {
		apiURL = strings.TrimSpace(os.Getenv(EnvPublicAPIURL))
	}

	level := strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel)))
	if level == "" {
		level = "info"
	}

	cfg := &Config{
		APIURL:     apiURL,
		Mode:       Mode(strings.ToLower(strings.TrimSpace(os.Getenv(EnvMode)))),
		Deployment: Deployment(strings.ToLower(strings.TrimSpace(os.Getenv(EnvDeployment)))),
		MockSeed:   strings.TrimSpace(os.Getenv(EnvMockSeed)),
		LogLevel:   level,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills in the default mode and deployment and rejects unknown
// values. HTTP mode requires an API URL.
func (c *Config) Validate() error {
	switch c.Mode {
	case "":
		c.Mode = ModeAuto
	case ModeAuto, ModeMock:
	case ModeHTTP:
		if c.APIURL == "" {
			return errors.Errorf("config: %s=http requires %s", EnvMode, EnvAPIURL)
		}
	default:
		return errors.Errorf("config: unsupported %s value %q", EnvMode, c.Mode)
	}

	switch c.Deployment {
	case "":
		c.Deployment = DeploymentBanners
	case DeploymentBanners, DeploymentScans:
	default:
		return errors.Errorf("config: unsupported %s value %q", EnvDeployment, c.Deployment)
	}
	return nil
}

// ResolvedMode turns ModeAuto into ModeHTTP when an API URL is configured
// and ModeMock otherwise.
func (c *Config) ResolvedMode() Mode {
	if c.Mode != ModeAuto {
		return c.Mode
	}
	if c.APIURL != "" {
		return ModeHTTP
	}
	return ModeMock
}
