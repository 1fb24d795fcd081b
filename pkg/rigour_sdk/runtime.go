package rigour_sdk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rigour/rigour_sdk_go/internal/config"
	"github.com/rigour/rigour_sdk_go/internal/devseed"
	"github.com/rigour/rigour_sdk_go/internal/httpx"
	"github.com/rigour/rigour_sdk_go/pkg/credentials"
	credmock "github.com/rigour/rigour_sdk_go/pkg/credentials/mock"
	"github.com/rigour/rigour_sdk_go/pkg/hosts"
	hostsmock "github.com/rigour/rigour_sdk_go/pkg/hosts/mock"
	"github.com/rigour/rigour_sdk_go/pkg/scans"
	scansmock "github.com/rigour/rigour_sdk_go/pkg/scans/mock"
)

type (
	Config     = config.Config
	Mode       = config.Mode
	Deployment = config.Deployment
)

const (
	ModeAuto = config.ModeAuto
	ModeHTTP = config.ModeHTTP
	ModeMock = config.ModeMock

	DeploymentBanners = config.DeploymentBanners
	DeploymentScans   = config.DeploymentScans
)

// Clients holds the accessors for one deployment. Hosts is set for the
// banners deployment; Scans and Credentials for the scans deployment.
type Clients struct {
	Mode        Mode
	Deployment  Deployment
	Hosts       *hosts.Client
	Scans       *scans.Client
	Credentials *credentials.Client
}

// NewFromEnv loads an optional .env file, reads the RIGOUR_* variables and
// returns the clients for the configured deployment together with the
// resolved mode ("http" or "mock").
func NewFromEnv(opts ...Option) (*Clients, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("rigour_sdk: %w", err)
	}
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig validates cfg and builds the clients it describes. Transport
// options only apply in HTTP mode.
func NewFromConfig(cfg *Config, opts ...Option) (*Clients, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rigour_sdk: config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("rigour_sdk: %w", err)
	}
	switch mode := cfg.ResolvedMode(); mode {
	case ModeHTTP:
		return newHTTPClients(cfg, opts)
	case ModeMock:
		return newMockClients(cfg)
	default:
		return nil, fmt.Errorf("rigour_sdk: unsupported mode %q", mode)
	}
}

func newHTTPClients(cfg *Config, opts []Option) (*Clients, error) {
	cl, err := httpx.NewClient(cfg.APIURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("rigour_sdk: init HTTP client: %w", err)
	}
	out := &Clients{Mode: ModeHTTP, Deployment: cfg.Deployment}
	switch cfg.Deployment {
	case DeploymentScans:
		out.Scans = scans.NewWithHTTPClient(cl)
		out.Credentials = credentials.NewWithHTTPClient(cl)
	default:
		out.Hosts = hosts.NewWithHTTPClient(cl)
	}
	return out, nil
}

func newMockClients(cfg *Config) (*Clients, error) {
	seed := &devseed.Seed{}
	if cfg.MockSeed != "" {
		loaded, err := devseed.Load(cfg.MockSeed)
		if err != nil {
			return nil, fmt.Errorf("rigour_sdk: load mock seed: %w", err)
		}
		seed = loaded
	}

	out := &Clients{Mode: ModeMock, Deployment: cfg.Deployment}
	switch cfg.Deployment {
	case DeploymentScans:
		cm := credmock.New()
		if err := cm.Seed(seed.Credentials); err != nil {
			return nil, fmt.Errorf("rigour_sdk: apply credentials seed: %w", err)
		}
		sm := scansmock.New(cm)
		if err := sm.Seed(seed.Scans); err != nil {
			return nil, fmt.Errorf("rigour_sdk: apply scans seed: %w", err)
		}
		out.Scans = scans.NewWithBackend(&scansMockBackend{store: sm})
		out.Credentials = credentials.NewWithBackend(&credentialsMockBackend{store: cm})
	default:
		hm := hostsmock.New()
		if err := hm.Seed(seed.Hosts); err != nil {
			return nil, fmt.Errorf("rigour_sdk: apply hosts seed: %w", err)
		}
		out.Hosts = hosts.NewWithBackend(&hostsMockBackend{store: hm})
	}
	return out, nil
}

type hostsMockBackend struct {
	store *hostsmock.Mock
}

func (b *hostsMockBackend) GetHostRaw(ctx context.Context, ip string) ([]byte, error) {
	host, err := b.store.Host(ctx, ip)
	if err != nil {
		return nil, err
	}
	return json.Marshal(host)
}

func (b *hostsMockBackend) SearchRaw(ctx context.Context, opts hosts.SearchOptions) ([]byte, error) {
	list, err := b.store.Search(ctx, opts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(list)
}

func (b *hostsMockBackend) CountRaw(ctx context.Context, opts hosts.CountOptions) ([]byte, error) {
	count, err := b.store.Count(ctx, opts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(count)
}

type scansMockBackend struct {
	store *scansmock.Mock
}

func (b *scansMockBackend) GetHostRaw(ctx context.Context, ip string) ([]byte, error) {
	host, err := b.store.Host(ctx, ip)
	if err != nil {
		return nil, err
	}
	return json.Marshal(host)
}

func (b *scansMockBackend) ListRaw(ctx context.Context, opts scans.ListOptions) ([]byte, error) {
	res, err := b.store.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

func (b *scansMockBackend) SearchRaw(ctx context.Context, opts scans.SearchOptions) ([]byte, error) {
	res, err := b.store.Search(ctx, opts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

type credentialsMockBackend struct {
	store *credmock.Mock
}

func (b *credentialsMockBackend) ListRaw(ctx context.Context, opts credentials.ListOptions) ([]byte, error) {
	list, err := b.store.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(list)
}
