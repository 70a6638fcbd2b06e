package databricks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultWaitTimeout bounds lifecycle waits when none is configured.
const DefaultWaitTimeout = 20 * time.Minute

// Config holds workspace connection settings. Empty Host, Token and Profile
// fall through to the SDK's environment and config-file authentication.
type Config struct {
	Host            string        `yaml:"host"`
	Token           string        `yaml:"token"`
	Profile         string        `yaml:"profile"`
	WaitTimeout     time.Duration `yaml:"wait_timeout"`
	EnableGetSecret bool          `yaml:"enable_get_secret"`
}

// Connector builds an unverified session from config.
type Connector func(ctx context.Context, cfg Config) (Session, error)

// Provider lazily builds and memoizes the workspace session. The first
// successful construction is cached for the life of the process; failures
// are not cached. Concurrent cold-start callers share one construction.
type Provider struct {
	cfg     Config
	connect Connector

	mu      sync.RWMutex
	session Session
	group   singleflight.Group
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithConnector replaces the SDK connector.
func WithConnector(c Connector) ProviderOption {
	return func(p *Provider) {
		p.connect = c
	}
}

// NewProvider creates a provider. No network I/O happens until Session.
func NewProvider(cfg Config, opts ...ProviderOption) *Provider {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}
	p := &Provider{
		cfg:     cfg,
		connect: Connect,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Session returns the memoized session, constructing it and checking the
// caller's identity on first use.
func (p *Provider) Session(ctx context.Context) (Session, error) {
	if s := p.cached(); s != nil {
		return s, nil
	}

	v, err, _ := p.group.Do("session", func() (any, error) {
		if s := p.cached(); s != nil {
			return s, nil
		}

		// The construction is shared, so one caller's cancellation must not
		// fail the others.
		s, err := p.establish(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.session = s
		p.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // already wrapped by establish
	}
	return v.(Session), nil
}

// Ready reports whether a session can be obtained. Used as a readiness probe.
func (p *Provider) Ready(ctx context.Context) error {
	_, err := p.Session(ctx)
	return err
}

// Config returns the provider configuration with defaults applied.
func (p *Provider) Config() Config {
	return p.cfg
}

func (p *Provider) cached() Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

func (p *Provider) establish(ctx context.Context) (Session, error) {
	s, err := p.connect(ctx, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to databricks: %w", err)
	}

	me, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("verifying databricks credentials: %w", err)
	}

	user := ""
	if me != nil {
		user = me.UserName
	}
	slog.Info("databricks session established", "host", p.cfg.Host, "user", user)
	return s, nil
}

// Verify interface compliance.
var _ Source = (*Provider)(nil)
