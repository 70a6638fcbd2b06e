package platform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver for the audit store
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-databricks/pkg/audit"
	auditpostgres "github.com/txn2/mcp-databricks/pkg/audit/postgres"
	"github.com/txn2/mcp-databricks/pkg/database/migrate"
	"github.com/txn2/mcp-databricks/pkg/databricks"
	"github.com/txn2/mcp-databricks/pkg/health"
	"github.com/txn2/mcp-databricks/pkg/metrics"
	"github.com/txn2/mcp-databricks/pkg/middleware"
	"github.com/txn2/mcp-databricks/pkg/registry"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

// auditCleanupInterval is how often expired audit rows are deleted.
const auditCleanupInterval = 24 * time.Hour

// readier is implemented by session sources that can verify connectivity.
type readier interface {
	Ready(ctx context.Context) error
}

// Platform is the main platform facade.
type Platform struct {
	config *Config

	// Core components
	mcpServer  *mcp.Server
	lifecycle  *Lifecycle
	dispatcher *toolkit.Dispatcher

	// Workspace access
	sessions   databricks.Source
	secretGate *toolkit.Flag

	// Registries
	toolkitRegistry *registry.Registry

	// Observability
	metrics *metrics.Recorder
	health  *health.Checker

	// Audit
	db          *sql.DB
	ownsDB      bool
	auditStore  *auditpostgres.Store
	auditLogger middleware.AuditLogger
	summarizer  audit.Summarizer
}

// New creates a new platform instance.
func New(opts ...Option) (*Platform, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Config == nil {
		return nil, errors.New("config is required")
	}
	if err := options.Config.Validate(); err != nil {
		return nil, err
	}

	p := &Platform{
		config:    options.Config,
		lifecycle: NewLifecycle(),
	}

	if err := p.initializeComponents(options); err != nil {
		if p.ownsDB && p.db != nil {
			_ = p.db.Close()
		}
		return nil, fmt.Errorf("initializing components: %w", err)
	}

	return p, nil
}

// initializeComponents initializes all platform components.
func (p *Platform) initializeComponents(opts *Options) error {
	p.initSessions(opts)
	p.initObservability(opts)
	if err := p.initAudit(opts); err != nil {
		return err
	}
	p.createMCPServer()
	if err := p.initToolkits(opts); err != nil {
		return err
	}
	if err := p.registerPlatformEndpoints(); err != nil {
		return err
	}
	if err := p.registerPlatformPrompts(); err != nil {
		return err
	}
	p.installMiddleware()
	return nil
}

func (p *Platform) initSessions(opts *Options) {
	p.sessions = opts.Sessions
	if p.sessions == nil {
		p.sessions = databricks.NewProvider(p.config.Databricks)
	}
	p.secretGate = toolkit.NewFlag(p.config.Databricks.EnableGetSecret)
}

func (p *Platform) initObservability(opts *Options) {
	p.metrics = opts.Metrics
	if p.metrics == nil {
		p.metrics = metrics.New()
	}
	p.dispatcher = toolkit.NewDispatcher(databricks.NewClassifier(), toolkit.WithRecorder(p.metrics))
	p.health = health.NewChecker(health.WithProbe("databricks", p.probeWorkspace))
}

// probeWorkspace reports whether a workspace session can be established.
func (p *Platform) probeWorkspace(ctx context.Context) error {
	if r, ok := p.sessions.(readier); ok {
		return r.Ready(ctx) //nolint:wrapcheck // provider errors are already wrapped
	}
	_, err := p.sessions.Session(ctx)
	return err //nolint:wrapcheck // provider errors are already wrapped
}

// initAudit wires the audit logger. An injected logger wins; otherwise the
// PostgreSQL store is used when audit is enabled.
func (p *Platform) initAudit(opts *Options) error {
	p.summarizer = opts.AuditSummarizer
	if opts.AuditLogger != nil {
		p.auditLogger = opts.AuditLogger
		return nil
	}
	if !p.config.Audit.Enabled {
		p.auditLogger = &middleware.NoopAuditLogger{}
		return nil
	}

	p.db = opts.DB
	if p.db == nil {
		db, err := sql.Open("postgres", p.config.Audit.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening audit database: %w", err)
		}
		p.db = db
		p.ownsDB = true
	}

	p.auditStore = auditpostgres.New(p.db, auditpostgres.Config{
		RetentionDays: p.config.Audit.RetentionDays,
	})
	p.auditLogger = middleware.NewAuditStoreAdapter(p.auditStore)
	if p.summarizer == nil {
		p.summarizer = p.auditStore
	}

	p.lifecycle.OnStart(func(_ context.Context) error {
		if err := migrate.Run(p.db); err != nil {
			return fmt.Errorf("migrating audit schema: %w", err)
		}
		p.auditStore.StartCleanupRoutine(auditCleanupInterval)
		return nil
	})
	p.lifecycle.RegisterCloser(p.auditStore)
	if p.ownsDB {
		p.lifecycle.RegisterCloser(p.db)
	}
	return nil
}

func (p *Platform) createMCPServer() {
	p.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    p.config.Server.Name,
		Version: p.config.Server.Version,
	}, &mcp.ServerOptions{
		Instructions: p.config.Server.Instructions,
	})
}

// initToolkits loads the configured toolkits and registers their endpoints.
func (p *Platform) initToolkits(opts *Options) error {
	p.toolkitRegistry = opts.ToolkitRegistry
	if p.toolkitRegistry == nil {
		p.toolkitRegistry = registry.NewRegistry()
		registry.RegisterBuiltinFactories(p.toolkitRegistry)
	}

	deps := toolkit.Deps{
		Sessions:   p.sessions,
		SecretRead: p.secretGate,
	}
	if err := registry.NewLoader(p.toolkitRegistry, deps).Load(p.config.Toolkits); err != nil {
		return fmt.Errorf("loading toolkits: %w", err)
	}
	if err := p.toolkitRegistry.RegisterAll(p.mcpServer, p.dispatcher); err != nil {
		return fmt.Errorf("registering toolkits: %w", err)
	}
	p.lifecycle.RegisterCloser(p.toolkitRegistry)
	return nil
}

// installMiddleware adds the receiving middleware chain. The first entry is
// outermost: the tool call middleware sets up the PlatformContext that the
// audit and client logging middleware read.
func (p *Platform) installMiddleware() {
	p.mcpServer.AddReceivingMiddleware(
		middleware.MCPToolCallMiddleware(p.dispatcher, p.config.Server.Transport),
		middleware.MCPAuditMiddleware(p.auditLogger),
		middleware.MCPClientLoggingMiddleware(middleware.ClientLoggingConfig{
			Enabled: p.config.Server.ClientLoggingEnabled(),
		}),
	)
}

// Start starts the platform.
func (p *Platform) Start(ctx context.Context) error {
	if err := p.lifecycle.Start(ctx); err != nil {
		return fmt.Errorf("starting platform: %w", err)
	}
	p.health.SetReady()
	return nil
}

// Stop stops the platform.
func (p *Platform) Stop(ctx context.Context) error {
	p.health.SetDraining()
	return p.lifecycle.Stop(ctx)
}

// MCPServer returns the MCP server.
func (p *Platform) MCPServer() *mcp.Server {
	return p.mcpServer
}

// Config returns the platform configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// Dispatcher returns the endpoint dispatcher.
func (p *Platform) Dispatcher() *toolkit.Dispatcher {
	return p.dispatcher
}

// ToolkitRegistry returns the toolkit registry.
func (p *Platform) ToolkitRegistry() *registry.Registry {
	return p.toolkitRegistry
}

// Health returns the readiness checker.
func (p *Platform) Health() *health.Checker {
	return p.health
}

// SecretGate returns the switch guarding raw secret reads.
func (p *Platform) SecretGate() *toolkit.Flag {
	return p.secretGate
}

// HTTPHandler returns the streamable HTTP handler with the health and
// metrics endpoints mounted beside it.
func (p *Platform) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", p.health.LivenessHandler())
	mux.Handle("/readyz", p.health.ReadinessHandler())
	mux.Handle("/metrics", p.metrics.Handler())
	mux.Handle("/", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return p.mcpServer
	}, nil))
	return mux
}
