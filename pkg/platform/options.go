package platform

import (
	"database/sql"

	"github.com/txn2/mcp-databricks/pkg/audit"
	"github.com/txn2/mcp-databricks/pkg/databricks"
	"github.com/txn2/mcp-databricks/pkg/metrics"
	"github.com/txn2/mcp-databricks/pkg/middleware"
	"github.com/txn2/mcp-databricks/pkg/registry"
)

// Options configures the platform.
type Options struct {
	// Config is the platform configuration.
	Config *Config

	// Sessions supplies the workspace session (optional, a databricks.Provider
	// is built from config if not provided).
	Sessions databricks.Source

	// DB is the audit database (optional, opened from audit.database_url if
	// not provided and audit is enabled).
	DB *sql.DB

	// AuditLogger (optional, built from the audit store if not provided).
	AuditLogger middleware.AuditLogger

	// AuditSummarizer backs the audit summary resource (optional, the audit
	// store is used when audit is enabled).
	AuditSummarizer audit.Summarizer

	// Metrics (optional, a fresh recorder is created if not provided).
	Metrics *metrics.Recorder

	// ToolkitRegistry (optional, one with the builtin factories is created if
	// not provided).
	ToolkitRegistry *registry.Registry
}

// Option is a functional option for configuring the platform.
type Option func(*Options)

// WithConfig sets the configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithSessions sets the workspace session source.
func WithSessions(src databricks.Source) Option {
	return func(o *Options) {
		o.Sessions = src
	}
}

// WithDB sets the audit database connection.
func WithDB(db *sql.DB) Option {
	return func(o *Options) {
		o.DB = db
	}
}

// WithAuditLogger sets the audit logger.
func WithAuditLogger(logger middleware.AuditLogger) Option {
	return func(o *Options) {
		o.AuditLogger = logger
	}
}

// WithAuditSummarizer sets the source of the audit summary resource.
func WithAuditSummarizer(s audit.Summarizer) Option {
	return func(o *Options) {
		o.AuditSummarizer = s
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *Options) {
		o.Metrics = r
	}
}

// WithToolkitRegistry sets the toolkit registry.
func WithToolkitRegistry(reg *registry.Registry) Option {
	return func(o *Options) {
		o.ToolkitRegistry = reg
	}
}
