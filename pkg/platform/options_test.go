package platform

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/txn2/mcp-databricks/pkg/metrics"
	"github.com/txn2/mcp-databricks/pkg/middleware"
	"github.com/txn2/mcp-databricks/pkg/registry"
)

func TestOptions(t *testing.T) {
	cfg := &Config{}
	src := &stubSource{}
	db := &sql.DB{}
	logger := &middleware.NoopAuditLogger{}
	summarizer := &stubSummarizer{}
	rec := metrics.New()
	reg := registry.NewRegistry()

	opts := &Options{}
	for _, opt := range []Option{
		WithConfig(cfg),
		WithSessions(src),
		WithDB(db),
		WithAuditLogger(logger),
		WithAuditSummarizer(summarizer),
		WithMetrics(rec),
		WithToolkitRegistry(reg),
	} {
		opt(opts)
	}

	assert.Same(t, cfg, opts.Config)
	assert.Same(t, src, opts.Sessions)
	assert.Same(t, db, opts.DB)
	assert.Same(t, logger, opts.AuditLogger)
	assert.Same(t, summarizer, opts.AuditSummarizer)
	assert.Same(t, rec, opts.Metrics)
	assert.Same(t, reg, opts.ToolkitRegistry)
}
