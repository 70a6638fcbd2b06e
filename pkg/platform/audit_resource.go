package platform

import (
	"context"
	"time"

	"github.com/txn2/mcp-databricks/pkg/audit"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

const (
	auditSummaryURI     = "databricks://platform/audit/summary{?hours,dimension,limit}"
	defaultSummaryHours = 24
)

type auditSummaryInput struct {
	Hours     int    `json:"hours" validate:"gte=0,lte=8760"`
	Dimension string `json:"dimension" validate:"omitempty,oneof=endpoint toolkit_kind error_category"`
	Limit     int    `json:"limit" validate:"gte=0,lte=100"`
}

// AuditSummary is the payload of the audit summary resource.
type AuditSummary struct {
	Since     time.Time              `json:"since"`
	Overview  *audit.Overview        `json:"overview"`
	Dimension audit.Dimension        `json:"dimension"`
	Breakdown []audit.BreakdownEntry `json:"breakdown"`
}

func (p *Platform) auditSummaryResource() toolkit.Endpoint {
	return toolkit.Resource[auditSummaryInput]{
		URI:  auditSummaryURI,
		Name: "Audit Summary",
		Description: "Call counts, error rate and average duration from the audit log over the last N hours " +
			"(default 24), with a breakdown by endpoint, toolkit_kind or error_category.",
		Handler: func(ctx context.Context, in auditSummaryInput) (any, error) {
			return p.auditSummary(ctx, in)
		},
	}
}

func (p *Platform) auditSummary(ctx context.Context, in auditSummaryInput) (*AuditSummary, error) {
	hours := in.Hours
	if hours == 0 {
		hours = defaultSummaryHours
	}
	dim := audit.ByEndpoint
	if in.Dimension != "" {
		dim = audit.Dimension(in.Dimension)
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	overview, err := p.summarizer.Overview(ctx, since)
	if err != nil {
		return nil, err //nolint:wrapcheck // store errors carry their own context
	}
	breakdown, err := p.summarizer.Breakdown(ctx, dim, since, in.Limit)
	if err != nil {
		return nil, err //nolint:wrapcheck // store errors carry their own context
	}
	if breakdown == nil {
		breakdown = []audit.BreakdownEntry{}
	}

	return &AuditSummary{
		Since:     since,
		Overview:  overview,
		Dimension: dim,
		Breakdown: breakdown,
	}, nil
}

// registerPlatformEndpoints registers the info tool and, when an audit
// store is configured, the audit summary resource.
func (p *Platform) registerPlatformEndpoints() error {
	endpoints := []toolkit.Endpoint{p.infoTool()}
	if p.summarizer != nil {
		endpoints = append(endpoints, p.auditSummaryResource())
	}
	return p.dispatcher.Register(p.mcpServer, platformToolkit, endpoints, nil) //nolint:wrapcheck // dispatcher errors name the endpoint
}
