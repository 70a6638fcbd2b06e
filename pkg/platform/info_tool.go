package platform

import (
	"context"
	"fmt"
	"sort"

	"github.com/txn2/mcp-databricks/pkg/middleware"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

// platformToolkit is the toolkit name under which platform endpoints are
// registered in the dispatch table.
const platformToolkit = "platform"

const infoToolName = "databricks_platform_info"

// Info contains information about the server deployment.
type Info struct {
	Name        string        `json:"name"`
	Version     string        `json:"version"`
	Description string        `json:"description,omitempty"`
	Toolkits    []ToolkitInfo `json:"toolkits"`
	Endpoints   EndpointCount `json:"endpoints"`
	Features    Features      `json:"features"`
}

// ToolkitInfo summarizes one enabled toolkit.
type ToolkitInfo struct {
	Kind      string `json:"kind"`
	Tools     int    `json:"tools"`
	Resources int    `json:"resources"`
}

// EndpointCount totals the dispatch table by kind.
type EndpointCount struct {
	Tools     int `json:"tools"`
	Resources int `json:"resources"`
}

// Features describes enabled server features.
type Features struct {
	SecretRead    bool `json:"secret_read"`
	AuditLogging  bool `json:"audit_logging"`
	ClientLogging bool `json:"client_logging"`
}

type platformInfoInput struct{}

func (p *Platform) infoTool() toolkit.Endpoint {
	return toolkit.Tool[platformInfoInput]{
		Name:        infoToolName,
		Title:       "Platform Info",
		Description: p.buildInfoToolDescription(),
		ReadOnly:    true,
		Idempotent:  true,
		Handler: func(_ context.Context, _ platformInfoInput) (any, error) {
			return p.buildInfo(), nil
		},
	}
}

// buildInfoToolDescription builds the tool description from configuration.
func (p *Platform) buildInfoToolDescription() string {
	base := "Get information about this Databricks MCP server"
	if p.config.Server.Name != "" && p.config.Server.Name != defaultName {
		base = fmt.Sprintf("Get information about %s", p.config.Server.Name)
	}
	return base + ", including enabled toolkits, endpoint counts and whether raw secret reads are allowed. " +
		"Call this first to understand what workspace capabilities are available."
}

// buildInfo reads the dispatch table and gates at call time.
func (p *Platform) buildInfo() Info {
	byKind := make(map[string]*ToolkitInfo)
	var total EndpointCount

	for _, m := range p.dispatcher.Entries() {
		if m.Toolkit == platformToolkit {
			continue
		}
		ti, ok := byKind[m.Toolkit]
		if !ok {
			ti = &ToolkitInfo{Kind: m.Toolkit}
			byKind[m.Toolkit] = ti
		}
		switch m.Kind {
		case toolkit.KindTool:
			ti.Tools++
			total.Tools++
		case toolkit.KindResource:
			ti.Resources++
			total.Resources++
		}
	}

	toolkits := make([]ToolkitInfo, 0, len(byKind))
	for _, ti := range byKind {
		toolkits = append(toolkits, *ti)
	}
	sort.Slice(toolkits, func(i, j int) bool { return toolkits[i].Kind < toolkits[j].Kind })

	return Info{
		Name:        p.config.Server.Name,
		Version:     p.config.Server.Version,
		Description: p.config.Server.Description,
		Toolkits:    toolkits,
		Endpoints:   total,
		Features: Features{
			SecretRead:    p.secretGate.Enabled(),
			AuditLogging:  p.auditEnabled(),
			ClientLogging: p.config.Server.ClientLoggingEnabled(),
		},
	}
}

func (p *Platform) auditEnabled() bool {
	_, noop := p.auditLogger.(*middleware.NoopAuditLogger)
	return p.auditLogger != nil && !noop
}
