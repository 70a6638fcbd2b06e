package platform

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callInfo(t *testing.T, cs *mcp.ClientSession) Info {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: infoToolName})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var info Info
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &info))
	return info
}

func TestInfoTool(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Name = "analytics"
	cfg.Server.Description = "Analytics workspace"
	cfg.Toolkits = map[string]map[string]any{"ml": {"enabled": false}}
	p := newTestPlatform(t, cfg, WithSessions(&stubSource{session: &stubSession{}}))
	cs := connect(t, p)

	info := callInfo(t, cs)
	assert.Equal(t, "analytics", info.Name)
	assert.Equal(t, "test", info.Version)
	assert.Equal(t, "Analytics workspace", info.Description)
	assert.False(t, info.Features.SecretRead)
	assert.False(t, info.Features.AuditLogging)
	assert.True(t, info.Features.ClientLogging)

	kinds := make([]string, 0, len(info.Toolkits))
	for _, tk := range info.Toolkits {
		kinds = append(kinds, tk.Kind)
		assert.Positive(t, tk.Tools+tk.Resources, tk.Kind)
	}
	assert.Equal(t, []string{"compute", "data", "files", "jobs", "secrets", "workspace"}, kinds)

	var tools, resources int
	for _, m := range p.Dispatcher().Entries() {
		if m.Toolkit == platformToolkit {
			continue
		}
		if m.Kind == "tool" {
			tools++
		} else {
			resources++
		}
	}
	assert.Equal(t, EndpointCount{Tools: tools, Resources: resources}, info.Endpoints)
}

func TestInfoTool_ReflectsGateAtCallTime(t *testing.T) {
	p := newTestPlatform(t, testConfig(), WithSessions(&stubSource{session: &stubSession{}}))
	cs := connect(t, p)

	assert.False(t, callInfo(t, cs).Features.SecretRead)
	p.SecretGate().Set(true)
	assert.True(t, callInfo(t, cs).Features.SecretRead)
}

func TestInfoTool_AuditEnabledWithLogger(t *testing.T) {
	p := newTestPlatform(t, testConfig(),
		WithSessions(&stubSource{session: &stubSession{}}),
		WithAuditLogger(&captureAuditLogger{}),
	)
	assert.True(t, p.buildInfo().Features.AuditLogging)
}

func TestBuildInfoToolDescription(t *testing.T) {
	p := &Platform{config: testConfig()}
	assert.Contains(t, p.buildInfoToolDescription(), "this Databricks MCP server")

	p.config.Server.Name = "analytics"
	assert.Contains(t, p.buildInfoToolDescription(), "Get information about analytics")
}
