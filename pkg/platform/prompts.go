package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const analyzeTablePrompt = "databricks_analyze_table"

// registerPlatformPrompts registers the built-in prompts and the prompts
// from config.
func (p *Platform) registerPlatformPrompts() error {
	p.registerAnalyzeTablePrompt()
	for _, promptCfg := range p.config.Server.Prompts {
		if promptCfg.Name == analyzeTablePrompt {
			return fmt.Errorf("prompt %s is reserved", analyzeTablePrompt)
		}
		p.registerPrompt(promptCfg)
	}
	return nil
}

// registerPrompt registers a single static prompt with the MCP server.
func (p *Platform) registerPrompt(cfg PromptConfig) {
	promptContent := cfg.Content

	p.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        cfg.Name,
		Description: cfg.Description,
	}, func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: promptContent},
				},
			},
		}, nil
	})
}

func (p *Platform) registerAnalyzeTablePrompt() {
	p.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        analyzeTablePrompt,
		Title:       "Analyze Table",
		Description: "Guided workflow for inspecting a Unity Catalog table and answering a question about it with SQL.",
		Arguments: []*mcp.PromptArgument{
			{Name: "catalog", Description: "Unity Catalog catalog name", Required: true},
			{Name: "schema", Description: "Schema name", Required: true},
			{Name: "table", Description: "Table name", Required: true},
			{Name: "analysis_goal", Description: "What you want to learn from the table"},
		},
	}, handleAnalyzeTable)
}

func handleAnalyzeTable(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var args map[string]string
	if req.Params != nil {
		args = req.Params.Arguments
	}

	var missing []string
	for _, name := range []string{"catalog", "schema", "table"} {
		if strings.TrimSpace(args[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required arguments: %s", strings.Join(missing, ", "))
	}

	text := buildAnalyzeTableText(args["catalog"], args["schema"], args["table"], args["analysis_goal"])
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Analyze %s.%s.%s", args["catalog"], args["schema"], args["table"]),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}, nil
}

func buildAnalyzeTableText(catalog, schema, table, goal string) string {
	full := catalog + "." + schema + "." + table
	if goal == "" {
		goal = "Summarize what the table contains and point out data quality issues."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the Databricks table %s.\n\nGoal: %s\n\n", full, goal)
	b.WriteString("Steps:\n")
	fmt.Fprintf(&b, "1. Read databricks://uc/tables/%s/%s/%s for columns, types and table properties.\n", catalog, schema, table)
	fmt.Fprintf(&b, "2. Read databricks://uc/tables/%s/%s/%s/preview?row_limit=20 to see sample rows.\n", catalog, schema, table)
	b.WriteString("3. Read databricks://sql/warehouses and pick a RUNNING warehouse. ")
	b.WriteString("If none is running, start one with databricks_data_start_warehouse.\n")
	fmt.Fprintf(&b, "4. Run aggregate queries against %s with databricks_data_execute_statement "+
		"(sql_query, warehouse_id, catalog=%s, schema=%s). ", full, catalog, schema)
	b.WriteString("The call returns a statement_id right away.\n")
	b.WriteString("5. Fetch rows with databricks_data_get_statement_result(statement_id) ")
	b.WriteString("until the state is SUCCEEDED, then answer the goal from the results.\n")
	return b.String()
}
