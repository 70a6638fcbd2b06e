package middleware

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-databricks/pkg/mcpcontext"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

const (
	methodToolsCall     = "tools/call"
	methodResourcesRead = "resources/read"
)

// EndpointLookup resolves a tool name or resource URI to its table entry.
type EndpointLookup interface {
	Resolve(name string) (toolkit.Meta, bool)
}

// MCPToolCallMiddleware creates MCP protocol-level middleware that prepares
// the context of every tools/call and resources/read request.
//
// For each such request it:
//  1. Extracts the tool name or resource URI
//  2. Creates a PlatformContext with a fresh request ID and the owning toolkit
//  3. Stores the server session and progress token for lifecycle progress
//     notifications
func MCPToolCallMiddleware(endpoints EndpointLookup, transport string) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall && method != methodResourcesRead {
				return next(ctx, method, req)
			}

			name, err := extractName(method, req)
			if err != nil {
				if method == methodToolsCall {
					return createErrorResult(fmt.Sprintf("invalid request: %v", err)), nil
				}
				return nil, err
			}

			pc := NewPlatformContext(uuid.NewString())
			pc.Method = method
			pc.Name = name
			pc.Transport = transport
			if endpoints != nil {
				if meta, ok := endpoints.Resolve(name); ok {
					pc.ToolkitKind = meta.Toolkit
				}
			}

			ctx = WithPlatformContext(ctx, pc)
			ctx = mcpcontext.WithRequestID(ctx, pc.RequestID)
			if ss, ok := req.GetSession().(*mcp.ServerSession); ok && ss != nil {
				ctx = mcpcontext.WithServerSession(ctx, ss)
				pc.SessionID = ss.ID()
			}
			if p, ok := req.GetParams().(mcp.RequestParams); ok && p != nil {
				if token := p.GetProgressToken(); token != nil {
					ctx = mcpcontext.WithProgressToken(ctx, token)
				}
			}

			slog.Debug("mcp request", "method", method, "name", name, "request_id", pc.RequestID)
			return next(ctx, method, req)
		}
	}
}

// extractName extracts the tool name or the resource URI from a request.
func extractName(method string, req mcp.Request) (string, error) {
	if req == nil {
		return "", fmt.Errorf("missing params")
	}
	params := req.GetParams()
	if params == nil {
		return "", fmt.Errorf("missing params")
	}

	switch method {
	case methodToolsCall:
		callParams, ok := params.(*mcp.CallToolParamsRaw)
		if !ok {
			return "", fmt.Errorf("unexpected params type: %T", params)
		}
		// The type assertion succeeds for a typed nil pointer.
		if callParams == nil {
			return "", fmt.Errorf("missing params")
		}
		if callParams.Name == "" {
			return "", fmt.Errorf("missing tool name")
		}
		return callParams.Name, nil
	default:
		readParams, ok := params.(*mcp.ReadResourceParams)
		if !ok {
			return "", fmt.Errorf("unexpected params type: %T", params)
		}
		if readParams == nil || readParams.URI == "" {
			return "", fmt.Errorf("missing resource uri")
		}
		return readParams.URI, nil
	}
}

// createErrorResult creates an MCP error result for a malformed tool call.
func createErrorResult(errMsg string) mcp.Result {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: errMsg},
		},
	}
}
