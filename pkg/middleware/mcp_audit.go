package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidwall/gjson"
)

// MCPAuditMiddleware creates MCP protocol-level middleware that logs tool
// calls and resource reads for auditing purposes.
//
// This middleware intercepts tools/call and resources/read requests and:
//  1. Executes the handler
//  2. Gets the PlatformContext (set by MCPToolCallMiddleware)
//  3. Records the outcome and error category on it
//  4. Logs asynchronously (non-blocking) to avoid impacting response time
func MCPAuditMiddleware(logger AuditLogger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall && method != methodResourcesRead {
				return next(ctx, method, req)
			}

			startTime := time.Now()
			result, err := next(ctx, method, req)
			duration := time.Since(startTime)

			pc := GetPlatformContext(ctx)
			if pc == nil {
				// MCPToolCallMiddleware did not run.
				return result, err
			}

			event := buildMCPAuditEvent(pc, req, result, err, startTime, duration)
			pc.finish(event, duration)

			go func() {
				if logErr := logger.Log(context.Background(), event); logErr != nil {
					slog.Warn("audit log failed", "request_id", event.RequestID, "error", logErr)
				}
			}()

			return result, err
		}
	}
}

// buildMCPAuditEvent builds an audit event from the MCP request and response.
func buildMCPAuditEvent(
	pc *PlatformContext,
	req mcp.Request,
	result mcp.Result,
	err error,
	startTime time.Time,
	duration time.Duration,
) AuditEvent {
	event := AuditEvent{
		Timestamp:   startTime,
		RequestID:   pc.RequestID,
		SessionID:   pc.SessionID,
		Method:      pc.Method,
		Name:        pc.Name,
		ToolkitKind: pc.ToolkitKind,
		Transport:   pc.Transport,
		Parameters:  extractMCPParameters(req),
		Success:     true,
		DurationMS:  duration.Milliseconds(),
	}

	switch {
	case err != nil:
		event.Success = false
		event.ErrorCategory, event.ErrorMessage = wireErrorDetails(err)
	default:
		if callResult, ok := result.(*mcp.CallToolResult); ok && callResult != nil {
			text := extractMCPText(callResult)
			event.ResponseChars = len(text)
			if callResult.IsError {
				event.Success = false
				event.ErrorCategory, event.ErrorMessage = toolErrorDetails(text)
			}
		}
		if readResult, ok := result.(*mcp.ReadResourceResult); ok && readResult != nil {
			for _, c := range readResult.Contents {
				event.ResponseChars += len(c.Text)
			}
		}
	}
	return event
}

// extractMCPParameters extracts tool arguments from an MCP request.
func extractMCPParameters(req mcp.Request) map[string]any {
	if req == nil {
		return nil
	}
	params := req.GetParams()
	if params == nil {
		return nil
	}

	switch p := params.(type) {
	case *mcp.CallToolParamsRaw:
		if p == nil || len(p.Arguments) == 0 {
			return nil
		}
		var args map[string]any
		if err := json.Unmarshal(p.Arguments, &args); err != nil {
			return nil
		}
		return args
	case *mcp.ReadResourceParams:
		if p == nil {
			return nil
		}
		return map[string]any{"uri": p.URI}
	default:
		return nil
	}
}

// extractMCPText returns the text of the first content block.
func extractMCPText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	if textContent, ok := result.Content[0].(*mcp.TextContent); ok {
		return textContent.Text
	}
	return ""
}

// toolErrorDetails reads {"error": {"category", "message"}} from a tool error
// result. Unstructured text is reported with an empty category.
func toolErrorDetails(text string) (category, message string) {
	if !gjson.Valid(text) {
		return "", text
	}
	doc := gjson.Parse(text)
	if !doc.Get("error.category").Exists() {
		return "", text
	}
	return doc.Get("error.category").String(), doc.Get("error.message").String()
}

// wireErrorDetails reads the category carried in a JSON-RPC error's data.
func wireErrorDetails(err error) (category, message string) {
	var wireErr *jsonrpc.Error
	if errors.As(err, &wireErr) {
		if len(wireErr.Data) > 0 && gjson.ValidBytes(wireErr.Data) {
			category = gjson.GetBytes(wireErr.Data, "category").String()
		}
		return category, wireErr.Message
	}
	return "", err.Error()
}
