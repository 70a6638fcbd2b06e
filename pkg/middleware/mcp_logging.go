package middleware

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-databricks/pkg/mcpcontext"
)

// clientLoggerName identifies this server in client log notifications.
const clientLoggerName = "mcp-databricks"

// sessionLogger abstracts the ServerSession.Log method for testability.
type sessionLogger interface {
	Log(ctx context.Context, params *mcp.LoggingMessageParams) error
}

// ClientLoggingConfig configures server-to-client logging middleware.
type ClientLoggingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MCPClientLoggingMiddleware creates MCP protocol-level middleware that sends
// log notifications to the client via ServerSession.Log().
//
// After a tool call completes it sends one log summarizing the outcome. The
// client only receives the log if it has previously called logging/setLevel;
// otherwise ServerSession.Log() is a silent no-op.
//
// It must run inside MCPAuditMiddleware so the outcome is already recorded on
// the PlatformContext.
func MCPClientLoggingMiddleware(cfg ClientLoggingConfig) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		if !cfg.Enabled {
			return next
		}

		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			result, err := next(ctx, method, req)

			sendClientLog(ctx, err)

			return result, err
		}
	}
}

// sendClientLog sends a log notification to the client if a server session
// is available. All errors are ignored to keep logging best-effort.
func sendClientLog(ctx context.Context, handlerErr error) {
	if handlerErr != nil {
		return
	}

	pc := GetPlatformContext(ctx)
	if pc == nil {
		return
	}

	session := mcpcontext.GetServerSession(ctx)
	if session == nil {
		return
	}

	emitClientLog(ctx, session, pc)
}

// emitClientLog builds and sends a log notification to the client.
func emitClientLog(ctx context.Context, logger sessionLogger, pc *PlatformContext) {
	level := mcp.LoggingLevel("info")
	if !pc.Success {
		level = "warning"
	}

	msg := fmt.Sprintf("%s finished (%s, %dms)", pc.Name, pc.Outcome(), pc.Duration.Milliseconds())
	if err := logger.Log(ctx, &mcp.LoggingMessageParams{
		Level:  level,
		Logger: clientLoggerName,
		Data:   msg,
	}); err != nil {
		slog.Debug("client logging: failed to send log notification", "error", err)
	}
}
