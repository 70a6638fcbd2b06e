package toolkit

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-databricks/pkg/mcpcontext"
)

// ProgressNotifier reports progress of a long-running invocation.
type ProgressNotifier interface {
	Notify(ctx context.Context, progress, total float64, message string) error
}

// mcpProgressNotifier sends progress through the calling MCP session.
type mcpProgressNotifier struct {
	session *mcp.ServerSession
	token   any
}

// Notify sends a progress notification to the client.
func (n *mcpProgressNotifier) Notify(ctx context.Context, progress, total float64, message string) error {
	//nolint:wrapcheck // MCP SDK session error returned as-is
	return n.session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
		ProgressToken: n.token,
		Progress:      progress,
		Total:         total,
		Message:       message,
	})
}

type progressKey struct{}

// WithProgressNotifier stores n in ctx, overriding the session notifier.
func WithProgressNotifier(ctx context.Context, n ProgressNotifier) context.Context {
	return context.WithValue(ctx, progressKey{}, n)
}

// ProgressFrom returns the notifier for ctx: an explicit one if set, else one
// built from the server session and progress token placed in ctx by the
// tool call middleware. Returns nil when the client asked for no progress.
func ProgressFrom(ctx context.Context) ProgressNotifier {
	if n, ok := ctx.Value(progressKey{}).(ProgressNotifier); ok {
		return n
	}
	session := mcpcontext.GetServerSession(ctx)
	token := mcpcontext.GetProgressToken(ctx)
	if session == nil || token == nil {
		return nil
	}
	return &mcpProgressNotifier{session: session, token: token}
}

// Wait brackets a blocking lifecycle call with start and finish progress
// notifications. Notification failures are logged and otherwise ignored.
func Wait[T any](ctx context.Context, message string, call func(context.Context) (T, error)) (T, error) {
	n := ProgressFrom(ctx)
	notify(ctx, n, 0, message)
	v, err := call(ctx)
	if err == nil {
		notify(ctx, n, 1, message+": done")
	}
	return v, err
}

func notify(ctx context.Context, n ProgressNotifier, progress float64, message string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, progress, 1, message); err != nil {
		slog.Debug("progress notification failed", "error", err)
	}
}

// Verify interface compliance.
var _ ProgressNotifier = (*mcpProgressNotifier)(nil)
