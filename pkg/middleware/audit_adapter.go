package middleware

import (
	"context"
	"fmt"

	"github.com/txn2/mcp-databricks/pkg/audit"
)

// auditStore defines the subset of audit.Logger the adapter writes to.
type auditStore interface {
	Log(ctx context.Context, event audit.Event) error
}

// auditStoreAdapter adapts an audit store to the AuditLogger interface.
type auditStoreAdapter struct {
	store auditStore
}

// NewAuditStoreAdapter creates an AuditLogger that writes to an audit store.
func NewAuditStoreAdapter(store audit.Logger) AuditLogger {
	return &auditStoreAdapter{store: store}
}

// Log converts the middleware event to an audit.Event with sanitized
// parameters and stores it.
func (a *auditStoreAdapter) Log(ctx context.Context, event AuditEvent) error {
	auditEvent := audit.NewEvent(event.Name).
		WithRequest(event.RequestID, event.SessionID, event.Method).
		WithToolkit(event.ToolkitKind).
		WithTransport(event.Transport).
		WithParameters(audit.SanitizeParameters(event.Parameters)).
		WithResult(event.Success, event.ErrorCategory, event.ErrorMessage, event.DurationMS).
		WithResponseSize(event.ResponseChars)

	auditEvent.Timestamp = event.Timestamp

	if err := a.store.Log(ctx, *auditEvent); err != nil {
		return fmt.Errorf("storing audit event: %w", err)
	}
	return nil
}

// Verify interface compliance.
var _ AuditLogger = (*auditStoreAdapter)(nil)
