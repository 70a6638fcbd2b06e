package middleware

import (
	"context"
	"time"
)

// AuditLogger logs endpoint invocations for auditing.
type AuditLogger interface {
	// Log records an audit event.
	Log(ctx context.Context, event AuditEvent) error
}

// AuditEvent represents an auditable event.
type AuditEvent struct {
	Timestamp     time.Time      `json:"timestamp"`
	RequestID     string         `json:"request_id"`
	SessionID     string         `json:"session_id"`
	Method        string         `json:"method"`
	Name          string         `json:"name"`
	ToolkitKind   string         `json:"toolkit_kind"`
	Transport     string         `json:"transport"`
	Parameters    map[string]any `json:"parameters"`
	Success       bool           `json:"success"`
	ErrorCategory string         `json:"error_category,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	DurationMS    int64          `json:"duration_ms"`
	ResponseChars int            `json:"response_chars"`
}

// NoopAuditLogger discards all audit events.
type NoopAuditLogger struct{}

// Log does nothing.
func (*NoopAuditLogger) Log(_ context.Context, _ AuditEvent) error {
	return nil
}

// Verify interface compliance.
var _ AuditLogger = (*NoopAuditLogger)(nil)
