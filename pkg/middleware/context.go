// Package middleware provides the MCP protocol-level middleware that wraps
// every tool call and resource read.
package middleware

import (
	"context"
	"time"
)

type platformContextKey struct{}

// outcomeOK labels a successful invocation.
const outcomeOK = "ok"

// PlatformContext is the per-invocation record shared by the middleware
// chain. The tool call middleware creates it and the audit middleware records
// the outcome on it.
type PlatformContext struct {
	RequestID string
	SessionID string
	Method    string
	StartTime time.Time

	// Name is the tool name or the resource URI read. ToolkitKind is the
	// owning toolkit when the dispatch table knows the endpoint.
	Name        string
	ToolkitKind string
	Transport   string

	Success       bool
	ErrorCategory string
	ErrorMessage  string
	Duration      time.Duration
}

// NewPlatformContext creates a context record stamped with the current time.
func NewPlatformContext(requestID string) *PlatformContext {
	return &PlatformContext{
		RequestID: requestID,
		StartTime: time.Now(),
	}
}

// finish records the invocation outcome.
func (pc *PlatformContext) finish(e AuditEvent, d time.Duration) {
	pc.Success = e.Success
	pc.ErrorCategory = e.ErrorCategory
	pc.ErrorMessage = e.ErrorMessage
	pc.Duration = d
}

// Outcome returns "ok" for a success, else the error category, else "error".
func (pc *PlatformContext) Outcome() string {
	switch {
	case pc.Success:
		return outcomeOK
	case pc.ErrorCategory != "":
		return pc.ErrorCategory
	default:
		return "error"
	}
}

// WithPlatformContext stores pc in ctx.
func WithPlatformContext(ctx context.Context, pc *PlatformContext) context.Context {
	return context.WithValue(ctx, platformContextKey{}, pc)
}

// GetPlatformContext returns the record stored in ctx, or nil.
func GetPlatformContext(ctx context.Context) *PlatformContext {
	pc, _ := ctx.Value(platformContextKey{}).(*PlatformContext)
	return pc
}
