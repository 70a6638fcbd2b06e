// Package audit provides audit logging of endpoint invocations.
package audit

import (
	"context"
	"time"
)

// Logger defines the interface for audit logging.
type Logger interface {
	// Log records an audit event.
	Log(ctx context.Context, event Event) error

	// Query retrieves audit events matching the filter.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Close releases resources.
	Close() error
}

// Event represents an auditable event.
type Event struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	DurationMS    int64          `json:"duration_ms"`
	RequestID     string         `json:"request_id"`
	SessionID     string         `json:"session_id,omitempty"`
	Method        string         `json:"method"`
	Endpoint      string         `json:"endpoint"`
	ToolkitKind   string         `json:"toolkit_kind,omitempty"`
	Transport     string         `json:"transport,omitempty"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	Success       bool           `json:"success"`
	ErrorCategory string         `json:"error_category,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	ResponseChars int            `json:"response_chars"`
}

// QueryFilter defines criteria for querying audit events.
type QueryFilter struct {
	StartTime     *time.Time
	EndTime       *time.Time
	Endpoint      string
	ToolkitKind   string
	ErrorCategory string
	Success       *bool
	Limit         int
	Offset        int
}

// Config configures audit logging.
type Config struct {
	Enabled       bool   `yaml:"enabled"`
	DatabaseURL   string `yaml:"database_url"`
	RetentionDays int    `yaml:"retention_days" validate:"gte=0"`
}

// Dimension is a column audit events can be grouped by.
type Dimension string

// Breakdown dimensions.
const (
	ByEndpoint      Dimension = "endpoint"
	ByToolkitKind   Dimension = "toolkit_kind"
	ByErrorCategory Dimension = "error_category"
)

// ValidDimensions is the set of allowed group-by values.
var ValidDimensions = map[Dimension]bool{
	ByEndpoint:      true,
	ByToolkitKind:   true,
	ByErrorCategory: true,
}

// BreakdownEntry holds aggregated stats for a single dimension value.
type BreakdownEntry struct {
	Dimension     string  `json:"dimension"`
	Count         int     `json:"count"`
	SuccessRate   float64 `json:"success_rate"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
}

// Overview holds aggregate statistics for a time window.
type Overview struct {
	TotalCalls      int     `json:"total_calls"`
	ErrorCount      int     `json:"error_count"`
	SuccessRate     float64 `json:"success_rate"`
	AvgDurationMS   float64 `json:"avg_duration_ms"`
	UniqueEndpoints int     `json:"unique_endpoints"`
}

// Summarizer aggregates stored audit events.
type Summarizer interface {
	Overview(ctx context.Context, since time.Time) (*Overview, error)
	Breakdown(ctx context.Context, dim Dimension, since time.Time, limit int) ([]BreakdownEntry, error)
}
